// Package store removes the target's on-disk data store so every run starts
// from an empty database. Downloaded models live elsewhere and are never
// touched.
package store

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultRoot returns ~/Library/Application Support.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "Library", "Application Support")
}

// Base strips one trailing ".store" from name.
func Base(name string) string {
	return strings.TrimSuffix(name, ".store")
}

// Candidates lists the artifacts a store named name may leave under root.
func Candidates(root, name string) []string {
	base := filepath.Join(root, Base(name))
	return []string{
		base + ".version",
		base,
		base + ".sqlite",
		base + ".sqlite-wal",
		base + ".sqlite-shm",
		base + ".store",
		base + ".store-wal",
		base + ".store-shm",
		base + ".store.store-wal",
		base + ".store.store-shm",
	}
}

// Reset removes every candidate file that exists and returns the removed
// paths. Directories are left alone and all errors are ignored; a store
// that cannot be cleared surfaces later as a step failure.
func Reset(root, name string) []string {
	var removed []string
	for _, p := range Candidates(root, name) {
		fi, err := os.Lstat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		if err := os.Remove(p); err == nil {
			removed = append(removed, p)
		}
	}
	return removed
}

// Present returns the candidates that currently exist.
func Present(root, name string) []string {
	var found []string
	for _, p := range Candidates(root, name) {
		if _, err := os.Lstat(p); err == nil {
			found = append(found, p)
		}
	}
	return found
}
