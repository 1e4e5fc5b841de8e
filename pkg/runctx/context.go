// Package runctx holds the immutable execution context shared by every step
// of a harness run: which binary to drive, which workspace and store it
// operates on, and where step logs go.
package runctx

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Spec lists the inputs for New.
type Spec struct {
	Binary     string
	Workspace  string
	Store      string
	ConfigPath string
	LogDir     string
	Env        []string
}

// Context is the execution context. Its fields are fixed at construction;
// WithStore is the only way to derive a variant.
type Context struct {
	binary     string
	workspace  string
	store      string
	configPath string
	logDir     string
	env        []string
}

// New builds a Context. The environment slice is copied.
func New(s Spec) Context {
	return Context{
		binary:     s.Binary,
		workspace:  s.Workspace,
		store:      s.Store,
		configPath: s.ConfigPath,
		logDir:     s.LogDir,
		env:        slices.Clone(s.Env),
	}
}

func (c Context) Binary() string     { return c.binary }
func (c Context) Workspace() string  { return c.workspace }
func (c Context) Store() string      { return c.store }
func (c Context) ConfigPath() string { return c.configPath }
func (c Context) LogDir() string     { return c.logDir }

// Env returns a copy of the child-process environment.
func (c Context) Env() []string { return slices.Clone(c.env) }

// WorkspacePath joins elem onto the workspace root.
func (c Context) WorkspacePath(elem ...string) string {
	return filepath.Join(append([]string{c.workspace}, elem...)...)
}

// LogPath joins name onto the log directory.
func (c Context) LogPath(name string) string {
	return filepath.Join(c.logDir, name)
}

// WithStore returns a copy of c that targets a different store.
func (c Context) WithStore(store string) Context {
	n := c
	n.store = store
	n.env = slices.Clone(c.env)
	return n
}

// Argv returns the full command line for a step: the binary, the isolation
// flags, then args.
func (c Context) Argv(args []string) []string {
	argv := make([]string, 0, len(args)+5)
	argv = append(argv, c.binary, "--store", c.store, "--workspace", c.workspace)
	return append(argv, args...)
}

// MergeEnv overlays extra onto base (KEY=VALUE entries). Keys in extra
// replace earlier entries of the same key; new keys are appended in sorted
// order.
func MergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return slices.Clone(base)
	}
	out := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := extra[k]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+extra[k])
	}
	return out
}

// Lookup returns the value of key in a KEY=VALUE environment.
func Lookup(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(env[i], "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}
