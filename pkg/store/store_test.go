package store

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates("/root", "codex-usecases.store")
	want := []string{
		"/root/codex-usecases.version",
		"/root/codex-usecases",
		"/root/codex-usecases.sqlite",
		"/root/codex-usecases.sqlite-wal",
		"/root/codex-usecases.sqlite-shm",
		"/root/codex-usecases.store",
		"/root/codex-usecases.store-wal",
		"/root/codex-usecases.store-shm",
		"/root/codex-usecases.store.store-wal",
		"/root/codex-usecases.store.store-shm",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates =\n%v\nwant\n%v", got, want)
	}
	if !slices.Equal(Candidates("/root", "codex-usecases"), want) {
		t.Error("suffix stripping changed the candidate set")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"s.version", "s.sqlite", "s.store-wal", "other.sqlite"} {
		touch(t, filepath.Join(root, name))
	}
	models := filepath.Join(root, "ThinkAI", "Models", "mlx")
	if err := os.MkdirAll(models, 0o755); err != nil {
		t.Fatal(err)
	}

	removed := Reset(root, "s")
	if len(removed) != 3 {
		t.Errorf("removed %v, want 3 paths", removed)
	}
	if again := Reset(root, "s"); len(again) != 0 {
		t.Errorf("second reset removed %v", again)
	}
	if len(Present(root, "s")) != 0 {
		t.Errorf("leftovers: %v", Present(root, "s"))
	}
	if _, err := os.Stat(filepath.Join(root, "other.sqlite")); err != nil {
		t.Error("unrelated store removed")
	}
	if _, err := os.Stat(models); err != nil {
		t.Error("models root removed")
	}
}

func TestResetSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "s")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	Reset(root, "s")
	if _, err := os.Stat(dir); err != nil {
		t.Error("directory with the store's base name was removed")
	}
}

func TestResetMissingRoot(t *testing.T) {
	if got := Reset(filepath.Join(t.TempDir(), "nope"), "s"); len(got) != 0 {
		t.Errorf("removed %v from a missing root", got)
	}
}
