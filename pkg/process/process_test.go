package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "stub.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecRunnerCapturesOutputAndExitCode(t *testing.T) {
	path := writeScript(t, "echo out-$1\necho err-$2 >&2\nexit 3\n")
	var stdout, stderr bytes.Buffer
	code, err := (&ExecRunner{}).Run(context.Background(), Command{
		Path:   path,
		Args:   []string{"a", "b"},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if strings.TrimSpace(stdout.String()) != "out-a" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.TrimSpace(stderr.String()) != "err-b" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestExecRunnerPassesEnv(t *testing.T) {
	path := writeScript(t, "printf '%s' \"$THINK_CLI_CONFIG\"\n")
	var stdout bytes.Buffer
	_, err := (&ExecRunner{}).Run(context.Background(), Command{
		Path:   path,
		Env:    []string{"THINK_CLI_CONFIG=/tmp/cfg.json"},
		Stdout: &stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	if stdout.String() != "/tmp/cfg.json" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestExecRunnerDeadlineKills(t *testing.T) {
	path := writeScript(t, "sleep 5\n")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := (&ExecRunner{WaitDelay: 100 * time.Millisecond}).Run(ctx, Command{Path: path})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("process not killed promptly")
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := (&ExecRunner{}).Run(context.Background(), Command{Path: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("expected a start error")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("start failure reported as deadline: %v", err)
	}
}
