// Package process starts the target program as a child process. Runner
// abstracts real vs scripted execution so the step executor can be tested
// without the target installed.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Command describes one child process.
type Command struct {
	Path   string
	Args   []string
	Env    []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Runner starts a command and waits for it.
//
// A command that ran to completion yields its exit code and a nil error,
// whatever the code. A non-nil error means the process could not be started
// or was stopped by ctx; in the latter case the error wraps ctx.Err().
// Implementations: ExecRunner, processtest.Script.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// DefaultWaitDelay bounds how long Run keeps reading output after the
// process has exited or been killed.
const DefaultWaitDelay = 5 * time.Second

// ExecRunner runs commands via os/exec.
type ExecRunner struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// Run executes cmd. The process is killed when ctx is done.
func (r *ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = c.Env
	}
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	cmd.WaitDelay = DefaultWaitDelay
	if r != nil && r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && cmd.Process != nil {
		return -1, fmt.Errorf("command %q stopped: %w", c.Path, ctxErr)
	}
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		// Exited, but a grandchild kept the output pipes open.
		return cmd.ProcessState.ExitCode(), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("execute command %q: %w", c.Path, err)
}
