// Package step runs one invocation of the target program, persists its
// output and metadata under the run directory, and classifies the outcome.
package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alessio/shellescape"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/ormasoftchile/thinkuc/pkg/process"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/trace"
)

// DefaultChatTimeout applies to chat sends when nothing else is configured.
const DefaultChatTimeout = 1800 * time.Second

// Result is the outcome of a step that did not fail fatally.
type Result struct {
	Name       string
	ExitCode   int
	Stdout     string
	Stderr     string
	JSON       jsonv.Value
	Duration   time.Duration
	RecordPath string
}

// OK reports a zero exit code.
func (r *Result) OK() bool { return r != nil && r.ExitCode == 0 }

// Executor runs steps. It keeps the set of log prefixes used in this
// process so two steps never share log files. Create one with NewExecutor.
type Executor struct {
	Runner process.Runner
	// ChatTimeout bounds `chat send` steps that set no explicit timeout.
	// Zero disables it.
	ChatTimeout time.Duration
	// LegacyZeroTimeout makes an explicit non-positive timeout on a chat
	// send fall back to ChatTimeout instead of disabling the bound.
	LegacyZeroTimeout bool
	Trace             *trace.Writer

	now  func() time.Time
	log  log.Logger
	mu   sync.Mutex
	used map[string]struct{}
}

// NewExecutor returns an Executor using runner (process.ExecRunner when nil).
func NewExecutor(runner process.Runner) *Executor {
	if runner == nil {
		runner = &process.ExecRunner{}
	}
	return &Executor{
		Runner:      runner,
		ChatTimeout: DefaultChatTimeout,
		now:         time.Now,
		log:         log.Named("step"),
		used:        make(map[string]struct{}),
	}
}

// SetClock replaces the clock used for log prefixes and durations.
func (e *Executor) SetClock(now func() time.Time) { e.now = now }

// Quote renders argv as a POSIX shell command line.
func Quote(argv []string) string {
	return shellescape.QuoteCommand(argv)
}

// IsChatSend reports whether args contain the adjacent pair "chat", "send".
func IsChatSend(args []string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "chat" && args[i+1] == "send" {
			return true
		}
	}
	return false
}

// EffectiveTimeout returns the bound applied to a step with args, or zero
// for none.
func (e *Executor) EffectiveTimeout(args []string, opts ...Option) time.Duration {
	return e.effectiveTimeout(args, buildOptions(opts))
}

func (e *Executor) effectiveTimeout(args []string, o options) time.Duration {
	if o.timeoutSet {
		if o.timeout > 0 {
			return o.timeout
		}
		if !e.LegacyZeroTimeout {
			return 0
		}
	}
	if IsChatSend(args) && e.ChatTimeout > 0 {
		return e.ChatTimeout
	}
	return 0
}

// Run executes the target with rc's isolation flags followed by args.
//
// Every invocation writes <prefix>.out.txt, <prefix>.err.txt and
// <prefix>.meta.json into rc's log directory before returning. The returned
// error is a *Failure for timeouts, start failures, and, unless AllowFail is
// given, non-zero exits and unparseable JSON.
func (e *Executor) Run(ctx context.Context, rc runctx.Context, name string, args []string, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	argv := rc.Argv(args)
	cmdline := Quote(argv)

	if err := os.MkdirAll(rc.LogDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	prefix := e.reserve(rc.LogDir(), name)
	outPath := filepath.Join(rc.LogDir(), prefix+StdoutSuffix)
	errPath := filepath.Join(rc.LogDir(), prefix+StderrSuffix)
	recPath := filepath.Join(rc.LogDir(), prefix+RecordSuffix)

	runCtx := ctx
	timeout := e.effectiveTimeout(args, o)
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := process.Command{
		Path: argv[0],
		Args: slices.Clone(argv[1:]),
		Env:  runctx.MergeEnv(rc.Env(), o.env),
	}
	e.log.Debugf("%s: %s", name, cmdline)

	started := e.now()
	var (
		stdout, stderr string
		exitCode       int
		runErr         error
		logErr         error
	)
	if o.json {
		var outBuf, errBuf bytes.Buffer
		cmd.Stdout, cmd.Stderr = &outBuf, &errBuf
		exitCode, runErr = e.Runner.Run(runCtx, cmd)
		stdout, stderr = validText(outBuf.Bytes()), validText(errBuf.Bytes())
		if err := os.WriteFile(outPath, outBuf.Bytes(), 0o644); err != nil {
			logErr = fmt.Errorf("write stdout log: %w", err)
		}
		if err := os.WriteFile(errPath, errBuf.Bytes(), 0o644); err != nil {
			logErr = errors.Join(logErr, fmt.Errorf("write stderr log: %w", err))
		}
	} else {
		stdout, stderr, exitCode, runErr = e.runStreaming(runCtx, cmd, outPath, errPath)
	}
	duration := e.now().Sub(started)

	timedOut := runErr != nil && timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	if runErr != nil && exitCode == 0 {
		exitCode = -1
	}
	rec := Record{
		Command:    cmdline,
		DurationMS: duration.Milliseconds(),
		ExitCode:   exitCode,
		Name:       name,
		StderrPath: errPath,
		StdoutPath: outPath,
		TimedOut:   timedOut,
	}
	if logErr != nil {
		rec.LogError = logErr.Error()
	}
	if err := WriteRecord(recPath, rec); err != nil {
		return nil, errors.Join(logErr, err)
	}

	res := &Result{
		Name:       name,
		ExitCode:   exitCode,
		Stdout:     stdout,
		Stderr:     stderr,
		Duration:   duration,
		RecordPath: recPath,
	}
	if logErr != nil {
		e.emit(res, cmdline, trace.StatusFailed, logErr.Error())
		return res, fmt.Errorf("step %s: %w", name, logErr)
	}
	base := Failure{Step: name, Command: cmdline, ExitCode: exitCode, Stdout: stdout, Stderr: stderr}

	var fail *Failure
	switch {
	case timedOut:
		fail = &base
		fail.Kind = KindTimeout
		fail.Detail = fmt.Sprintf("timed out after %s", timeout)
		fail.Err = context.DeadlineExceeded
	case runErr != nil && ctx.Err() != nil:
		e.emit(res, cmdline, trace.StatusFailed, "interrupted")
		return res, fmt.Errorf("step %s interrupted: %w", name, ctx.Err())
	case runErr != nil:
		fail = &base
		fail.Kind = KindSpawn
		fail.Err = runErr
	case exitCode != 0 && !o.allowFail:
		fail = &base
		fail.Kind = KindExit
	}
	if fail == nil && o.json {
		v, err := jsonv.Parse([]byte(stdout))
		switch {
		case err == nil:
			res.JSON = v
		case !o.allowFail:
			fail = &base
			fail.Kind = KindProtocol
			fail.Err = err
		}
	}

	if fail != nil {
		e.emit(res, cmdline, trace.StatusFailed, fail.Error())
		return res, fail
	}
	if exitCode != 0 {
		e.log.Warnf("%s exited %d (tolerated)", name, exitCode)
		e.emit(res, cmdline, trace.StatusTolerated, "")
	} else {
		e.log.Debugf("%s ok in %s", name, duration.Round(time.Millisecond))
		e.emit(res, cmdline, trace.StatusSuccess, "")
	}
	return res, nil
}

// runStreaming sends the child's output straight into the log files, then
// reads them back for the result.
func (e *Executor) runStreaming(ctx context.Context, cmd process.Command, outPath, errPath string) (string, string, int, error) {
	outF, err := os.Create(outPath)
	if err != nil {
		return "", "", -1, fmt.Errorf("create stdout log: %w", err)
	}
	errF, err := os.Create(errPath)
	if err != nil {
		outF.Close()
		return "", "", -1, fmt.Errorf("create stderr log: %w", err)
	}
	cmd.Stdout, cmd.Stderr = outF, errF
	code, runErr := e.Runner.Run(ctx, cmd)
	outF.Close()
	errF.Close()

	outData, _ := os.ReadFile(outPath)
	errData, _ := os.ReadFile(errPath)
	return validText(outData), validText(errData), code, runErr
}

// reserve picks a log prefix unique within dir and this executor.
func (e *Executor) reserve(dir, name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	base := fmt.Sprintf("%d-%s", e.now().Unix(), SanitizeName(name))
	prefix := base
	for n := 2; e.taken(dir, prefix); n++ {
		prefix = fmt.Sprintf("%s-%d", base, n)
	}
	e.used[filepath.Join(dir, prefix)] = struct{}{}
	return prefix
}

func (e *Executor) taken(dir, prefix string) bool {
	if _, ok := e.used[filepath.Join(dir, prefix)]; ok {
		return true
	}
	for _, suffix := range []string{RecordSuffix, StdoutSuffix, StderrSuffix} {
		if _, err := os.Lstat(filepath.Join(dir, prefix+suffix)); err == nil {
			return true
		}
	}
	return false
}

func (e *Executor) emit(res *Result, cmdline string, status trace.Status, failure string) {
	if e.Trace == nil {
		return
	}
	if err := e.Trace.EmitStepComplete(trace.StepInfo{
		Name:       res.Name,
		Command:    cmdline,
		ExitCode:   res.ExitCode,
		Duration:   res.Duration,
		RecordPath: res.RecordPath,
		Status:     status,
		Failure:    firstLine(failure),
	}); err != nil {
		e.log.Warnf("trace: %v", err)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
