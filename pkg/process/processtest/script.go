// Package processtest provides a scripted process.Runner for tests that
// exercise the harness without the target program installed.
package processtest

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ormasoftchile/thinkuc/pkg/process"
)

// Response is the canned outcome of one invocation.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Delay holds the invocation open; it is cut short by the caller's
	// context, which then surfaces as a context error.
	Delay time.Duration
	// Err simulates a start failure.
	Err error
}

// Handler builds a Response from the invocation's argv (binary excluded).
type Handler func(args []string) Response

// Call records one invocation.
type Call struct {
	Path string
	Args []string
	Env  []string
}

type rule struct {
	words  []string
	handle Handler
}

// Script matches invocations against registered word sequences. The first
// rule whose words appear contiguously in the argv wins; unmatched
// invocations get Fallback.
type Script struct {
	Fallback Response

	mu    sync.Mutex
	rules []rule
	calls []Call
}

// New returns a Script whose fallback prints an empty JSON object.
func New() *Script {
	return &Script{Fallback: Response{Stdout: "{}\n"}}
}

// On registers a fixed response for invocations containing words.
func (s *Script) On(resp Response, words ...string) *Script {
	return s.OnFunc(func([]string) Response { return resp }, words...)
}

// OnJSON registers a successful response printing body.
func (s *Script) OnJSON(body string, words ...string) *Script {
	return s.On(Response{Stdout: body + "\n"}, words...)
}

// OnFunc registers a dynamic handler for invocations containing words.
func (s *Script) OnFunc(h Handler, words ...string) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{words: words, handle: h})
	return s
}

// Run implements process.Runner.
func (s *Script) Run(ctx context.Context, cmd process.Command) (int, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Path: cmd.Path, Args: slices.Clone(cmd.Args), Env: slices.Clone(cmd.Env)})
	h := s.lookup(cmd.Args)
	s.mu.Unlock()

	resp := s.Fallback
	if h != nil {
		resp = h(cmd.Args)
	}
	if resp.Err != nil {
		return -1, resp.Err
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return -1, fmt.Errorf("scripted command stopped: %w", ctx.Err())
		}
	}
	if err := write(cmd.Stdout, resp.Stdout); err != nil {
		return -1, err
	}
	if err := write(cmd.Stderr, resp.Stderr); err != nil {
		return -1, err
	}
	return resp.ExitCode, nil
}

func (s *Script) lookup(args []string) Handler {
	for _, r := range s.rules {
		if Contains(args, r.words...) {
			return r.handle
		}
	}
	return nil
}

// Calls returns every invocation so far.
func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns how many invocations contained words.
func (s *Script) Count(words ...string) int {
	n := 0
	for _, c := range s.Calls() {
		if Contains(c.Args, words...) {
			n++
		}
	}
	return n
}

// Find returns the first invocation containing words.
func (s *Script) Find(words ...string) (Call, bool) {
	for _, c := range s.Calls() {
		if Contains(c.Args, words...) {
			return c, true
		}
	}
	return Call{}, false
}

// Contains reports whether words occur contiguously in args.
func Contains(args []string, words ...string) bool {
	if len(words) == 0 {
		return true
	}
	for i := 0; i+len(words) <= len(args); i++ {
		if slices.Equal(args[i:i+len(words)], words) {
			return true
		}
	}
	return false
}

// Flag returns the value following name in args.
func Flag(args []string, name string) (string, bool) {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1], true
		}
	}
	return "", false
}

// String renders a call for failure messages.
func (c Call) String() string {
	return strings.Join(c.Args, " ")
}

func write(w io.Writer, s string) error {
	if w == nil || s == "" {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}
