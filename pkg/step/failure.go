package step

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// OutputLimit caps the stdout/stderr excerpts embedded in a Failure.
const OutputLimit = 5000

// Kind classifies a Failure.
type Kind string

const (
	KindExit       Kind = "exit"       // non-zero exit without AllowFail
	KindProtocol   Kind = "protocol"   // JSON requested, stdout unparseable
	KindTimeout    Kind = "timeout"    // deadline exceeded; never tolerated
	KindResolution Kind = "resolution" // an id or candidate could not be determined
	KindSpawn      Kind = "spawn"      // the process could not be started
	KindCheck      Kind = "check"      // a scenario's own post-condition on output
)

// Failure is the error every fatal harness condition surfaces as. Its text
// is what the operator sees on stderr, so it carries the exact command and
// output excerpts.
type Failure struct {
	Kind     Kind
	Step     string
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Detail   string
	Err      error
}

func (f *Failure) Error() string {
	var b strings.Builder
	switch f.Kind {
	case KindExit:
		fmt.Fprintf(&b, "Step %s failed (exit %d).", f.Step, f.ExitCode)
	case KindProtocol:
		fmt.Fprintf(&b, "Step %s expected JSON but could not parse stdout: %v", f.Step, f.Err)
	case KindTimeout:
		fmt.Fprintf(&b, "Step %s %s.", f.Step, f.Detail)
	case KindSpawn:
		fmt.Fprintf(&b, "Step %s could not start: %v", f.Step, f.Err)
	default:
		b.WriteString(f.Detail)
	}
	if f.Command != "" {
		fmt.Fprintf(&b, "\ncmd=%s\nstdout=%s\nstderr=%s",
			f.Command, Truncate(f.Stdout, OutputLimit), Truncate(f.Stderr, OutputLimit))
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Resolutionf builds a resolution Failure.
func Resolutionf(format string, args ...any) *Failure {
	return &Failure{Kind: KindResolution, Detail: fmt.Sprintf(format, args...)}
}

// Checkf builds a check Failure.
func Checkf(format string, args ...any) *Failure {
	return &Failure{Kind: KindCheck, Detail: fmt.Sprintf(format, args...)}
}

// AsFailure unwraps err to a *Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// validText replaces invalid UTF-8 so captured output is always printable.
func validText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
