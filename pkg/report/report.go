// Package report reads a finished run directory back: the per-step records
// (validated against the record schema) and the trace, and renders them for
// the operator.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ormasoftchile/thinkuc/pkg/schema"
	"github.com/ormasoftchile/thinkuc/pkg/step"
	"github.com/ormasoftchile/thinkuc/pkg/trace"
)

// TraceFile is the trace's name inside a run directory.
const TraceFile = "trace.jsonl"

// Step is one step record read from disk.
type Step struct {
	File   string
	Record step.Record
	// Problems lists schema violations; empty for a well-formed record.
	Problems []string
}

// Failed reports a non-zero exit or a timeout.
func (s Step) Failed() bool { return s.Record.ExitCode != 0 || s.Record.TimedOut }

// Scenario is a scenario outcome recovered from the trace.
type Scenario struct {
	Name     string
	Status   string
	Duration string
	Failure  string
}

// Run is everything known about one run directory.
type Run struct {
	Dir       string
	RunID     string
	Status    string
	Failure   string
	Steps     []Step
	Scenarios []Scenario
}

// Stats are the headline counts of a run.
type Stats struct {
	Steps, Failed, TimedOut, Invalid int
}

// Stats counts r's steps.
func (r *Run) Stats() Stats {
	var st Stats
	for _, s := range r.Steps {
		st.Steps++
		if s.Failed() {
			st.Failed++
		}
		if s.Record.TimedOut {
			st.TimedOut++
		}
		if len(s.Problems) > 0 {
			st.Invalid++
		}
	}
	return st
}

var recordValidator = sync.OnceValues(func() (*schema.Validator, error) {
	data, err := step.GenerateRecordSchema()
	if err != nil {
		return nil, err
	}
	return schema.Compile(step.RecordSchemaDoc.Name, data)
})

// Load reads the run directory dir. Records come back in the order the
// trace recorded them; records the trace does not mention (or all of them,
// without a trace) follow in file-name order, which only resolves to the
// second.
func Load(dir string) (*Run, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open run: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open run: %s is not a directory", dir)
	}
	v, err := recordValidator()
	if err != nil {
		return nil, fmt.Errorf("record schema: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"+step.RecordSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	run := &Run{Dir: dir}
	for _, f := range files {
		s, err := loadStep(v, f)
		if err != nil {
			return nil, err
		}
		run.Steps = append(run.Steps, s)
	}

	events, err := trace.ReadFile(filepath.Join(dir, TraceFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		run.applyTrace(events)
		run.orderSteps(events)
	}
	return run, nil
}

// orderSteps sorts r.Steps by the sequence of step_complete events.
func (r *Run) orderSteps(events []trace.Event) {
	seq := make(map[string]int)
	for _, e := range events {
		if e.Type != trace.EventStepComplete {
			continue
		}
		if file := filepath.Base(e.Str("record")); file != "." {
			if _, seen := seq[file]; !seen {
				seq[file] = len(seq)
			}
		}
	}
	rank := func(s Step) int {
		if n, ok := seq[s.File]; ok {
			return n
		}
		return len(seq)
	}
	sort.SliceStable(r.Steps, func(i, j int) bool {
		return rank(r.Steps[i]) < rank(r.Steps[j])
	})
}

func loadStep(v *schema.Validator, path string) (Step, error) {
	s := Step{File: filepath.Base(path)}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read record: %w", err)
	}
	for _, ve := range v.ValidateJSON(data) {
		s.Problems = append(s.Problems, ve.Error())
	}
	rec, err := step.ReadRecord(path)
	if err != nil {
		s.Problems = append(s.Problems, err.Error())
		s.Record.Name = strings.TrimSuffix(s.File, step.RecordSuffix)
		return s, nil
	}
	s.Record = rec
	return s, nil
}

func (r *Run) applyTrace(events []trace.Event) {
	for _, e := range events {
		if r.RunID == "" {
			r.RunID = e.RunID
		}
		switch e.Type {
		case trace.EventScenarioComplete:
			r.Scenarios = append(r.Scenarios, Scenario{
				Name:     e.Str("scenario"),
				Status:   e.Str("status"),
				Duration: e.Str("duration"),
				Failure:  e.Str("failure"),
			})
		case trace.EventRunComplete:
			r.Status = e.Str("status")
			r.Failure = e.Str("failure")
		}
	}
}
