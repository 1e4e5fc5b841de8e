package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/ormasoftchile/thinkuc/pkg/trace"
)

// Progress observes a run. Implementations must not block.
type Progress interface {
	Start(index, total int, sc Scenario)
	Done(index, total int, sc Scenario, d time.Duration, err error)
}

// Outcome is the result of one scenario.
type Outcome struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Report summarizes a run. Scenarios after the first failure do not appear.
type Report struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Failed returns the failing outcome, if any.
func (r *Report) Failed() (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return o, true
		}
	}
	return Outcome{}, false
}

// Driver runs scenarios sequentially with no recovery between them.
type Driver struct {
	Trace    *trace.Writer
	Progress Progress

	now func() time.Time
}

func (d *Driver) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

// Run executes list in order and returns at the first error, wrapped with
// the scenario's name. A cancelled ctx stops the run before the next
// scenario.
func (d *Driver) Run(ctx context.Context, s *Session, list []Scenario) (*Report, error) {
	if err := Validate(list); err != nil {
		return nil, err
	}
	logger := log.Named("driver")
	rep := &Report{}
	runStart := d.clock()
	d.emit(d.Trace.EmitRunStart(s.RC.LogDir(), s.RC.Store(), Names(list)))

	for i, sc := range list {
		if err := ctx.Err(); err != nil {
			return d.finish(rep, runStart, fmt.Errorf("run interrupted before %s: %w", sc.Name, err))
		}
		if d.Progress != nil {
			d.Progress.Start(i+1, len(list), sc)
		}
		d.emit(d.Trace.EmitScenarioStart(sc.Name, i+1))
		logger.Debugf("scenario %d/%d %s", i+1, len(list), sc.Name)

		started := d.clock()
		err := sc.Run(ctx, s)
		elapsed := d.clock().Sub(started)
		rep.Outcomes = append(rep.Outcomes, Outcome{Name: sc.Name, Duration: elapsed, Err: err})
		if d.Progress != nil {
			d.Progress.Done(i+1, len(list), sc, elapsed, err)
		}

		if err != nil {
			d.emit(d.Trace.EmitScenarioComplete(sc.Name, trace.StatusFailed, elapsed, firstLine(err.Error())))
			return d.finish(rep, runStart, fmt.Errorf("%s: %w", sc.Name, err))
		}
		d.emit(d.Trace.EmitScenarioComplete(sc.Name, trace.StatusSuccess, elapsed, ""))
	}
	return d.finish(rep, runStart, nil)
}

func (d *Driver) finish(rep *Report, started time.Time, err error) (*Report, error) {
	rep.Duration = d.clock().Sub(started)
	status, failure := trace.StatusSuccess, ""
	if err != nil {
		status, failure = trace.StatusFailed, firstLine(err.Error())
	}
	d.emit(d.Trace.EmitRunComplete(status, rep.Duration, failure))
	return rep, err
}

func (d *Driver) emit(err error) {
	if err != nil {
		log.Warnf("trace: %v", err)
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
