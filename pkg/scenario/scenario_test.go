package scenario

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/process/processtest"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/step"
	"github.com/ormasoftchile/thinkuc/pkg/trace"
)

func newSession(t *testing.T, script *processtest.Script) *Session {
	t.Helper()
	cfg := config.Default(t.TempDir())
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	rc := runctx.New(runctx.Spec{Binary: "think", Workspace: t.TempDir(), Store: "main", LogDir: t.TempDir()})
	return NewSession(step.NewExecutor(script), rc, cfg)
}

type recorder struct {
	started, done []string
}

func (r *recorder) Start(_, _ int, sc Scenario) { r.started = append(r.started, sc.Name) }
func (r *recorder) Done(_, _ int, sc Scenario, _ time.Duration, _ error) {
	r.done = append(r.done, sc.Name)
}

func TestFatalStepStopsScenario(t *testing.T) {
	script := processtest.New().On(processtest.Response{ExitCode: 1, Stderr: "broken"}, "status")
	s := newSession(t, script)

	body := func(ctx context.Context, s *Session) error {
		if _, err := s.Step(ctx, "one", "doctor"); err != nil {
			return err
		}
		if _, err := s.JSON(ctx, "two", "status", "--format", "json"); err != nil {
			return err
		}
		_, err := s.Step(ctx, "three", "config", "show")
		return err
	}
	rec := &recorder{}
	d := &Driver{Progress: rec}
	rep, err := d.Run(context.Background(), s, []Scenario{
		{Name: "uc_a", Run: body},
		{Name: "uc_b", Run: func(ctx context.Context, s *Session) error {
			_, err := s.Step(ctx, "never", "models", "list")
			return err
		}},
	})

	f, ok := step.AsFailure(err)
	if !ok || f.Kind != step.KindExit || f.Step != "two" {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(err.Error(), "uc_a: Step two failed (exit 1).") {
		t.Errorf("message = %q", err.Error())
	}
	if script.Count("config", "show") != 0 {
		t.Error("step three ran after a fatal step two")
	}
	if script.Count("models", "list") != 0 {
		t.Error("second scenario ran after a failure")
	}
	if len(rep.Outcomes) != 1 {
		t.Errorf("outcomes = %v", rep.Outcomes)
	}
	if o, ok := rep.Failed(); !ok || o.Name != "uc_a" {
		t.Errorf("Failed() = %v, %v", o, ok)
	}
	if strings.Join(rec.done, ",") != "uc_a" {
		t.Errorf("progress saw %v", rec.done)
	}
}

func TestDriverRunsInOrderAndTraces(t *testing.T) {
	s := newSession(t, processtest.New())
	var buf bytes.Buffer
	tw := trace.NewWriter(&buf, "run-x")

	var order []string
	mk := func(name string) Scenario {
		return Scenario{Name: name, Run: func(context.Context, *Session) error {
			order = append(order, name)
			return nil
		}}
	}
	rep, err := (&Driver{Trace: tw}).Run(context.Background(), s, []Scenario{mk("bootstrap"), mk("uc01"), mk("uc02")})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "bootstrap,uc01,uc02" {
		t.Errorf("order = %v", order)
	}
	if _, failed := rep.Failed(); failed {
		t.Error("unexpected failure")
	}
	out := buf.String()
	for _, want := range []string{`"run_start"`, `"scenario_complete"`, `"run_complete"`, `"status":"success"`} {
		if !strings.Contains(out, want) {
			t.Errorf("trace lacks %s", want)
		}
	}
}

func TestDriverStopsOnCancel(t *testing.T) {
	s := newSession(t, processtest.New())
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	list := []Scenario{
		{Name: "a", Run: func(context.Context, *Session) error { ran++; cancel(); return nil }},
		{Name: "b", Run: func(context.Context, *Session) error { ran++; return nil }},
	}
	_, err := (&Driver{}).Run(ctx, s, list)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if ran != 1 {
		t.Errorf("ran %d scenarios", ran)
	}
}

func TestValidateCatalog(t *testing.T) {
	noop := func(context.Context, *Session) error { return nil }
	if err := Validate([]Scenario{{Name: "a", Run: noop}, {Name: "a", Run: noop}}); err == nil {
		t.Error("duplicate accepted")
	}
	if err := Validate([]Scenario{{Name: "a"}}); err == nil {
		t.Error("missing body accepted")
	}
	if err := Validate([]Scenario{{Name: "a", Run: noop}}); err != nil {
		t.Error(err)
	}
}

func TestWithStoreIsolatesOnlyTheStore(t *testing.T) {
	script := processtest.New()
	s := newSession(t, script)
	iso := s.WithStore("codex-uc27")

	if _, err := iso.JSON(context.Background(), "store_path", "store", "path", "--format", "json"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.JSON(context.Background(), "status", "status", "--format", "json"); err != nil {
		t.Fatal(err)
	}
	if c, _ := script.Find("store", "path"); !processtest.Contains(c.Args, "--store", "codex-uc27") {
		t.Errorf("isolated call args = %v", c.Args)
	}
	if c, _ := script.Find("status"); !processtest.Contains(c.Args, "--store", "main") {
		t.Errorf("main call args = %v", c.Args)
	}
	if iso.Entities.RC.Store() != "codex-uc27" {
		t.Error("entity helpers still target the main store")
	}
}

func TestSendArgs(t *testing.T) {
	got := strings.Join(SendArgs("c1", "hi", "--no-tools"), " ")
	want := "chat send --session c1 --prompt hi --no-tools --no-stream --format json"
	if got != want {
		t.Errorf("SendArgs = %q", got)
	}
}
