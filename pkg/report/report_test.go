package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/step"
	"github.com/ormasoftchile/thinkuc/pkg/trace"
)

func writeRecord(t *testing.T, dir, prefix string, rec step.Record) {
	t.Helper()
	rec.StdoutPath = filepath.Join(dir, prefix+step.StdoutSuffix)
	rec.StderrPath = filepath.Join(dir, prefix+step.StderrSuffix)
	if err := step.WriteRecord(filepath.Join(dir, prefix+step.RecordSuffix), rec); err != nil {
		t.Fatal(err)
	}
}

func sampleRun(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeRecord(t, dir, "1700000000-status_pre", step.Record{Name: "status_pre", Command: "think status --format json", DurationMS: 40})
	writeRecord(t, dir, "1700000001-chat_send_uc1", step.Record{Name: "chat_send_uc1", Command: "think chat send | tee", DurationMS: 1800000, ExitCode: -1, TimedOut: true})
	writeRecord(t, dir, "1700000002-config_set_skills_empty", step.Record{Name: "config_set_skills_empty", Command: "think config set", DurationMS: 12, ExitCode: 2})
	if err := os.WriteFile(filepath.Join(dir, "1700000003-broken.meta.json"), []byte(`{"cmd":"x"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tw, err := trace.NewFileWriter(filepath.Join(dir, TraceFile), "run-abc")
	if err != nil {
		t.Fatal(err)
	}
	tw.EmitScenarioComplete("bootstrap", trace.StatusSuccess, 2*time.Second, "")
	tw.EmitScenarioComplete("uc01", trace.StatusFailed, time.Minute, "Step chat_send_uc1 timed out after 30m0s.")
	tw.EmitRunComplete(trace.StatusFailed, time.Minute, "uc01: Step chat_send_uc1 timed out after 30m0s.")
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	run, err := Load(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Steps) != 4 || run.Steps[0].Record.Name != "status_pre" {
		t.Fatalf("steps = %+v", run.Steps)
	}
	st := run.Stats()
	if st != (Stats{Steps: 4, Failed: 2, TimedOut: 1, Invalid: 1}) {
		t.Errorf("stats = %+v", st)
	}
	broken := run.Steps[3]
	if len(broken.Problems) == 0 {
		t.Error("record missing required members passed validation")
	}
	if run.RunID != "run-abc" || run.Status != "failed" || len(run.Scenarios) != 2 {
		t.Errorf("run = %+v", run)
	}
	if run.Scenarios[1].Failure == "" {
		t.Error("scenario failure lost")
	}
}

func TestLoadWithoutTrace(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "1-doctor_pre", step.Record{Name: "doctor_pre", Command: "think doctor"})
	run, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != "" || len(run.Steps) != 1 || len(run.Steps[0].Problems) != 0 {
		t.Errorf("run = %+v", run)
	}
	if !strings.Contains(run.Markdown(), "unknown (no trace)") {
		t.Error("markdown should flag the missing trace")
	}
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestMarkdown(t *testing.T) {
	run, err := Load(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}
	md := run.Markdown()
	for _, want := range []string{
		"- **Status:** failed",
		"- **Steps:** 4 (2 non-zero exit, 1 timed out)",
		"| uc01 | failed | 1m0s |",
		"| chat_send_uc1 | -1 (timeout) | 1800000 | `think chat send \\| tee` |",
		"| config_set_skills_empty | 2 |",
		"## Malformed records",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown lacks %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "| status_pre |") {
		t.Error("successful step listed among failures")
	}
	if Render(md, 80) == "" {
		t.Error("render produced nothing")
	}
}

func TestWriteTableAlignsWideNames(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "1-a", step.Record{Name: "rag_index_設計.md", Command: "think rag index", DurationMS: 5})
	writeRecord(t, dir, "2-b", step.Record{Name: "status", Command: strings.Repeat("x", 200), DurationMS: 7})
	run, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := run.WriteTable(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	col := func(line string) int {
		i := strings.Index(line, "EXIT")
		if i < 0 {
			i = strings.IndexAny(line, "0123456789")
		}
		return runewidth.StringWidth(line[:i])
	}
	if col(lines[0]) != col(lines[1]) || col(lines[1]) != col(lines[2]) {
		t.Errorf("exit column misaligned:\n%s", buf.String())
	}
	if !strings.HasSuffix(lines[2], "…") || runewidth.StringWidth(lines[2]) > 120 {
		t.Errorf("long command not truncated: %q", lines[2])
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	var _ scenario.Progress = c

	a := scenario.Scenario{Name: "uc01", Description: "bootstrap check"}
	b := scenario.Scenario{Name: "uc02"}
	c.Start(1, 3, a)
	c.Done(1, 3, a, 1500*time.Millisecond, nil)
	c.Start(2, 3, b)
	c.Done(2, 3, b, time.Second, errors.New("Step x failed (exit 1).\ncmd=think x"))
	c.Skipped([]scenario.Scenario{{Name: "uc03"}})
	c.Summary(&scenario.Report{Outcomes: []scenario.Outcome{{Name: "uc01"}, {Name: "uc02", Err: errors.New("x")}}}, 3)

	out := buf.String()
	for _, want := range []string{
		"▸ [1/3] uc01  bootstrap check",
		"✓ uc01 (1.5s)",
		"✗ uc02 (1s)\n  Step x failed (exit 1).\n",
		"⏭ uc03",
		"2/3 scenarios ran, uc02 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "cmd=think") {
		t.Error("console should show only the first line of a failure")
	}
}

func TestSchema(t *testing.T) {
	for _, kind := range SchemaKinds() {
		data, err := Schema(kind)
		if err != nil || !bytes.Contains(data, []byte(`"$schema"`)) {
			t.Errorf("%s: %v", kind, err)
		}
	}
	if _, err := Schema("runbook"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestLoadOrdersStepsByTrace(t *testing.T) {
	dir := t.TempDir()
	tw, err := trace.NewFileWriter(filepath.Join(dir, TraceFile), "run-seq")
	if err != nil {
		t.Fatal(err)
	}
	// All four ran within one second, so file names alone sort them wrongly.
	ran := []struct{ prefix, name string }{
		{"1700000000-zeta", "zeta"},
		{"1700000000-chat_create", "chat_create"},
		{"1700000000-chat_create-2", "chat_create"},
		{"1700000000-alpha", "alpha"},
	}
	for _, r := range ran {
		writeRecord(t, dir, r.prefix, step.Record{Name: r.name, Command: "think " + r.name})
		tw.EmitStepComplete(trace.StepInfo{
			Name:       r.name,
			RecordPath: filepath.Join(dir, r.prefix+step.RecordSuffix),
			Status:     trace.StatusSuccess,
		})
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	run, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Steps) != len(ran) {
		t.Fatalf("got %d steps", len(run.Steps))
	}
	for i, r := range ran {
		if want := r.prefix + step.RecordSuffix; run.Steps[i].File != want {
			t.Errorf("step %d = %s, want %s", i, run.Steps[i].File, want)
		}
	}
}

func TestLoadWithoutStepEventsKeepsFileOrder(t *testing.T) {
	run, err := Load(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}
	if run.Steps[0].File != "1700000000-status_pre.meta.json" || run.Steps[3].File != "1700000003-broken.meta.json" {
		t.Errorf("steps = %s .. %s", run.Steps[0].File, run.Steps[3].File)
	}
}
