package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func decodeAll(t *testing.T, data []byte) []Event {
	t.Helper()
	var events []Event
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		events = append(events, e)
	}
	return events
}

func TestEmitWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-1")

	if err := tw.EmitScenarioStart("uc01_chat_retrieval", 1); err != nil {
		t.Fatal(err)
	}
	if err := tw.EmitStepComplete(StepInfo{Name: "status_pre", ExitCode: 0, Duration: time.Second, Status: StatusSuccess}); err != nil {
		t.Fatal(err)
	}

	events := decodeAll(t, buf.Bytes())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventScenarioStart || events[0].RunID != "run-1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Data["step"] != "status_pre" || events[1].Data["status"] != "success" {
		t.Errorf("step data = %v", events[1].Data)
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-1")
	tw.SetSecrets("hf_secret", "")

	_ = tw.EmitStepComplete(StepInfo{
		Name:    "models_download",
		Command: "think models download x --token hf_secret",
		Failure: "rejected hf_secret",
		Status:  StatusFailed,
	})
	if strings.Contains(buf.String(), "hf_secret") {
		t.Errorf("secret leaked: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "<REDACTED>") {
		t.Errorf("no redaction marker: %s", buf.String())
	}
}

func TestNilWriterDiscards(t *testing.T) {
	var tw *Writer
	if err := tw.EmitRunStart("/tmp", "s", nil); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if tw.RedactSecrets("x") != "x" {
		t.Error("nil writer altered text")
	}
}

func TestFileWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	for i := 0; i < 2; i++ {
		tw, err := NewFileWriter(path, "run")
		if err != nil {
			t.Fatal(err)
		}
		_ = tw.EmitRunComplete(StatusSuccess, time.Minute, "")
		if err := tw.Close(); err != nil {
			t.Fatal(err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(decodeAll(t, data)); got != 2 {
		t.Errorf("got %d events after two writers, want 2", got)
	}
}

func TestReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-7")
	if err := tw.EmitScenarioStart("uc01", 1); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("\n")
	if err := tw.EmitScenarioComplete("uc01", StatusFailed, time.Second, "boom"); err != nil {
		t.Fatal(err)
	}

	events, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[1].Type != EventScenarioComplete || events[1].Str("failure") != "boom" || events[1].RunID != "run-7" {
		t.Errorf("event = %+v", events[1])
	}
	if events[0].Str("missing") != "" {
		t.Error("absent member should read as empty")
	}
}

func TestReadReportsBadLine(t *testing.T) {
	_, err := Read(strings.NewReader(`{"type":"run_start"}` + "\n" + "not json\n"))
	if err == nil || !strings.Contains(err.Error(), "trace line 2") {
		t.Fatalf("err = %v", err)
	}
}
