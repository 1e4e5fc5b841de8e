// Package trace writes the run's append-only JSONL event stream
// (trace.jsonl in the run directory), next to the per-step records.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// EventType enumerates the trace event types.
type EventType string

const (
	EventRunStart         EventType = "run_start"
	EventRunComplete      EventType = "run_complete"
	EventScenarioStart    EventType = "scenario_start"
	EventScenarioComplete EventType = "scenario_complete"
	EventStepComplete     EventType = "step_complete"
	EventModelSelected    EventType = "model_selected"
	EventEntityResolved   EventType = "entity_resolved"
)

// Status is the outcome recorded on *_complete events.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusTolerated Status = "tolerated"
)

// Event is a single trace line.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer writes events as JSON lines. A nil *Writer discards everything,
// so callers never need to guard optional tracing.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	runID   string
	enc     *json.Encoder
	secrets []string
	now     func() time.Time
}

// NewWriter creates a trace writer on w.
func NewWriter(w io.Writer, runID string) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{w: w, runID: runID, enc: enc, now: time.Now}
}

// NewFileWriter creates a trace writer appending to path.
func NewFileWriter(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tw := NewWriter(f, runID)
	tw.closer = f
	return tw, nil
}

// RunID returns the identifier stamped on every event.
func (tw *Writer) RunID() string {
	if tw == nil {
		return ""
	}
	return tw.runID
}

// SetSecrets registers literal values to mask in string data.
func (tw *Writer) SetSecrets(values ...string) {
	if tw == nil {
		return
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.secrets = tw.secrets[:0]
	for _, v := range values {
		if v != "" {
			tw.secrets = append(tw.secrets, v)
		}
	}
}

// RedactSecrets replaces registered secret values in s with "<REDACTED>".
func (tw *Writer) RedactSecrets(s string) string {
	if tw == nil {
		return s
	}
	for _, val := range tw.secrets {
		s = strings.ReplaceAll(s, val, "<REDACTED>")
	}
	return s
}

func (tw *Writer) redact(v any) any {
	switch t := v.(type) {
	case string:
		return tw.RedactSecrets(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = tw.RedactSecrets(s)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = tw.redact(e)
		}
		return out
	default:
		return v
	}
}

// Emit writes a single trace event.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	if tw == nil {
		return nil
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()

	evt := Event{
		Type:      eventType,
		Timestamp: tw.now().UTC(),
		RunID:     tw.runID,
	}
	if data != nil {
		evt.Data = tw.redact(data).(map[string]any)
	}
	return tw.enc.Encode(evt)
}

// Close closes the underlying file, if the writer owns one.
func (tw *Writer) Close() error {
	if tw == nil || tw.closer == nil {
		return nil
	}
	return tw.closer.Close()
}

// EmitRunStart emits a run_start event.
func (tw *Writer) EmitRunStart(logDir, store string, scenarios []string) error {
	return tw.Emit(EventRunStart, map[string]any{
		"log_dir":   logDir,
		"store":     store,
		"scenarios": scenarios,
	})
}

// EmitRunComplete emits a run_complete event.
func (tw *Writer) EmitRunComplete(status Status, duration time.Duration, failure string) error {
	data := map[string]any{
		"status":   string(status),
		"duration": duration.String(),
	}
	if failure != "" {
		data["failure"] = failure
	}
	return tw.Emit(EventRunComplete, data)
}

// EmitScenarioStart emits a scenario_start event.
func (tw *Writer) EmitScenarioStart(name string, index int) error {
	return tw.Emit(EventScenarioStart, map[string]any{
		"scenario": name,
		"index":    index,
	})
}

// EmitScenarioComplete emits a scenario_complete event.
func (tw *Writer) EmitScenarioComplete(name string, status Status, duration time.Duration, failure string) error {
	data := map[string]any{
		"scenario": name,
		"status":   string(status),
		"duration": duration.String(),
	}
	if failure != "" {
		data["failure"] = failure
	}
	return tw.Emit(EventScenarioComplete, data)
}

// StepInfo summarizes one step for the trace.
type StepInfo struct {
	Name       string
	Command    string
	ExitCode   int
	Duration   time.Duration
	RecordPath string
	Status     Status
	Failure    string
}

// EmitStepComplete emits a step_complete event.
func (tw *Writer) EmitStepComplete(s StepInfo) error {
	data := map[string]any{
		"step":      s.Name,
		"cmd":       s.Command,
		"exit_code": s.ExitCode,
		"duration":  s.Duration.String(),
		"record":    s.RecordPath,
		"status":    string(s.Status),
	}
	if s.Failure != "" {
		data["failure"] = s.Failure
	}
	return tw.Emit(EventStepComplete, data)
}

// EmitModelSelected emits a model_selected event.
func (tw *Writer) EmitModelSelected(repoID, backend, via string) error {
	return tw.Emit(EventModelSelected, map[string]any{
		"repo_id": repoID,
		"backend": backend,
		"via":     via,
	})
}

// EmitEntityResolved emits an entity_resolved event.
func (tw *Writer) EmitEntityResolved(kind, name, id, via string) error {
	return tw.Emit(EventEntityResolved, map[string]any{
		"kind": kind,
		"name": name,
		"id":   id,
		"via":  via,
	})
}
