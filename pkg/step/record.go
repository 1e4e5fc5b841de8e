package step

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Record is the metadata persisted for every step as
// <epoch>-<name>.meta.json. Fields are declared in key order so the
// encoded document has sorted keys.
type Record struct {
	Command    string `json:"cmd" jsonschema:"description=Shell-quoted command line"`
	DurationMS int64  `json:"duration_ms" jsonschema:"minimum=0"`
	ExitCode   int    `json:"exit_code" jsonschema:"description=Process exit code; -1 when killed or never started"`
	LogError   string `json:"log_error,omitempty" jsonschema:"description=Why the stdout/stderr logs could not be written"`
	Name       string `json:"name" jsonschema:"minLength=1"`
	StderrPath string `json:"stderr_path"`
	StdoutPath string `json:"stdout_path"`
	TimedOut   bool   `json:"timed_out,omitempty"`
}

// File suffixes of the three per-step artifacts.
const (
	StdoutSuffix = ".out.txt"
	StderrSuffix = ".err.txt"
	RecordSuffix = ".meta.json"
)

// SanitizeName makes a step name safe for a file name.
func SanitizeName(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}

// EncodeRecord renders rec as indented JSON with a trailing newline.
func EncodeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteRecord persists rec at path.
func WriteRecord(path string, rec Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode step record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write step record: %w", err)
	}
	return nil
}

// ReadRecord loads a record written by WriteRecord.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}
