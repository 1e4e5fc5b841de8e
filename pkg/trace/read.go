package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadFile loads every event of a trace file.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes JSONL events from r. Blank lines are skipped; a malformed
// line is an error naming its position.
func Read(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max line

	var events []Event
	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		n++
		if len(line) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(line, &evt); err != nil {
			return events, fmt.Errorf("trace line %d: invalid JSON: %w", n, err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("read trace: %w", err)
	}
	return events, nil
}

// Str returns data member key as a string.
func (e Event) Str(key string) string {
	s, _ := e.Data[key].(string)
	return s
}
