package jsonv

import (
	"encoding/json"
	"strings"
)

// Lines parses newline-delimited JSON. Blank lines are skipped and lines
// that do not parse are dropped.
func Lines(out string) []Value {
	var vals []Value
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !json.Valid([]byte(line)) {
			continue
		}
		v, err := Parse([]byte(line))
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// CountLines counts the parseable lines of newline-delimited JSON output.
func CountLines(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && json.Valid([]byte(line)) {
			n++
		}
	}
	return n
}
