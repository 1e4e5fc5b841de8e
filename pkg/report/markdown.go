package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown summarizes r as a markdown document.
func (r *Run) Markdown() string {
	var b strings.Builder
	st := r.Stats()
	status := r.Status
	if status == "" {
		status = "unknown (no trace)"
	}

	fmt.Fprintf(&b, "# Run %s\n\n", filepath.Base(r.Dir))
	if r.RunID != "" {
		fmt.Fprintf(&b, "- **Run ID:** `%s`\n", r.RunID)
	}
	fmt.Fprintf(&b, "- **Status:** %s\n", status)
	fmt.Fprintf(&b, "- **Steps:** %d (%d non-zero exit, %d timed out)\n", st.Steps, st.Failed, st.TimedOut)
	if st.Invalid > 0 {
		fmt.Fprintf(&b, "- **Malformed records:** %d\n", st.Invalid)
	}
	if r.Failure != "" {
		fmt.Fprintf(&b, "- **Failure:** %s\n", cell(r.Failure))
	}

	if len(r.Scenarios) > 0 {
		b.WriteString("\n## Scenarios\n\n| Scenario | Status | Duration |\n|---|---|---|\n")
		for _, sc := range r.Scenarios {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(sc.Name), cell(sc.Status), cell(sc.Duration))
		}
	}

	var failed []Step
	for _, s := range r.Steps {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n## Steps with non-zero exit\n\n| Step | Exit | ms | Command |\n|---|---|---|---|\n")
		for _, s := range failed {
			exit := fmt.Sprint(s.Record.ExitCode)
			if s.Record.TimedOut {
				exit += " (timeout)"
			}
			fmt.Fprintf(&b, "| %s | %s | %d | `%s` |\n", cell(s.Record.Name), exit, s.Record.DurationMS, cell(s.Record.Command))
		}
	}

	var invalid []Step
	for _, s := range r.Steps {
		if len(s.Problems) > 0 {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		b.WriteString("\n## Malformed records\n\n")
		for _, s := range invalid {
			fmt.Fprintf(&b, "- `%s`: %s\n", s.File, cell(strings.Join(s.Problems, "; ")))
		}
	}
	return b.String()
}

// cell flattens s for a single table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render styles markdown for the terminal, wrapping at width (0 disables
// wrapping). It falls back to the raw input if rendering fails.
func Render(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
