package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// CommandWidth bounds the command column of the plain table.
const CommandWidth = 72

// WriteTable prints one aligned line per step. Widths are measured in
// terminal cells so wide characters in step names keep columns straight.
func (r *Run) WriteTable(w io.Writer) error {
	header := []string{"STEP", "EXIT", "MS", "COMMAND"}
	rows := [][]string{header}
	for _, s := range r.Steps {
		exit := fmt.Sprint(s.Record.ExitCode)
		if s.Record.TimedOut {
			exit += "*"
		}
		if len(s.Problems) > 0 {
			exit += "!"
		}
		rows = append(rows, []string{
			s.Record.Name,
			exit,
			fmt.Sprint(s.Record.DurationMS),
			runewidth.Truncate(s.Record.Command, CommandWidth, "…"),
		})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, c := range row {
			if i == len(row)-1 {
				b.WriteString(c)
				break
			}
			b.WriteString(runewidth.FillRight(c, widths[i]+2))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
