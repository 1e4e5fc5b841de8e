package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/thinkuc/pkg/scenario"
)

// Status glyphs convey meaning without relying on color alone.
const (
	GlyphCurrent = "▸"
	GlyphPassed  = "✓"
	GlyphFailed  = "✗"
	GlyphSkipped = "⏭"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorDim    = lipgloss.Color("240")
)

// Console prints scenario progress on a terminal stream. It implements
// scenario.Progress.
type Console struct {
	mu sync.Mutex
	w  io.Writer

	current, passed, failed, skipped, dim, count lipgloss.Style
}

// NewConsole writes progress to w; plain disables styling.
func NewConsole(w io.Writer, plain bool) *Console {
	c := &Console{w: w}
	if plain {
		return c
	}
	r := lipgloss.NewRenderer(w)
	c.current = r.NewStyle().Bold(true).Foreground(colorYellow)
	c.passed = r.NewStyle().Foreground(colorGreen)
	c.failed = r.NewStyle().Bold(true).Foreground(colorRed)
	c.skipped = r.NewStyle().Faint(true)
	c.dim = r.NewStyle().Foreground(colorDim)
	c.count = r.NewStyle().Foreground(colorBlue)
	return c
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) Start(index, total int, sc scenario.Scenario) {
	c.printf("%s %s %s  %s\n",
		c.current.Render(GlyphCurrent),
		c.count.Render(fmt.Sprintf("[%d/%d]", index, total)),
		c.current.Render(sc.Name),
		c.dim.Render(sc.Description))
}

func (c *Console) Done(_, _ int, sc scenario.Scenario, d time.Duration, err error) {
	elapsed := c.dim.Render("(" + d.Round(time.Millisecond).String() + ")")
	if err == nil {
		c.printf("%s %s %s\n", c.passed.Render(GlyphPassed), c.passed.Render(sc.Name), elapsed)
		return
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	c.printf("%s %s %s\n  %s\n", c.failed.Render(GlyphFailed), c.failed.Render(sc.Name), elapsed, msg)
}

// Skipped lists the scenarios a failure prevented from running.
func (c *Console) Skipped(list []scenario.Scenario) {
	for _, sc := range list {
		c.printf("%s %s\n", c.skipped.Render(GlyphSkipped), c.skipped.Render(sc.Name))
	}
}

// Summary prints the closing line for rep out of total planned scenarios.
func (c *Console) Summary(rep *scenario.Report, total int) {
	if rep == nil {
		return
	}
	ran := len(rep.Outcomes)
	if o, ok := rep.Failed(); ok {
		c.printf("%s %d/%d scenarios ran, %s failed after %s\n",
			c.failed.Render(GlyphFailed), ran, total, o.Name, rep.Duration.Round(time.Second))
		return
	}
	c.printf("%s %d/%d scenarios passed in %s\n",
		c.passed.Render(GlyphPassed), ran, total, rep.Duration.Round(time.Second))
}
