package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/ormasoftchile/thinkuc/pkg/process"
	"github.com/ormasoftchile/thinkuc/pkg/report"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/step"
	"github.com/ormasoftchile/thinkuc/pkg/trace"
	"github.com/ormasoftchile/thinkuc/pkg/usecases"
	"github.com/spf13/cobra"
)

// --- run ---

var (
	runOnly  []string
	runWhere string
	runPlain bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the use-case scenarios against the think binary",
	Long: "Runs bootstrap, the selected scenarios in catalog order and a closing status\n" +
		"snapshot. The first failure stops the run. On success the log directory is\n" +
		"the only line written to stdout.",
	Args: cobra.NoArgs,
	RunE: runRun,
}

func addRunFlags(c *cobra.Command) {
	c.Flags().StringSliceVar(&runOnly, "only", nil, "Comma-separated scenario names (bootstrap and final status always run)")
	c.Flags().StringVar(&runWhere, "where", "", `Selection condition, e.g. '"gateway" in tags && index > 5'`)
	c.Flags().BoolVar(&runPlain, "plain", false, "Disable colored progress output")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := harness{
		Config:  cfg,
		Only:    runOnly,
		Where:   runWhere,
		Console: report.NewConsole(cmd.ErrOrStderr(), runPlain),
	}
	logDir, err := h.run(ctx)
	if err != nil {
		if logDir != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "logs: %s\n", logDir)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), logDir)
	return nil
}

// harness is one invocation of the scenario run.
type harness struct {
	Config  config.Config
	Only    []string
	Where   string
	Console *report.Console
	// Runner defaults to process.ExecRunner.
	Runner process.Runner
	Now    func() time.Time
}

// run executes the plan and returns the log directory it wrote to. The
// directory is returned with the error when the run got far enough to
// create it.
func (h harness) run(ctx context.Context) (string, error) {
	cfg := h.Config
	if h.Console == nil {
		h.Console = report.NewConsole(io.Discard, true)
	}
	selected, err := scenario.Select(usecases.Catalog(), h.Only, h.Where)
	if err != nil {
		return "", err
	}
	plan := usecases.Plan(selected)

	if _, err := os.Stat(cfg.Binary); err != nil {
		return "", fmt.Errorf("think binary not found at %s; build the target first", cfg.Binary)
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	logDir := filepath.Join(cfg.RunsDir, now().Format("20060102-150405"))
	for _, dir := range []string{logDir, cfg.Workspace, filepath.Dir(cfg.ConfigPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tw, err := trace.NewFileWriter(filepath.Join(logDir, report.TraceFile), runID(logDir))
	if err != nil {
		return logDir, err
	}
	defer tw.Close()
	if cfg.HFToken != "" {
		tw.SetSecrets(cfg.HFToken)
	}

	exec := step.NewExecutor(h.Runner)
	exec.ChatTimeout = cfg.ChatTimeout()
	exec.LegacyZeroTimeout = cfg.LegacyZeroTimeout
	exec.Trace = tw

	rc := runctx.New(runctx.Spec{
		Binary:     cfg.Binary,
		Workspace:  cfg.Workspace,
		Store:      cfg.Store,
		ConfigPath: cfg.ConfigPath,
		LogDir:     logDir,
		Env:        cfg.ChildEnv(os.Environ()),
	})
	log.Named("run").Infof("run %s: %d scenario(s), logs in %s", tw.RunID(), len(plan), logDir)

	driver := &scenario.Driver{Trace: tw, Progress: h.Console}
	rep, err := driver.Run(ctx, scenario.NewSession(exec, rc, cfg), plan)
	if err != nil && rep != nil && len(rep.Outcomes) < len(plan) {
		h.Console.Skipped(plan[len(rep.Outcomes):])
	}
	h.Console.Summary(rep, len(plan))
	return logDir, err
}

// runID stamps trace events: the log directory's timestamp plus a short
// random suffix.
func runID(logDir string) string {
	return filepath.Base(logDir) + "-" + uuid.NewString()[:8]
}
