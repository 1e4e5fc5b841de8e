// Package main provides the thinkuc binary, which drives the think CLI
// through its use-case scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// .env is gitignored; it never overrides the real environment.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "thinkuc",
	Short: "Use-case scenario harness for the think CLI",
	Long: "thinkuc drives a locally built think binary through its use-case scenarios,\n" +
		"recording every step under a per-run log directory. Without a subcommand it runs.",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRun,
}

// Configuration overrides shared by every subcommand.
var (
	overrides   config.Overrides
	chatTimeout int
)

// loadConfig resolves the configuration with the command line on top and
// applies its log level.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	o := overrides
	if cmd.Flags().Changed("chat-timeout") {
		o.ChatTimeout = &chatTimeout
	}
	cfg, err := config.Load(o)
	if err != nil {
		return config.Config{}, err
	}
	log.SetLevel(cfg.LogLevel)
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "thinkuc %s (build: %s)\n", version, commit)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&overrides.ConfigFile, "config", "", "Harness settings file (default <project-dir>/"+config.DefaultFile+" when present)")
	pf.StringVar(&overrides.ProjectDir, "project-dir", "", "Target checkout; relative paths resolve against it (default: working directory)")
	pf.StringVar(&overrides.Binary, "binary", "", "think executable (default <project-dir>/.build/debug/think)")
	pf.StringVar(&overrides.Workspace, "workspace", "", "Workspace the target operates on")
	pf.StringVar(&overrides.Store, "store", "", "Store identifier passed as --store")
	pf.StringVar(&overrides.RunsDir, "runs-dir", "", "Parent of the per-run log directories")
	pf.StringVar(&overrides.SupportRoot, "support-root", "", "Directory holding the target's store files")
	pf.StringVar(&overrides.ModelsRoot, "models-root", "", "Directory holding downloaded models")
	pf.StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.IntVar(&chatTimeout, "chat-timeout", 0, "Default chat send timeout in seconds (0 disables)")

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		addRunFlags(c)
	}
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "Print a plain step table instead of rendered markdown")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the loaded run as JSON")
	listCmd.Flags().StringSliceVar(&listOnly, "only", nil, "Comma-separated scenario names")
	listCmd.Flags().StringVar(&listWhere, "where", "", "Selection condition over name, description, tags and index")
	resetCmd.Flags().BoolVar(&resetDryRun, "dry-run", false, "List the store files without removing them")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
