package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/thinkuc/pkg/mcp"
	"github.com/ormasoftchile/thinkuc/pkg/report"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/store"
	"github.com/ormasoftchile/thinkuc/pkg/usecases"
	"github.com/spf13/cobra"
)

// --- list ---

var (
	listOnly  []string
	listWhere string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the scenario catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := usecases.Catalog()
		selected, err := scenario.Select(all, listOnly, listWhere)
		if err != nil {
			return err
		}
		printCatalog(cmd, all, selected)
		return nil
	},
}

const descriptionWidth = 48

func printCatalog(cmd *cobra.Command, all, selected []scenario.Scenario) {
	position := make(map[string]int, len(all))
	for i, sc := range all {
		position[sc.Name] = i + 1
	}
	w := cmd.OutOrStdout()
	for _, sc := range selected {
		desc := runewidth.Truncate(sc.Description, descriptionWidth, "…")
		fmt.Fprintf(w, "%2d  %-5s  %s  %s\n",
			position[sc.Name], sc.Name, runewidth.FillRight(desc, descriptionWidth), strings.Join(sc.Tags, ","))
	}
}

// --- report ---

var (
	reportPlain bool
	reportJSON  bool
)

var reportCmd = &cobra.Command{
	Use:   "report <log-dir>",
	Short: "Summarize the records of a past run",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	run, err := report.Load(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	switch {
	case reportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case reportPlain:
		return run.WriteTable(w)
	default:
		fmt.Fprint(w, report.Render(run.Markdown(), 100))
		return nil
	}
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:       "schema <" + strings.Join(report.SchemaKinds(), "|") + ">",
	Short:     "Print a JSON Schema for the settings file or the step record",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: report.SchemaKinds(),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := report.Schema(args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// --- reset ---

var resetDryRun bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the files backing the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var paths []string
		if resetDryRun {
			paths = store.Present(cfg.SupportRoot, cfg.Store)
		} else {
			paths = store.Reset(cfg.SupportRoot, cfg.Store)
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the catalog, schema and report tools over MCP (stdio)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.ServeStdio(mcp.NewServer(version))
	},
}
