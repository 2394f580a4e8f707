// ABOUTME: CLI commands for exporting and importing swim data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/swim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export swim data",
	Long: `Export swim data in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable, same content as json)
  markdown   Printable workout sheets with session time tables

OPTIONS:

  --output, -o   Write to file instead of stdout

EXAMPLES:

  swim export json                        # Export all data as JSON
  swim export json -o backup.json         # Save to file
  swim export yaml                        # Export as YAML
  swim export markdown -o workouts.md     # Printable sheets`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = storage.ExportJSON(repo)
		case "yaml":
			data, err = storage.ExportYAML(repo)
		case "markdown":
			var md string
			md, err = storage.ExportMarkdown(repo)
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			success.Fprintf(out, "✓ Exported to %s\n", exportOutput)
		} else {
			fmt.Fprintln(out, string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import swim data from a JSON or YAML export",
	Long: `Import swim data from a file written by 'swim export json' or
'swim export yaml'. Files ending in .yaml or .yml are read as YAML.

This imports workouts, sessions, and times. Duplicate entries (same ID)
will cause an error.

EXAMPLES:

  swim import backup.json
  swim import backup.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			err = storage.ImportYAML(repo, data)
		default:
			err = storage.ImportJSON(repo, data)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		success.Fprintf(cmd.OutOrStdout(), "✓ Imported from %s\n", filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
