// ABOUTME: CLI command for migrating data between storage backends.
// ABOUTME: Copies workouts, sessions, and times from one backend to another.
package main

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/harperreed/swim/internal/config"
	"github.com/harperreed/swim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom   string
	migrateTo     string
	migrateDryRun bool
	migrateForce  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between storage backends",
	Long: `Copy all workouts, sessions, and times from one storage backend to
another within the same data directory.

BACKENDS:

  sqlite     <data-dir>/swim.db
  markdown   <data-dir>/workouts and <data-dir>/sessions
  badger     <data-dir>/kv

IMPORTANT:

  - The destination should be empty; a non-empty markdown or badger
    destination is refused unless --force is given
  - Run with --dry-run first to see what would be migrated
  - Update 'backend' in your config (or use --backend) afterwards

USAGE:

  swim migrate --from sqlite --to markdown --dry-run
  swim migrate --from sqlite --to markdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateFrom == migrateTo {
			return fmt.Errorf("--from and --to must differ")
		}
		for _, b := range []string{migrateFrom, migrateTo} {
			if !slices.Contains(config.Backends, b) {
				return fmt.Errorf("unknown backend: %q (use sqlite, markdown, or badger)", b)
			}
		}

		out := cmd.OutOrStdout()
		dataDir := cfg.GetDataDir()

		if !migrateForce && !migrateDryRun {
			if err := checkDestinationEmpty(migrateTo, dataDir); err != nil {
				return err
			}
		}

		srcCfg := *cfg
		srcCfg.Backend = migrateFrom
		src, err := srcCfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", migrateFrom, err)
		}
		defer src.Close()

		if migrateDryRun {
			data, err := src.GetAllData()
			if err != nil {
				return fmt.Errorf("failed to read %s storage: %w", migrateFrom, err)
			}
			warn.Fprintln(out, "Dry run mode - no changes will be made")
			fmt.Fprintf(out, "Would migrate %d workouts, %d sessions, %d times from %s to %s\n",
				len(data.Workouts), len(data.Sessions), len(data.TimeRecords), migrateFrom, migrateTo)
			return nil
		}

		dstCfg := *cfg
		dstCfg.Backend = migrateTo
		dst, err := dstCfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", migrateTo, err)
		}
		defer dst.Close()

		summary, err := storage.MigrateData(src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		success.Fprintf(out, "✓ Migrated %d workouts, %d sessions, %d times from %s to %s\n",
			summary.Workouts, summary.Sessions, summary.TimeRecords, migrateFrom, migrateTo)
		return nil
	},
}

// checkDestinationEmpty refuses to migrate into directory backends that
// already hold data.
func checkDestinationEmpty(backend, dataDir string) error {
	var dirs []string
	switch backend {
	case "markdown":
		dirs = []string{filepath.Join(dataDir, "workouts"), filepath.Join(dataDir, "sessions")}
	case "badger":
		dirs = []string{filepath.Join(dataDir, "kv")}
	}
	for _, dir := range dirs {
		nonEmpty, err := storage.IsDirNonEmpty(dir)
		if err != nil {
			return fmt.Errorf("check %s: %w", dir, err)
		}
		if nonEmpty {
			return fmt.Errorf("destination %s is not empty (use --force to migrate anyway)", dir)
		}
	}
	return nil
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "sqlite", "source backend")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "markdown", "destination backend")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "migrate into a non-empty destination")
	rootCmd.AddCommand(migrateCmd)
}
