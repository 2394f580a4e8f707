// ABOUTME: Root Cobra command for swim CLI.
// ABOUTME: Loads config, builds the logger, and manages the storage lifecycle via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/swim/internal/config"
	"github.com/harperreed/swim/internal/logging"
	"github.com/harperreed/swim/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	repo   storage.Repository
	cfg    *config.Config
	logger = zap.NewNop()

	verbose     bool
	backendFlag string
	dataDirFlag string
)

var (
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	faint   = color.New(color.Faint)
	bold    = color.New(color.Bold)
)

// Commands that do not touch local storage.
var noStorage = map[string]bool{
	"help":       true,
	"version":    true,
	"timecode":   true,
	"migrate":    true,
	"completion": true,
}

var rootCmd = &cobra.Command{
	Use:   "swim",
	Short: "Swim workout planner and live lap timer",
	Long: `Swim is a CLI for building structured swim workouts and timing them live.

WORKOUTS:

  Workouts are trees of steps (warm-up, main set, cool-down, rest) and repeat
  blocks. Write them in YAML and add them to your library:

  $ swim add threshold.yaml          # Add a workout from a file
  $ swim list                        # List workouts with distance and notation
  $ swim workout show abc123         # Show the tree, total and notation
  $ swim workout steps abc123        # Show the unrolled step list

LIVE SESSIONS:

  $ swim session start abc123 -s A -s B   # Time swimmers A and B
  $ swim times def456                     # Review a session's times

  Times are typed as digits and formatted as mm:ss:cc. Try:

  $ swim timecode 0530

STORAGE:

  Backends: sqlite (default), markdown, badger. Set one in
  ~/.config/swim/config.json, with SWIM_BACKEND, or with --backend.
  Data lives under ~/.local/share/swim unless --data-dir says otherwise.

  Set server_url (or SWIM_SERVER_URL) to send session times to a remote
  'swim serve' instance.

MCP INTEGRATION:

  Run 'swim mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "swim": { "command": "swim", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		if noStorage[cmd.Name()] {
			return nil
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		logger.Debug("storage opened",
			zap.String("backend", cfg.GetBackend()),
			zap.String("data_dir", cfg.GetDataDir()))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		if repo != nil {
			err := repo.Close()
			repo = nil
			return err
		}
		return nil
	},
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if backendFlag != "" {
		c.Backend = backendFlag
	}
	if dataDirFlag != "" {
		c.DataDir = dataDirFlag
	}
	return c, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func shortID(id fmt.Stringer) string {
	return id.String()[:8]
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend (sqlite, markdown, badger)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.local/share/swim)")
}
