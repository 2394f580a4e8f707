// ABOUTME: Swim configuration management with backend selection.
// ABOUTME: Handles the config file, SWIM_* env overrides, and storage/committer factories.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/swim/internal/backend"
	"github.com/harperreed/swim/internal/session"
	"github.com/harperreed/swim/internal/storage"
	"go.uber.org/zap"
)

// Backends lists the accepted storage backend names.
var Backends = []string{"sqlite", "markdown", "badger"}

// Config stores swim tool configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default), "markdown", or "badger".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// SQLite puts swim.db here, markdown puts workouts/ and sessions/ folders
	// here, and Badger keeps its files under kv/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/swim.
	DataDir string `json:"data_dir,omitempty"`

	// ServerURL, when set, sends committed times to a remote swim server
	// instead of local storage.
	ServerURL string `json:"server_url,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	backend := c.GetBackend()
	dataDir := c.GetDataDir()

	switch backend {
	case "sqlite":
		return storage.Open(filepath.Join(dataDir, "swim.db"))
	case "markdown":
		return storage.NewMarkdownStore(dataDir)
	case "badger":
		return storage.OpenKV(filepath.Join(dataDir, "kv"))
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// Committer returns where a live session sends committed times: the remote
// server when ServerURL is set, otherwise repo.
func (c *Config) Committer(repo storage.Repository, log *zap.Logger) session.Committer {
	if c.ServerURL != "" {
		return backend.NewClient(c.ServerURL, log)
	}
	return storage.NewCommitter(repo)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "swim", "config.json")
}

// Load reads config from disk and applies SWIM_* environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SWIM_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("SWIM_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SWIM_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
