// Package config handles TOML-based configuration loading and validation.
// Config is parsed as data only; nothing in it is ever executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
)

// Config holds all application configuration.
type Config struct {
	Base      string  `toml:"base"`       // provider host, e.g. "twitch.tv"
	Engine    string  `toml:"engine"`     // player engine binary name
	Quality   string  `toml:"quality"`    // preferred stream quality
	Volume    float64 `toml:"volume"`     // initial volume, 0.0..1.0
	Width     string  `toml:"width"`      // player surface width, CSS-like value
	Height    string  `toml:"height"`     // player surface height, CSS-like value
	History   bool    `toml:"history"`    // record watched channels
	RecordDir string  `toml:"record_dir"` // default directory for --record
	Debug     bool    `toml:"debug"`
}

// validQualities is the quality ladder accepted in config and flags.
var validQualities = []string{
	"best", "1080p60", "1080p", "720p60", "720p", "480p", "360p", "160p", "audio_only", "worst",
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:      "twitch.tv",
		Engine:    "mpv",
		Quality:   "best",
		Volume:    1.0,
		Width:     "100%",
		Height:    "100%",
		History:   true,
		RecordDir: "~/Videos/urchin",
		Debug:     false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "urchin"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "urchin"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine cannot be empty")
	}

	if !lo.Contains(validQualities, strings.ToLower(c.Quality)) {
		return fmt.Errorf("unsupported quality %q (valid: %s)", c.Quality, strings.Join(validQualities, ", "))
	}

	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume %v out of range [0, 1]", c.Volume)
	}

	if c.Base == "" {
		return fmt.Errorf("base host cannot be empty")
	}

	if c.Width == "" || c.Height == "" {
		return fmt.Errorf("width and height cannot be empty")
	}

	return nil
}

// ExpandRecordDir resolves ~ in the recording directory path.
func (c *Config) ExpandRecordDir() (string, error) {
	dir := c.RecordDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the watch history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "urchin", "history.db"), nil
}
