// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"urchin/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagVideo      string
	flagCollection string
	flagTimestamp  float64
	flagQuality    string
	flagEngine     string
	flagRecord     string
	flagWidth      string
	flagHeight     string
	flagJSON       bool
	flagDebug      bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "urchin [channel]",
	Short: "Watch Twitch streams from the terminal",
	Long: `Urchin is a terminal Twitch client.
Watch live channels, VODs and collections with mpv, or record them with ffmpeg.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              watchRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagVideo, "video", "v", "", "Watch a VOD by video ID")
	rootCmd.PersistentFlags().StringVarP(&flagCollection, "collection", "c", "", "Watch the first video of a collection")
	rootCmd.PersistentFlags().Float64VarP(&flagTimestamp, "timestamp", "t", 0, "Start position in seconds (VODs only)")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Stream quality: best | 1080p60 | 1080p | 720p60 | 720p | 480p | 360p | 160p | audio_only | worst")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "Playback engine binary (default: mpv)")
	rootCmd.PersistentFlags().StringVarP(&flagRecord, "record", "r", "", "Record to directory instead of playing")
	rootCmd.PersistentFlags().StringVar(&flagWidth, "width", "", "Player window width, pixels or percent")
	rootCmd.PersistentFlags().StringVar(&flagHeight, "height", "", "Player window height, pixels or percent")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output stream metadata as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagEngine != "" {
		cfg.Engine = flagEngine
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagWidth != "" {
		cfg.Width = flagWidth
	}
	if flagHeight != "" {
		cfg.Height = flagHeight
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		log.SetOutput(os.Stderr)
		log.SetPrefix("[urchin] ")
	} else {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
	}

	return nil
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		log.Printf(format, args...)
	}
}
