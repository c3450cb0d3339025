package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"urchin/internal/config"
	"urchin/internal/history"
	"urchin/internal/ui"
)

var flagForget string

var historyCmd = &cobra.Command{
	Use:   "history [n]",
	Short: "List recently watched channels, or rewatch the nth one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().StringVar(&flagForget, "forget", "", "Remove a channel from the history")
}

func historyRun(cmd *cobra.Command, args []string) error {
	path, err := config.HistoryPath()
	if err != nil {
		return fmt.Errorf("locating history: %w", err)
	}
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	if flagForget != "" {
		return store.Remove(flagForget)
	}

	entries, err := store.Recent(20)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	// urchin history <n> rewatches the nth most recent channel.
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(entries) {
			return fmt.Errorf("invalid history index %q (1-%d)", args[0], len(entries))
		}
		selected := entries[n-1]
		store.Close()
		debugf("rewatching: %s", selected.Channel)
		return ui.Run(cfg, ui.Options{Channel: selected.Channel})
	}

	for i, e := range entries {
		when := time.UnixMilli(e.WatchedAt).Format("2006-01-02 15:04")
		if e.Title != "" && e.Title != e.Channel {
			fmt.Printf("%2d. %-25s %s  %s\n", i+1, e.Channel, when, e.Title)
		} else {
			fmt.Printf("%2d. %-25s %s\n", i+1, e.Channel, when)
		}
	}
	return nil
}
