package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"urchin/internal/httputil"
	"urchin/internal/provider"
)

var infoCmd = &cobra.Command{
	Use:   "info <channel>",
	Short: "Show channel metadata without opening the player",
	Args:  cobra.ExactArgs(1),
	RunE:  infoRun,
}

func infoRun(cmd *cobra.Command, args []string) error {
	channel := args[0]
	if err := httputil.ValidateChannel(channel); err != nil {
		return err
	}

	p := provider.NewTwitch(cfg.Base)
	info, err := p.ChannelInfo(channel)
	if err != nil {
		return fmt.Errorf("fetching channel info: %w", err)
	}

	if flagJSON {
		out := map[string]interface{}{
			"login":        info.Login,
			"display_name": info.DisplayName,
			"title":        info.Title,
			"category":     info.Category,
			"live":         info.Live,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	name := info.DisplayName
	if name == "" {
		name = info.Login
	}
	status := "offline"
	if info.Live {
		status = "LIVE"
	}
	fmt.Printf("%s [%s]\n", name, status)
	if info.Title != "" {
		fmt.Printf("  %s\n", info.Title)
	}
	if info.Category != "" {
		fmt.Printf("  Category: %s\n", info.Category)
	}
	return nil
}
