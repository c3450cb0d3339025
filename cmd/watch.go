package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"urchin/internal/httputil"
	"urchin/internal/media"
	"urchin/internal/provider"
	"urchin/internal/record"
	"urchin/internal/ui"
)

// watchRun is the default command: urchin <channel>
func watchRun(cmd *cobra.Command, args []string) error {
	channel := ""
	if len(args) > 0 {
		channel = args[0]
		if err := httputil.ValidateChannel(channel); err != nil {
			return err
		}
	}

	if flagVideo != "" {
		if err := httputil.ValidateVideoID(flagVideo); err != nil {
			return err
		}
	}
	if flagCollection != "" {
		if err := httputil.ValidateCollectionID(flagCollection); err != nil {
			return err
		}
	}

	// Record and JSON modes resolve the stream directly, without a player.
	if flagRecord != "" || flagJSON {
		stream, err := resolveStream(channel)
		if err != nil {
			return err
		}
		if flagJSON {
			return printStreamJSON(stream)
		}
		return recordStream(stream)
	}

	if !isTerminal() {
		return fmt.Errorf("urchin needs an interactive terminal; use --json or --record for scripted use")
	}

	debugf("watching channel=%q video=%q collection=%q", channel, flagVideo, flagCollection)

	return ui.Run(cfg, ui.Options{
		Channel:    channel,
		Video:      flagVideo,
		Collection: flagCollection,
		Timestamp:  flagTimestamp,
	})
}

// resolveStream resolves the selected content to a playable stream URL.
func resolveStream(channel string) (*media.Stream, error) {
	p := provider.NewTwitch(cfg.Base)

	switch {
	case channel != "":
		return p.ResolveChannel(channel, cfg.Quality)
	case flagVideo != "":
		return p.ResolveVideo(flagVideo, cfg.Quality)
	case flagCollection != "":
		return p.ResolveCollection(flagCollection, cfg.Quality)
	}
	return nil, fmt.Errorf("no channel, video or collection given")
}

func printStreamJSON(stream *media.Stream) error {
	out := map[string]interface{}{
		"title":   stream.Title,
		"url":     stream.URL,
		"kind":    stream.Kind.String(),
		"quality": stream.Quality,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func recordStream(stream *media.Stream) error {
	dir := flagRecord
	if dir == "" {
		var err error
		dir, err = cfg.ExpandRecordDir()
		if err != nil {
			return fmt.Errorf("resolving record dir: %w", err)
		}
	}

	outputPath, err := record.Record(stream, stream.Title, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Recorded: %s\n", outputPath)
	return nil
}
