package provider

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"urchin/internal/media"
)

// parseChannelInfo extracts channel metadata from a channel page document.
// Uses DOM parsing of the OpenGraph/JSON-LD tags instead of regexing raw HTML.
func parseChannelInfo(doc *goquery.Document) *media.ChannelInfo {
	info := &media.ChannelInfo{}

	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		// og:title is "DisplayName - Twitch"; strip the suffix if present.
		info.DisplayName = strings.TrimSpace(strings.TrimSuffix(v, "- Twitch"))
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		info.Title = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="twitter:data1"]`).Attr("content"); ok {
		info.Category = strings.TrimSpace(v)
	}

	// Live pages carry a VideoObject with publication=BroadcastEvent markup.
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), `"isLiveBroadcast":true`) {
			info.Live = true
		}
	})

	return info
}

// variant is one quality entry of an HLS master playlist.
type variant struct {
	Name string // e.g. "1080p60", "720p", "audio_only"
	URL  string
}

// parseMasterPlaylist reads an HLS master playlist and returns its variants
// in declaration order (highest quality first, per the usher convention).
func parseMasterPlaylist(r io.Reader) ([]variant, error) {
	scanner := bufio.NewScanner(r)

	var variants []variant
	var pending string // VIDEO attribute of the preceding EXT-X-MEDIA line

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#EXT-X-MEDIA:"):
			pending = mediaAttr(line, "NAME")
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			if pending == "" {
				pending = mediaAttr(line, "VIDEO")
			}
		case line != "" && !strings.HasPrefix(line, "#"):
			variants = append(variants, variant{Name: pending, URL: line})
			pending = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("playlist has no variants")
	}

	return variants, nil
}

// mediaAttr extracts a quoted attribute value from an HLS tag line.
func mediaAttr(line, key string) string {
	idx := strings.Index(line, key+"=\"")
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(key)+2:]
	end := strings.Index(rest, "\"")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// selectVariant picks the variant matching the requested quality.
// "best" or an unknown quality falls back to the first (source) variant;
// "worst" picks the lowest video rendition.
func selectVariant(variants []variant, quality string) *variant {
	if len(variants) == 0 {
		return nil
	}

	quality = strings.ToLower(quality)

	if quality == "worst" {
		// Variants are declared highest first; audio_only does not
		// count as a video rendition.
		for i := len(variants) - 1; i >= 0; i-- {
			if !strings.EqualFold(variants[i].Name, "audio_only") {
				return &variants[i]
			}
		}
		return &variants[len(variants)-1]
	}

	if quality != "" && quality != "best" {
		for i := range variants {
			if strings.EqualFold(variants[i].Name, quality) {
				return &variants[i]
			}
		}
		// Fall back to a prefix match so "720p" finds "720p60".
		for i := range variants {
			if strings.HasPrefix(strings.ToLower(variants[i].Name), quality) {
				return &variants[i]
			}
		}
	}

	return &variants[0]
}
