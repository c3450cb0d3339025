// Package media defines shared types for the urchin application.
package media

// ContentKind distinguishes what a stream was resolved from.
type ContentKind int

const (
	Live ContentKind = iota
	VOD
	Collection
)

func (k ContentKind) String() string {
	switch k {
	case Live:
		return "live"
	case VOD:
		return "vod"
	case Collection:
		return "collection"
	default:
		return "unknown"
	}
}

// ChannelInfo holds metadata scraped from a channel page.
type ChannelInfo struct {
	Login       string // channel login name, e.g. "monstercat"
	DisplayName string // display title
	Title       string // current broadcast title
	Category    string // game/category name
	Live        bool   // whether the channel is currently broadcasting
}

// Stream contains a resolved, playable stream.
type Stream struct {
	URL     string      // m3u8 playlist or direct video URL
	Kind    ContentKind // live, vod or collection
	Title   string      // display title for the player window
	Quality string      // resolved quality label, e.g. "1080p60"
}

// WatchEntry is a single row of the watch history.
type WatchEntry struct {
	Channel   string // channel login
	Title     string // display title at the time of watching
	WatchedAt int64  // unix milliseconds
}
