// Package provider resolves channel, video and collection selectors
// into playable streams.
package provider

import (
	"urchin/internal/media"
)

// Provider is the interface that content resolvers must implement.
type Provider interface {
	// ChannelInfo returns metadata for a channel page.
	ChannelInfo(login string) (*media.ChannelInfo, error)

	// ResolveChannel resolves a live channel to a playable stream.
	ResolveChannel(login, quality string) (*media.Stream, error)

	// ResolveVideo resolves a VOD identifier to a playable stream.
	ResolveVideo(id, quality string) (*media.Stream, error)

	// ResolveCollection resolves a collection to the stream of its first video.
	ResolveCollection(id, quality string) (*media.Stream, error)
}
