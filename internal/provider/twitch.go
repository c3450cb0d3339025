package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

// Twitch implements the Provider interface against a Twitch-compatible host.
type Twitch struct {
	base   string // e.g. "twitch.tv"
	client *http.Client
}

// NewTwitch creates a new Twitch provider.
func NewTwitch(base string) *Twitch {
	return &Twitch{
		base:   base,
		client: httputil.NewClient(),
	}
}

func (t *Twitch) pageURL(login string) string {
	return "https://" + t.base + "/" + url.PathEscape(login)
}

func (t *Twitch) apiURL(segments ...string) string {
	return httputil.BuildURL("https://api."+t.base, segments...)
}

func (t *Twitch) usherURL(segments ...string) string {
	return httputil.BuildURL("https://usher."+t.base, segments...)
}

// accessToken is the playback token returned by the access_token endpoints.
type accessToken struct {
	Token string `json:"token"`
	Sig   string `json:"sig"`
}

// ChannelInfo returns metadata scraped from the channel page.
func (t *Twitch) ChannelInfo(login string) (*media.ChannelInfo, error) {
	if err := httputil.ValidateChannel(login); err != nil {
		return nil, fmt.Errorf("invalid channel: %w", err)
	}

	doc, err := t.fetchDocument(t.pageURL(login))
	if err != nil {
		return nil, fmt.Errorf("fetching channel page for %q: %w", login, err)
	}

	info := parseChannelInfo(doc)
	info.Login = login
	return info, nil
}

// ResolveChannel resolves a live channel to its HLS stream.
func (t *Twitch) ResolveChannel(login, quality string) (*media.Stream, error) {
	if err := httputil.ValidateChannel(login); err != nil {
		return nil, fmt.Errorf("invalid channel: %w", err)
	}

	tok, err := t.fetchToken(t.apiURL("api", "channels", login, "access_token"))
	if err != nil {
		return nil, fmt.Errorf("getting access token for %q: %w", login, err)
	}

	master := fmt.Sprintf("%s?token=%s&sig=%s&allow_source=true",
		t.usherURL("api", "channel", "hls", login+".m3u8"),
		url.QueryEscape(tok.Token), url.QueryEscape(tok.Sig))

	return t.pickVariant(master, quality, media.Live, login)
}

// ResolveVideo resolves a VOD to its HLS stream.
func (t *Twitch) ResolveVideo(id, quality string) (*media.Stream, error) {
	if err := httputil.ValidateVideoID(id); err != nil {
		return nil, fmt.Errorf("invalid video: %w", err)
	}
	id = strings.TrimPrefix(id, "v")

	tok, err := t.fetchToken(t.apiURL("api", "vods", id, "access_token"))
	if err != nil {
		return nil, fmt.Errorf("getting access token for vod %q: %w", id, err)
	}

	master := fmt.Sprintf("%s?nauth=%s&nauthsig=%s&allow_source=true",
		t.usherURL("vod", id+".m3u8"),
		url.QueryEscape(tok.Token), url.QueryEscape(tok.Sig))

	return t.pickVariant(master, quality, media.VOD, "vod "+id)
}

// ResolveCollection resolves a collection to the stream of its first item.
func (t *Twitch) ResolveCollection(id, quality string) (*media.Stream, error) {
	if err := httputil.ValidateCollectionID(id); err != nil {
		return nil, fmt.Errorf("invalid collection: %w", err)
	}

	body, err := httputil.GetJSON(t.client, t.apiURL("api", "collections", id, "items"))
	if err != nil {
		return nil, fmt.Errorf("getting collection %q: %w", id, err)
	}

	var result struct {
		Items []struct {
			ID string `json:"item_id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing collection response: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("collection %q is empty", id)
	}

	stream, err := t.ResolveVideo(result.Items[0].ID, quality)
	if err != nil {
		return nil, err
	}
	stream.Kind = media.Collection
	return stream, nil
}

// fetchToken fetches and decodes a playback access token.
func (t *Twitch) fetchToken(url string) (*accessToken, error) {
	body, err := httputil.GetJSON(t.client, url)
	if err != nil {
		return nil, err
	}

	var tok accessToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if tok.Token == "" || tok.Sig == "" {
		return nil, fmt.Errorf("empty access token")
	}
	return &tok, nil
}

// pickVariant downloads the master playlist and selects a quality variant.
func (t *Twitch) pickVariant(masterURL, quality string, kind media.ContentKind, title string) (*media.Stream, error) {
	resp, err := httputil.Get(t.client, masterURL)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("stream is offline or unavailable")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for playlist", resp.StatusCode)
	}

	variants, err := parseMasterPlaylist(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing playlist: %w", err)
	}

	v := selectVariant(variants, quality)
	if v == nil {
		return nil, fmt.Errorf("no playable variant found")
	}

	return &media.Stream{
		URL:     v.URL,
		Kind:    kind,
		Title:   title,
		Quality: v.Name,
	}, nil
}

// fetchDocument fetches a URL and parses it into a goquery Document.
func (t *Twitch) fetchDocument(url string) (*goquery.Document, error) {
	resp, err := httputil.Get(t.client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return doc, nil
}
