package httputil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// channelPattern matches valid channel login names: alphanumeric plus underscore.
	channelPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{2,25}$`)

	// videoIDPattern matches VOD identifiers, optionally prefixed with "v".
	videoIDPattern = regexp.MustCompile(`^v?[0-9]{6,12}$`)

	// collectionIDPattern matches collection identifiers.
	collectionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,64}$`)
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateChannel checks that a channel login contains only safe characters.
func ValidateChannel(login string) error {
	if login == "" {
		return fmt.Errorf("channel cannot be empty")
	}
	if !channelPattern.MatchString(login) {
		return fmt.Errorf("invalid channel name: %q", login)
	}
	return nil
}

// ValidateVideoID checks that a VOD identifier is well-formed.
func ValidateVideoID(id string) error {
	if id == "" {
		return fmt.Errorf("video ID cannot be empty")
	}
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("invalid video ID: %q", id)
	}
	return nil
}

// ValidateCollectionID checks that a collection identifier is well-formed.
func ValidateCollectionID(id string) error {
	if id == "" {
		return fmt.Errorf("collection ID cannot be empty")
	}
	if !collectionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid collection ID: %q", id)
	}
	return nil
}

// SanitizeFilename removes path traversal and dangerous characters from a filename.
// Returns just the base name, stripped of any directory components.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)

	if name == "" || name == "." || name == ".." {
		return "untitled"
	}

	return name
}

// SafeRecordPath resolves and validates a recording path ensuring it stays
// within the target directory.
func SafeRecordPath(dir, filename string) (string, error) {
	sanitized := SanitizeFilename(filename)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	full := filepath.Join(absDir, sanitized)

	resolved, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	if !strings.HasPrefix(resolved, absDir+string(filepath.Separator)) && resolved != absDir {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", resolved, absDir)
	}

	return resolved, nil
}

// BuildURL constructs a URL from base and path components, encoding each path segment.
func BuildURL(base string, pathSegments ...string) string {
	u := strings.TrimRight(base, "/")
	for _, seg := range pathSegments {
		u += "/" + url.PathEscape(seg)
	}
	return u
}
