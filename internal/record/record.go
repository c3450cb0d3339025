// Package record captures a resolved stream to a local file using ffmpeg.
// Uses exec.Command with explicit argument slices and validates output
// paths against directory traversal.
package record

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

// Record captures stream into outputDir and returns the file path.
// Recording runs until the stream ends or ffmpeg is interrupted.
func Record(stream *media.Stream, name string, outputDir string) (string, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filename := httputil.SanitizeFilename(name) + "-" + time.Now().Format("20060102-150405") + ".mkv"
	outputPath, err := httputil.SafeRecordPath(absDir, filename)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	args := []string{
		"-y",
		"-i", stream.URL,
		"-c:v", "copy", // copy streams, no re-encoding
		"-c:a", "copy",
		"-metadata", fmt.Sprintf("title=%s", name),
		outputPath,
	}

	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Fprintf(os.Stderr, "Recording to: %s\n", outputPath)

	if err := cmd.Run(); err != nil {
		// Clean up zero-byte captures; keep partial ones.
		if info, statErr := os.Stat(outputPath); statErr == nil && info.Size() == 0 {
			os.Remove(outputPath)
		}
		return "", fmt.Errorf("ffmpeg recording failed: %w", err)
	}

	return outputPath, nil
}
