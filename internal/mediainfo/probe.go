// Package mediainfo probes video files for their resolution using ffprobe.
// The probe is best effort: any failure yields an empty label, never an
// error the caller must handle.
package mediainfo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// canonical heights rendered as "<height>p"; everything else falls back to
// "<width>x<height>".
var canonicalHeights = map[int]bool{480: true, 720: true, 1080: true, 2160: true}

// Prober extracts resolution labels from video files.
type Prober struct {
	ffprobePath string
	logger      zerolog.Logger
}

// NewProber creates a prober. An empty path falls back to PATH lookup.
func NewProber(ffprobePath string, logger zerolog.Logger) *Prober {
	return &Prober{
		ffprobePath: ffprobePath,
		logger:      logger.With().Str("component", "mediainfo").Logger(),
	}
}

// ffprobeOutput is the subset of ffprobe -show_streams JSON we read.
type ffprobeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// ResolutionLabel probes a file and returns a label like "1080p" or
// "1440x1080". Empty string when probing fails or no video stream exists.
func (p *Prober) ResolutionLabel(ctx context.Context, path string) string {
	binary := p.findBinary()
	if binary == "" {
		p.logger.Debug().Msg("ffprobe not available, skipping probe")
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Str("stderr", stderr.String()).Msg("ffprobe failed")
		return ""
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probe); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("failed to parse ffprobe output")
		return ""
	}
	if len(probe.Streams) == 0 {
		return ""
	}

	width, height := probe.Streams[0].Width, probe.Streams[0].Height
	if width <= 0 || height <= 0 {
		return ""
	}
	if canonicalHeights[height] {
		return fmt.Sprintf("%dp", height)
	}
	return fmt.Sprintf("%dx%d", width, height)
}

func (p *Prober) findBinary() string {
	if p.ffprobePath != "" {
		if _, err := os.Stat(p.ffprobePath); err == nil {
			return p.ffprobePath
		}
		return ""
	}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		return path
	}
	return ""
}
