package command

import (
	"fmt"
	"strings"

	"github.com/mediakit/convert/internal/shell"
)

// FFmpegBuilder builds ffmpeg command lines from a Config.
type FFmpegBuilder struct {
	Binary string
	Config Config

	// Seek is an optional start offset in seconds. ffmpeg requires it
	// after the -i argument; placing it first would make ffmpeg scan the
	// whole file up to the offset.
	Seek int
}

// NewFFmpegBuilder creates a builder for the given config using the default
// binary name.
func NewFFmpegBuilder(cfg Config) *FFmpegBuilder {
	return &FFmpegBuilder{Binary: "ffmpeg", Config: cfg}
}

// Command assembles the full ffmpeg invocation. Progress markers
// (Duration: / time=) arrive on the merged output stream for the duration
// tracker to consume.
func (b *FFmpegBuilder) Command(input, output string) string {
	cfg := b.Config

	segments := []segment{
		func() string { return "-i " + shell.Escape(input) },
		func() string {
			if b.Seek == 0 {
				return ""
			}
			return fmt.Sprintf("-ss %d", b.Seek)
		},
		func() string {
			if cfg.VideoCodec == "" {
				return ""
			}
			return "-vcodec " + cfg.VideoCodec
		},
		func() string {
			if cfg.AudioCodec == "" {
				return "-an"
			}
			return "-acodec " + cfg.AudioCodec
		},
		func() string {
			if cfg.SampleRate == 0 {
				return ""
			}
			return fmt.Sprintf("-ar %d", cfg.SampleRate)
		},
		func() string { return ffmpegScaleFilter(cfg.Width, cfg.Height) },
		func() string {
			if cfg.OutputFormat == "" {
				return ""
			}
			return "-f " + cfg.OutputFormat
		},
		func() string { return "-y " + shell.Escape(output) },
	}

	parts := []string{b.Binary}
	for _, seg := range segments {
		if s := seg(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ffmpegScaleFilter renders the same scaling rule as scaleFilter with
// ffmpeg's -1 spelling for the automatic side.
func ffmpegScaleFilter(width, height int) string {
	switch {
	case width > 0 && height > 0:
		return fmt.Sprintf("-vf scale=%d:%d", width, height)
	case width > 0:
		return fmt.Sprintf("-vf scale=%d:-1", width)
	case height > 0:
		return fmt.Sprintf("-vf scale=-1:%d", height)
	default:
		return ""
	}
}
