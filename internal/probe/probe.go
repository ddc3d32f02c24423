// Package probe extracts media characteristics from a video file by driving
// mplayer's identification mode and parsing its ID_KEY=value output stream.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mediakit/convert/internal/runner"
	"github.com/mediakit/convert/internal/shell"
)

// ErrWrongVideoFormat means the probe output did not look like a parseable
// video: fewer than two recognized fields came back.
var ErrWrongVideoFormat = errors.New("cannot parse metadata, maybe wrong video format")

// Metadata holds the characteristics reported by the probe. Zero values mean
// the probe never reported the field.
type Metadata struct {
	Filename     string
	Demuxer      string
	AudioCodec   string
	AudioFormat  string
	AudioBitrate int
	AudioRate    int
	AudioNCh     int
	VideoCodec   string
	VideoFormat  string
	VideoBitrate int
	VideoAspect  float64
	Width        int
	Height       int
	FrameRate    float64
	Duration     int
	Chapters     int
	Seekable     bool
}

// Map flattens the metadata into the loosely typed form the result records
// persist.
func (m *Metadata) Map() map[string]interface{} {
	out := make(map[string]interface{})
	put := func(key string, value interface{}, populated bool) {
		if populated {
			out[key] = value
		}
	}
	put("filename", m.Filename, m.Filename != "")
	put("demuxer", m.Demuxer, m.Demuxer != "")
	put("audio_codec", m.AudioCodec, m.AudioCodec != "")
	put("audio_format", m.AudioFormat, m.AudioFormat != "")
	put("audio_bitrate", m.AudioBitrate, m.AudioBitrate != 0)
	put("audio_rate", m.AudioRate, m.AudioRate != 0)
	put("audio_nch", m.AudioNCh, m.AudioNCh != 0)
	put("video_codec", m.VideoCodec, m.VideoCodec != "")
	put("video_format", m.VideoFormat, m.VideoFormat != "")
	put("video_bitrate", m.VideoBitrate, m.VideoBitrate != 0)
	put("video_aspect", m.VideoAspect, m.VideoAspect != 0)
	put("width", m.Width, m.Width != 0)
	put("height", m.Height, m.Height != 0)
	put("frame_rate", m.FrameRate, m.FrameRate != 0)
	put("duration", m.Duration, m.Duration != 0)
	put("chapters", m.Chapters, m.Chapters != 0)
	put("seekable", m.Seekable, m.Seekable)
	return out
}

// fieldSpec binds an ID_ marker to the conversion chain that coerces its raw
// value into the right Metadata field.
type fieldSpec struct {
	marker string
	assign func(m *Metadata, raw string) error
}

func assignString(dst func(*Metadata) *string) func(*Metadata, string) error {
	return func(m *Metadata, raw string) error {
		*dst(m) = raw
		return nil
	}
}

func assignInt(dst func(*Metadata) *int) func(*Metadata, string) error {
	return func(m *Metadata, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*dst(m) = v
		return nil
	}
}

func assignFloat(dst func(*Metadata) *float64) func(*Metadata, string) error {
	return func(m *Metadata, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*dst(m) = v
		return nil
	}
}

// duration goes through float then ceiling then int, so 125.6 becomes 126
func assignCeilInt(dst func(*Metadata) *int) func(*Metadata, string) error {
	return func(m *Metadata, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*dst(m) = int(math.Ceil(v))
		return nil
	}
}

func assignBool(dst func(*Metadata) *bool) func(*Metadata, string) error {
	return func(m *Metadata, raw string) error {
		*dst(m) = raw != "" && raw != "0"
		return nil
	}
}

var infomap = []fieldSpec{
	{"ID_AUDIO_CODEC", assignString(func(m *Metadata) *string { return &m.AudioCodec })},
	{"ID_AUDIO_FORMAT", assignString(func(m *Metadata) *string { return &m.AudioFormat })},
	{"ID_AUDIO_BITRATE", assignInt(func(m *Metadata) *int { return &m.AudioBitrate })},
	{"ID_AUDIO_RATE", assignInt(func(m *Metadata) *int { return &m.AudioRate })},
	{"ID_AUDIO_NCH", assignInt(func(m *Metadata) *int { return &m.AudioNCh })},
	{"ID_VIDEO_FORMAT", assignString(func(m *Metadata) *string { return &m.VideoFormat })},
	{"ID_VIDEO_BITRATE", assignInt(func(m *Metadata) *int { return &m.VideoBitrate })},
	{"ID_VIDEO_ASPECT", assignFloat(func(m *Metadata) *float64 { return &m.VideoAspect })},
	{"ID_VIDEO_WIDTH", assignInt(func(m *Metadata) *int { return &m.Width })},
	{"ID_VIDEO_HEIGHT", assignInt(func(m *Metadata) *int { return &m.Height })},
	{"ID_VIDEO_FPS", assignFloat(func(m *Metadata) *float64 { return &m.FrameRate })},
	{"ID_VIDEO_CODEC", assignString(func(m *Metadata) *string { return &m.VideoCodec })},
	{"ID_LENGTH", assignCeilInt(func(m *Metadata) *int { return &m.Duration })},
	{"ID_FILENAME", assignString(func(m *Metadata) *string { return &m.Filename })},
	{"ID_DEMUXER", assignString(func(m *Metadata) *string { return &m.Demuxer })},
	{"ID_SEEKABLE", assignBool(func(m *Metadata) *bool { return &m.Seekable })},
	{"ID_CHAPTERS", assignInt(func(m *Metadata) *int { return &m.Chapters })},
}

// parser accumulates metadata from a probe output stream. It satisfies the
// runner's line-handler contract through Consume.
type parser struct {
	meta      Metadata
	populated int
}

// Consume parses one output line. Lines without a recognized ID_ marker are
// ignored. Values that fail their conversion chain are ignored too; mplayer
// occasionally emits placeholder junk for fields it cannot determine.
func (p *parser) Consume(line string) error {
	if !strings.HasPrefix(line, "ID_") {
		return nil
	}

	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return nil
	}

	for _, spec := range infomap {
		if key == spec.marker {
			if err := spec.assign(&p.meta, value); err == nil {
				p.populated++
			}
			return nil
		}
	}
	return nil
}

// Result returns the accumulated metadata, or ErrWrongVideoFormat when fewer
// than two fields were recognized.
func (p *parser) Result() (*Metadata, error) {
	if p.populated < 2 {
		return nil, ErrWrongVideoFormat
	}
	meta := p.meta
	return &meta, nil
}

// Extractor probes video files via mplayer.
type Extractor struct {
	runner *runner.Runner
	binary string
}

// NewExtractor creates an Extractor using the given mplayer binary.
func NewExtractor(r *runner.Runner, binary string) *Extractor {
	if binary == "" {
		binary = "mplayer"
	}
	return &Extractor{runner: r, binary: binary}
}

// Probe runs the identification command against filename and returns the
// parsed metadata:
//
//	mplayer -vo null -ao null -frames 0 -identify <filename>
func (e *Extractor) Probe(ctx context.Context, filename string) (*Metadata, error) {
	command := strings.Join([]string{
		e.binary,
		"-vo", "null",
		"-ao", "null",
		"-frames", "0",
		"-identify",
		shell.Escape(filename),
	}, " ")

	p := &parser{}
	if err := e.runner.Run(ctx, command, p.Consume); err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	return p.Result()
}
