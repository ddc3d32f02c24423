package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mediakit/convert/internal/runner"
)

func feed(t *testing.T, lines []string) *parser {
	t.Helper()
	p := &parser{}
	for _, line := range lines {
		if err := p.Consume(line); err != nil {
			t.Fatalf("Consume(%q) error: %v", line, err)
		}
	}
	return p
}

func TestParseProbeStream(t *testing.T) {
	p := feed(t, []string{
		"MPlayer 1.5 (C) 2000-2022 MPlayer Team",
		"Playing movie.avi.",
		"ID_VIDEO_WIDTH=640",
		"ID_VIDEO_HEIGHT=480",
		"ID_VIDEO_FPS=25.000",
		"ID_VIDEO_FORMAT=XVID",
		"ID_AUDIO_CODEC=mpg123",
		"ID_AUDIO_RATE=44100",
		"ID_AUDIO_NCH=2",
		"ID_LENGTH=125.6",
		"ID_SEEKABLE=1",
		"ID_DEMUXER=avi",
		"ID_CHAPTERS=0",
		"Exiting... (End of file)",
	})

	meta, err := p.Result()
	if err != nil {
		t.Fatalf("Result error: %v", err)
	}

	if meta.Width != 640 {
		t.Errorf("Width = %d, want 640", meta.Width)
	}
	if meta.Height != 480 {
		t.Errorf("Height = %d, want 480", meta.Height)
	}
	if meta.FrameRate != 25.0 {
		t.Errorf("FrameRate = %v, want 25", meta.FrameRate)
	}
	// duration applies the ceiling before the integer cast
	if meta.Duration != 126 {
		t.Errorf("Duration = %d, want 126", meta.Duration)
	}
	if !meta.Seekable {
		t.Error("Seekable = false, want true")
	}
	if meta.Demuxer != "avi" {
		t.Errorf("Demuxer = %q, want avi", meta.Demuxer)
	}
	if meta.AudioRate != 44100 {
		t.Errorf("AudioRate = %d, want 44100", meta.AudioRate)
	}
}

func TestParseTooFewFields(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"no recognized lines", []string{"not a video", "something else"}},
		{"single recognized line", []string{"ID_VIDEO_WIDTH=640"}},
		{"unconvertible values", []string{"ID_VIDEO_WIDTH=abc", "ID_LENGTH=xyz", "ID_DEMUXER=avi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := feed(t, tt.lines)
			if _, err := p.Result(); !errors.Is(err, ErrWrongVideoFormat) {
				t.Errorf("Result error = %v, want ErrWrongVideoFormat", err)
			}
		})
	}
}

func TestParseIgnoresUnknownMarkers(t *testing.T) {
	p := feed(t, []string{
		"ID_EXIT=EOF",
		"ID_SOMETHING_NEW=1",
		"ID_VIDEO_WIDTH=320",
		"ID_VIDEO_HEIGHT=240",
	})

	meta, err := p.Result()
	if err != nil {
		t.Fatalf("Result error: %v", err)
	}
	if meta.Width != 320 || meta.Height != 240 {
		t.Errorf("got %dx%d, want 320x240", meta.Width, meta.Height)
	}
}

func TestMetadataMapOnlyPopulatedFields(t *testing.T) {
	meta := &Metadata{Width: 640, Height: 480, Duration: 126, Demuxer: "avi"}

	m := meta.Map()
	if len(m) != 4 {
		t.Fatalf("Map() = %v, want 4 entries", m)
	}
	if m["duration"] != 126 {
		t.Errorf("duration = %v, want 126", m["duration"])
	}
	if _, ok := m["audio_codec"]; ok {
		t.Error("unpopulated audio_codec should be absent")
	}
}

// fake probe binary so the extractor exercises a real subprocess
func writeFakeProbe(t *testing.T, dir string, lines string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-mplayer")
	script := "#!/bin/sh\nprintf '" + lines + "'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractorProbe(t *testing.T) {
	dir := t.TempDir()
	binary := writeFakeProbe(t, dir,
		`ID_VIDEO_WIDTH=640\nID_VIDEO_HEIGHT=480\nID_LENGTH=125.6\n`)

	e := NewExtractor(runner.New(), binary)
	meta, err := e.Probe(context.Background(), "whatever.avi")
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if meta.Width != 640 || meta.Height != 480 || meta.Duration != 126 {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestExtractorProbeGarbage(t *testing.T) {
	dir := t.TempDir()
	binary := writeFakeProbe(t, dir, `this is not mplayer output\n`)

	e := NewExtractor(runner.New(), binary)
	if _, err := e.Probe(context.Background(), "whatever.txt"); !errors.Is(err, ErrWrongVideoFormat) {
		t.Errorf("Probe error = %v, want ErrWrongVideoFormat", err)
	}
}
