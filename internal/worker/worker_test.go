package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediakit/convert/pkg/models"
)

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(models.ConvertConfig{}, "h263")
	assert.NoError(t, err)
	assert.Equal(t, "lavc", cfg.VideoCodec)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 22050, cfg.SampleRate)
}

func TestBuildConfigOverrides(t *testing.T) {
	cfg, err := buildConfig(models.ConvertConfig{
		Preset:       "h264",
		Width:        1280,
		Height:       720,
		SampleRate:   44100,
		OutputFormat: "avi",
	}, "h263")
	assert.NoError(t, err)
	assert.Equal(t, "x264", cfg.VideoCodec)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, "avi", cfg.OutputFormat)
}

func TestBuildConfigSingleDimension(t *testing.T) {
	cfg, err := buildConfig(models.ConvertConfig{Preset: "h263", Width: 800}, "h263")
	assert.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	// Naming only the width requests auto height.
	assert.Equal(t, 0, cfg.Height)
}

func TestBuildConfigUnknownPreset(t *testing.T) {
	_, err := buildConfig(models.ConvertConfig{Preset: "vp9"}, "h263")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vp9")
}
