package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `
server:
  port: 9090
  host: "127.0.0.1"

converter:
  mencoderPath: "/opt/bin/mencoder"
  snapshotCount: 4
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Converter.MencoderPath != "/opt/bin/mencoder" {
		t.Errorf("Expected overridden mencoder path, got %s", cfg.Converter.MencoderPath)
	}
	if cfg.Converter.SnapshotCount != 4 {
		t.Errorf("Expected snapshot count 4, got %d", cfg.Converter.SnapshotCount)
	}

	// defaults fill the sections the file leaves out
	if cfg.Converter.MplayerPath != "mplayer" {
		t.Errorf("Expected default mplayer path, got %s", cfg.Converter.MplayerPath)
	}
	if cfg.Converter.MissLimit != 5 {
		t.Errorf("Expected default miss limit 5, got %d", cfg.Converter.MissLimit)
	}
	if cfg.Queue.Port != 5672 {
		t.Errorf("Expected default queue port, got %d", cfg.Queue.Port)
	}
	if cfg.Converter.DefaultPreset != "h263" {
		t.Errorf("Expected default preset h263, got %s", cfg.Converter.DefaultPreset)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
