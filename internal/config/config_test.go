package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 {
		t.Errorf("default canvas = %dx%d, want 1080x1920", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Video.FPS != 30 {
		t.Errorf("default fps = %v", cfg.Video.FPS)
	}
	if cfg.Video.Style != StyleClassic {
		t.Errorf("default style = %q", cfg.Video.Style)
	}
	if cfg.FFmpeg.SampleRate != 22050 {
		t.Errorf("default sample rate = %d", cfg.FFmpeg.SampleRate)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("video:\n  width: 720\n  height: 1280\n  fps: 24\n  style: enhanced\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Video.Width != 720 || cfg.Video.Height != 1280 {
		t.Errorf("canvas = %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Video.Style != StyleEnhanced {
		t.Errorf("style = %q", cfg.Video.Style)
	}
	// Untouched sections keep their defaults.
	if cfg.FFmpeg.BinaryPath != "ffmpeg" {
		t.Errorf("ffmpeg path = %q", cfg.FFmpeg.BinaryPath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("video:\n  style: vaporwave\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("unknown style should fail validation")
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := defaultConfig()
	bad.Video.Width = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero width should fail")
	}

	bad = defaultConfig()
	bad.Video.FPS = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative fps should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := defaultConfig()
	cfg.Workers = 8
	cfg.Video.Style = StyleEnhanced
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Workers != 8 || loaded.Video.Style != StyleEnhanced {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	ctx := WithConfig(context.Background(), cfg)

	if got := FromContext(ctx); got != cfg {
		t.Error("config did not survive the context round trip")
	}

	// A bare context falls back to defaults rather than nil.
	got := FromContext(context.Background())
	if got == nil || got.Video.Width != 1080 {
		t.Errorf("bare context should fall back to defaults, got %+v", got)
	}
}
