package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Style selects which layer set the renderer instantiates.
type Style string

const (
	// StyleClassic renders background, beat pulse and text layers.
	StyleClassic Style = "classic"
	// StyleEnhanced adds waveform, karaoke captions and particles on top
	// of the classic set without changing any existing layer contract.
	StyleEnhanced Style = "enhanced"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`

	// Video settings
	Video VideoConfig `yaml:"video"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Text settings
	Text TextConfig `yaml:"text"`
}

type VideoConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
	Style  Style   `yaml:"style"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
	Threads    int    `yaml:"threads"`
	SampleRate int    `yaml:"sample_rate"`
}

type TextConfig struct {
	TitleSize    float64 `yaml:"title_size"`
	BodySize     float64 `yaml:"body_size"`
	CaptionSize  float64 `yaml:"caption_size"`
	HashtagSize  float64 `yaml:"hashtag_size"`
	MaxTitleLen  int     `yaml:"max_title_len"`
	MaxBodyLen   int     `yaml:"max_body_len"`
	MaxCaptionLen int    `yaml:"max_caption_len"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the values a render job cannot recover from.
func (c *Config) Validate() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("invalid fps %.2f", c.Video.FPS)
	}
	if c.Video.Style != StyleClassic && c.Video.Style != StyleEnhanced {
		return fmt.Errorf("unknown style %q", c.Video.Style)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		OutputDir: "./outputs",
		Workers:   4,
		Video: VideoConfig{
			Width:  1080,
			Height: 1920, // 9:16 portrait
			FPS:    30,
			Style:  StyleClassic,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Preset:     "medium",
			CRF:        23,
			Threads:    0,
			SampleRate: 22050,
		},
		Text: TextConfig{
			TitleSize:     80,
			BodySize:      68,
			CaptionSize:   56,
			HashtagSize:   44,
			MaxTitleLen:   160,
			MaxBodyLen:    140,
			MaxCaptionLen: 400,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".reelforge", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
