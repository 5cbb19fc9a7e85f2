package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/analysis"
	"github.com/keagan/reelforge/internal/concept"
	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/encoder"
	"github.com/keagan/reelforge/internal/render"
	"github.com/keagan/reelforge/internal/timeline"
)

// RenderOptions configures one render job.
type RenderOptions struct {
	OutputPath string
	Style      config.Style // empty means the configured default
	Progress   encoder.ProgressFunc
}

// Pipeline orchestrates a render job: the synchronous analysis phase
// (decode, feature extraction, timeline, layer construction), then the
// parallel render phase feeding the encoder in frame order.
type Pipeline struct {
	logger   zerolog.Logger
	cfg      *config.Config
	encoder  *encoder.Encoder
	analyzer *analysis.Analyzer
}

// New creates a pipeline instance.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	enc, err := encoder.New(logger, cfg.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encoder: %w", err)
	}

	return &Pipeline{
		logger:   logger.With().Str("component", "pipeline").Logger(),
		cfg:      cfg,
		encoder:  enc,
		analyzer: analysis.NewAnalyzer(logger),
	}, nil
}

// Analyze decodes an audio file and extracts its features.
func (p *Pipeline) Analyze(ctx context.Context, audioPath string) (*analysis.Analysis, error) {
	samples, err := p.encoder.DecodeAudio(ctx, audioPath, p.cfg.FFmpeg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	return p.analyzer.Analyze(samples, p.cfg.FFmpeg.SampleRate)
}

// Render produces the final reel for one audio track and concept.
// Validation and analysis failures abort before any frame is computed;
// sink failures surface as *encoder.EncodingError.
func (p *Pipeline) Render(ctx context.Context, audioPath string, c *concept.Concept, opts RenderOptions) (string, error) {
	if audioPath == "" {
		return "", fmt.Errorf("audio path cannot be empty")
	}
	if c == nil {
		c = &concept.Concept{}
	}

	jobID := uuid.NewString()[:8]
	logger := p.logger.With().Str("job", jobID).Logger()

	output := opts.OutputPath
	if output == "" {
		output = filepath.Join(p.cfg.OutputDir, fmt.Sprintf("reel_%s.mp4", jobID))
	}

	cfg := *p.cfg
	if opts.Style != "" {
		cfg.Video.Style = opts.Style
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid render options: %w", err)
	}

	logger.Info().
		Str("audio", audioPath).
		Str("output", output).
		Str("style", string(cfg.Video.Style)).
		Msg("starting render job")

	// Analysis phase: everything a layer needs exists before the first
	// frame is composed.
	an, err := p.Analyze(ctx, audioPath)
	if err != nil {
		return "", err
	}

	tl, err := timeline.Split(an.DurationSeconds)
	if err != nil {
		return "", err
	}

	layers, err := render.BuildLayers(&cfg, c, an, tl)
	if err != nil {
		return "", fmt.Errorf("failed to build layers: %w", err)
	}

	comp := render.NewCompositor(logger, cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)
	if err := comp.AddLayers(layers...); err != nil {
		return "", err
	}
	if err := comp.Seal(an.DurationSeconds); err != nil {
		return "", err
	}

	logger.Info().
		Float64("duration", an.DurationSeconds).
		Int("beats", len(an.BeatTimes)).
		Int("layers", len(layers)).
		Int("frames", comp.FrameCount()).
		Msg("analysis phase complete")

	// Render phase: parallel frame composition, in-order delivery.
	session, err := p.encoder.Start(ctx, encoder.EncodeOptions{
		AudioPath:  audioPath,
		OutputPath: output,
		Width:      cfg.Video.Width,
		Height:     cfg.Video.Height,
		FPS:        cfg.Video.FPS,
		Progress:   opts.Progress,
	})
	if err != nil {
		return "", err
	}

	renderErr := comp.Render(ctx, cfg.Workers, func(f *render.Frame) error {
		return session.WriteFrame(f.Pixels.Pix)
	})

	// Finalize even after a partial render so the container stays valid.
	closeErr := session.Close()
	if renderErr != nil {
		return "", renderErr
	}
	if closeErr != nil {
		return "", closeErr
	}

	logger.Info().
		Str("output", output).
		Int("frames", session.Frames()).
		Msg("render job complete")
	return output, nil
}
