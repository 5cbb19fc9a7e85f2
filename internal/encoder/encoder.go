package encoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/pkg/util"
)

// EncodingError is a fatal output-sink failure: the output directory
// could not be created or the muxer rejected the configuration. A
// partial file may remain on disk and should be treated as incomplete.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed (%s): %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// ProgressFunc is called periodically as frames are muxed.
type ProgressFunc func(*Progress)

// Encoder handles all ffmpeg operations: decoding audio to PCM, probing
// durations, and muxing the composited frame stream with the source
// audio into an H.264/AAC container.
type Encoder struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	cfg         config.FFmpegConfig
}

// New resolves the ffmpeg and ffprobe binaries.
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Encoder, error) {
	ffmpegPath, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath(cfg.ProbePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Encoder{
		logger:      logger.With().Str("component", "encoder").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		cfg:         cfg,
	}, nil
}

// EncodeOptions configures one mux session.
type EncodeOptions struct {
	AudioPath  string
	OutputPath string
	Width      int
	Height     int
	FPS        float64
	Progress   ProgressFunc
}

// Session is one running mux: raw RGB24 frames written in order to
// stdin, source audio attached as a second input, finalized on Close.
type Session struct {
	logger    zerolog.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	frameSize int
	frames    int
	wg        sync.WaitGroup
	closeOnce sync.Once
	waitErr   error
}

// Start launches ffmpeg and returns a session ready for frames. It
// fails with EncodingError if the output directory cannot be created or
// ffmpeg cannot be started.
func (e *Encoder) Start(ctx context.Context, opts EncodeOptions) (*Session, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, &EncodingError{Op: "configure", Err: fmt.Errorf("invalid geometry %dx%d@%.2f", opts.Width, opts.Height, opts.FPS)}
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "" && dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return nil, &EncodingError{Op: "create output dir", Err: err}
		}
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "info",
	}
	if e.cfg.Threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.cfg.Threads))
	}
	args = append(args, "-progress", "pipe:2")
	args = append(args,
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%.3f", opts.FPS),
		"-i", "pipe:0",
		"-i", opts.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-preset", e.cfg.Preset,
		"-crf", fmt.Sprintf("%d", e.cfg.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		opts.OutputPath,
	)

	e.logger.Debug().Strs("args", args).Msg("starting mux")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &EncodingError{Op: "stdin pipe", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &EncodingError{Op: "stderr pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &EncodingError{Op: "start ffmpeg", Err: err}
	}

	s := &Session{
		logger:    e.logger,
		cmd:       cmd,
		stdin:     stdin,
		frameSize: opts.Width * opts.Height * 3,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		streamProgress(stderr, opts.Progress, func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("mux output")
		})
	}()

	e.logger.Info().
		Str("audio", opts.AudioPath).
		Str("output", opts.OutputPath).
		Msg("mux started")
	return s, nil
}

// WriteFrame streams one frame's RGB24 bytes. Frames must arrive in
// timestamp order; the caller guarantees that.
func (s *Session) WriteFrame(pix []byte) error {
	if len(pix) != s.frameSize {
		return &EncodingError{Op: "write frame", Err: fmt.Errorf("frame has %d bytes, want %d", len(pix), s.frameSize)}
	}
	if _, err := s.stdin.Write(pix); err != nil {
		return &EncodingError{Op: "write frame", Err: err}
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (s *Session) Frames() int {
	return s.frames
}

// Close finishes the stream and finalizes the container. Safe to call
// after a partial render: ffmpeg flushes what it received, so early
// termination yields a short but playable file, never a corrupt one.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.stdin.Close(); err != nil {
			s.waitErr = &EncodingError{Op: "close stream", Err: err}
		}
		s.wg.Wait()
		if err := s.cmd.Wait(); err != nil && s.waitErr == nil {
			s.waitErr = &EncodingError{Op: "finalize", Err: err}
		}
		if s.waitErr == nil {
			s.logger.Info().Int("frames", s.frames).Msg("mux finalized")
		}
	})
	return s.waitErr
}

// streamProgress parses the -progress key=value blocks ffmpeg writes to
// stderr and forwards one Progress per completed block.
func streamProgress(r io.Reader, progress ProgressFunc, logLine func(string)) {
	scanner := bufio.NewScanner(r)
	current := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()
		if logLine != nil {
			logLine(line)
		}

		switch {
		case strings.HasPrefix(line, "frame="):
			fmt.Sscanf(line, "frame=%d", &current.Frame)
		case strings.HasPrefix(line, "fps="):
			fmt.Sscanf(line, "fps=%f", &current.FPS)
		case strings.HasPrefix(line, "bitrate="):
			current.Bitrate = strings.TrimSpace(strings.TrimPrefix(line, "bitrate="))
		case strings.HasPrefix(line, "out_time="):
			current.Time = strings.TrimSpace(strings.TrimPrefix(line, "out_time="))
		case strings.HasPrefix(line, "speed="):
			current.Speed = strings.TrimSpace(strings.TrimPrefix(line, "speed="))
		case strings.HasPrefix(line, "progress="):
			// End of a progress block.
			if progress != nil && current.Frame > 0 {
				progress(current)
			}
			current = &Progress{}
		}
	}
}
