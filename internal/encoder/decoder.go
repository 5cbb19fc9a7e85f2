package encoder

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DecodeAudio decodes an audio file to mono float64 PCM in [-1,1] at
// the given sample rate, using ffmpeg's s16le pipe output. No format
// assumptions beyond "ffmpeg can read it".
func (e *Encoder) DecodeAudio(ctx context.Context, path string, sampleRate int) ([]float64, error) {
	e.logger.Debug().
		Str("input", path).
		Int("sample_rate", sampleRate).
		Msg("decoding audio")

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	// Drop a trailing odd byte so int16 alignment holds.
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]float64, len(out)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(out[i*2:i*2+2]))) / 32768.0
	}

	e.logger.Debug().Int("samples", len(samples)).Msg("audio decoded")
	return samples, nil
}

// ProbeDuration returns the container duration in seconds via ffprobe.
func (e *Encoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}
