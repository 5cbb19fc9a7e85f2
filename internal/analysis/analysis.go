package analysis

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrInvalidAudio marks input that cannot be analyzed at all: empty
// sample data or a non-positive sample rate. It is the only fatal error
// this package produces; individual estimator failures degrade to zero
// values instead.
var ErrInvalidAudio = errors.New("invalid audio input")

// Analysis holds the features extracted from one audio track. It is
// produced once per render job and never mutated afterwards.
type Analysis struct {
	DurationSeconds    float64   `json:"duration_seconds"`
	SampleRate         int       `json:"sample_rate"`
	BeatTimes          []float64 `json:"beat_times"`
	LoudnessEnvelope   []float64 `json:"loudness_envelope"`
	AveragePitchHz     float64   `json:"average_pitch_hz"`
	TempoBPM           float64   `json:"tempo_bpm"`
	SpectralCentroidHz float64   `json:"spectral_centroid_hz"`
}

// Analyzer extracts features from decoded PCM audio.
type Analyzer struct {
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		logger: logger.With().Str("component", "analysis").Logger(),
	}
}

// Analyze derives all features from mono PCM samples. Beat detection
// returning no onsets is not an error: beat-driven layers degrade to
// no-ops. Pitch, tempo and spectral centroid each fall back to 0.0 on
// failure so one weak estimator never blocks the whole analysis.
func (a *Analyzer) Analyze(samples []float64, sampleRate int) (*Analysis, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: audio track has zero duration", ErrInvalidAudio)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidAudio, sampleRate)
	}

	duration := float64(len(samples)) / float64(sampleRate)

	result := &Analysis{
		DurationSeconds:  duration,
		SampleRate:       sampleRate,
		LoudnessEnvelope: LoudnessEnvelope(samples, sampleRate),
	}

	spec, err := newSpectrum(samples, sampleRate)
	if err != nil {
		// Track too short for a single FFT frame. Everything spectral
		// degrades; the envelope and duration still stand.
		a.logger.Warn().Err(err).Msg("spectral analysis unavailable, using neutral defaults")
		return result, nil
	}

	beats, err := spec.onsetTimes(duration)
	if err != nil {
		a.logger.Warn().Err(err).Msg("beat detection failed, continuing without beats")
		beats = nil
	}
	result.BeatTimes = beats

	if tempo, err := tempoFromBeats(beats); err != nil {
		a.logger.Warn().Err(err).Msg("tempo estimation failed, using 0")
	} else {
		result.TempoBPM = tempo
	}

	if pitch, err := averagePitch(samples, sampleRate); err != nil {
		a.logger.Warn().Err(err).Msg("pitch estimation failed, using 0")
	} else {
		result.AveragePitchHz = pitch
	}

	if centroid, err := spec.centroid(); err != nil {
		a.logger.Warn().Err(err).Msg("spectral centroid failed, using 0")
	} else {
		result.SpectralCentroidHz = centroid
	}

	a.logger.Debug().
		Float64("duration", duration).
		Int("beats", len(result.BeatTimes)).
		Float64("tempo_bpm", result.TempoBPM).
		Float64("pitch_hz", result.AveragePitchHz).
		Float64("centroid_hz", result.SpectralCentroidHz).
		Msg("analysis complete")

	return result, nil
}

// LoudnessEnvelope computes a smoothed per-window amplitude curve, one
// value per 20ms window, normalized to the track's own peak so the
// output lies in [0,1] regardless of absolute input gain. A silent
// track yields an all-zero envelope.
func LoudnessEnvelope(samples []float64, sampleRate int) []float64 {
	win := sampleRate / 50 // 20ms
	if win < 1 {
		win = 1
	}

	n := len(samples) / win
	if n == 0 {
		n = 1
	}

	env := make([]float64, n)
	peak := 0.0
	for i := 0; i < n; i++ {
		start := i * win
		end := start + win
		if end > len(samples) {
			end = len(samples)
		}
		sum := 0.0
		for _, s := range samples[start:end] {
			if s < 0 {
				sum -= s
			} else {
				sum += s
			}
		}
		env[i] = sum / float64(end-start)
		if env[i] > peak {
			peak = env[i]
		}
	}

	scale := 1.0 / (peak + 1e-8)
	for i := range env {
		env[i] *= scale
	}
	return env
}
