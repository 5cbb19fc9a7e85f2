package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

const (
	frameSize = 2048
	hopSize   = 512

	// Onsets closer together than this are treated as one beat.
	minOnsetGapSeconds = 0.15
)

// spectrum holds per-frame magnitude spectra for the whole track.
type spectrum struct {
	sampleRate int
	mags       [][]float64 // [frame][bin]
}

// newSpectrum computes an STFT magnitude matrix with a Hann window.
func newSpectrum(samples []float64, sampleRate int) (*spectrum, error) {
	if len(samples) < frameSize {
		return nil, fmt.Errorf("track shorter than one analysis frame (%d samples)", frameSize)
	}

	fft := fourier.NewFFT(frameSize)
	window := hannWindow(frameSize)

	numFrames := 1 + (len(samples)-frameSize)/hopSize
	mags := make([][]float64, numFrames)

	frame := make([]float64, frameSize)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		for j := 0; j < frameSize; j++ {
			frame[j] = samples[start+j] * window[j]
		}
		coeffs := fft.Coefficients(nil, frame)
		mag := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mag[k] = cmplx.Abs(c)
		}
		mags[i] = mag
	}

	return &spectrum{sampleRate: sampleRate, mags: mags}, nil
}

// onsetTimes detects rhythmic onsets from half-wave-rectified spectral
// flux, peak-picked against a moving-average threshold with a 150ms
// refractory gap. The result is ordered, deduplicated and clamped to
// [0, duration]; it may be empty.
func (s *spectrum) onsetTimes(duration float64) ([]float64, error) {
	if len(s.mags) < 3 {
		return nil, errors.New("too few frames for onset detection")
	}

	flux := make([]float64, len(s.mags))
	for i := 1; i < len(s.mags); i++ {
		sum := 0.0
		prev := s.mags[i-1]
		for k, m := range s.mags[i] {
			if d := m - prev[k]; d > 0 {
				sum += d
			}
		}
		flux[i] = sum
	}

	peak := floats.Max(flux)
	if peak <= 0 {
		return nil, nil // silence: no onsets, not an error
	}
	floats.Scale(1/peak, flux)

	// Moving-average threshold over roughly half a second of frames.
	const threshWin = 21
	const threshBias = 0.07
	threshold := make([]float64, len(flux))
	for i := range flux {
		lo := i - threshWin/2
		hi := i + threshWin/2 + 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(flux) {
			hi = len(flux)
		}
		threshold[i] = floats.Sum(flux[lo:hi])/float64(hi-lo) + threshBias
	}

	minGap := minOnsetGapSeconds
	lastOnset := -minGap

	var times []float64
	for i := 1; i < len(flux)-1; i++ {
		if flux[i] < threshold[i] || flux[i] < flux[i-1] || flux[i] < flux[i+1] {
			continue
		}
		t := (float64(i)*float64(hopSize) + frameSize/2) / float64(s.sampleRate)
		if t-lastOnset < minGap {
			continue
		}
		if t < 0 || t > duration {
			continue
		}
		times = append(times, t)
		lastOnset = t
	}

	return times, nil
}

// centroid returns the energy-weighted average spectral centroid in Hz
// over all frames that carry energy.
func (s *spectrum) centroid() (float64, error) {
	binHz := float64(s.sampleRate) / frameSize

	total := 0.0
	frames := 0
	for _, mag := range s.mags {
		energy := floats.Sum(mag)
		if energy <= 1e-12 {
			continue
		}
		weighted := 0.0
		for k, m := range mag {
			weighted += float64(k) * binHz * m
		}
		total += weighted / energy
		frames++
	}

	if frames == 0 {
		return 0, errors.New("no frames with spectral energy")
	}
	return total / float64(frames), nil
}

// tempoFromBeats converts the median inter-onset interval to BPM.
func tempoFromBeats(beats []float64) (float64, error) {
	if len(beats) < 2 {
		return 0, errors.New("need at least two beats for tempo")
	}

	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		if d := beats[i] - beats[i-1]; d > 0 {
			intervals = append(intervals, d)
		}
	}
	if len(intervals) == 0 {
		return 0, errors.New("no positive beat intervals")
	}

	sort.Float64s(intervals)
	median := intervals[len(intervals)/2]
	if len(intervals)%2 == 0 {
		median = (intervals[len(intervals)/2-1] + intervals[len(intervals)/2]) / 2
	}
	return 60.0 / median, nil
}

// averagePitch estimates the fundamental frequency by autocorrelating
// energetic frames and averaging the winning lags. Only lags between
// 50Hz and 1kHz are considered.
func averagePitch(samples []float64, sampleRate int) (float64, error) {
	if len(samples) < frameSize {
		return 0, errors.New("track too short for pitch analysis")
	}

	minLag := sampleRate / 1000 // 1 kHz
	maxLag := sampleRate / 50   // 50 Hz
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= frameSize {
		maxLag = frameSize - 1
	}
	if minLag >= maxLag {
		return 0, errors.New("sample rate too low for pitch lags")
	}

	// Every ~0.5s is plenty for an average.
	step := sampleRate / 2
	if step < frameSize {
		step = frameSize
	}

	var sum float64
	var count int
	for start := 0; start+frameSize <= len(samples); start += step {
		frame := samples[start : start+frameSize]

		rms := 0.0
		for _, s := range frame {
			rms += s * s
		}
		rms = math.Sqrt(rms / frameSize)
		if rms < 1e-4 {
			continue // skip silent frames
		}

		bestLag, bestCorr := 0, 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			corr := 0.0
			for i := 0; i+lag < frameSize; i++ {
				corr += frame[i] * frame[i+lag]
			}
			if corr > bestCorr {
				bestCorr = corr
				bestLag = lag
			}
		}
		if bestLag > 0 {
			sum += float64(sampleRate) / float64(bestLag)
			count++
		}
	}

	if count == 0 {
		return 0, errors.New("no voiced frames found")
	}
	return sum / float64(count), nil
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
