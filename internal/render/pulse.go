package render

import "sort"

// PulseWindow is the half-width in seconds of the beat pulse: intensity
// decays smoothly to 0 at this distance from the nearest beat.
const PulseWindow = 0.10

// pulseMaxAlpha caps the tint so the pulse stays semi-transparent.
const pulseMaxAlpha = 0.35

// PulseIntensity returns the raw pulse intensity at time t: 1.0 exactly
// on the nearest beat, linearly decaying to 0 at PulseWindow distance,
// and 0 whenever the nearest beat is farther than the window. beats
// must be sorted ascending. An empty slice always yields 0.
func PulseIntensity(beats []float64, t float64) float64 {
	if len(beats) == 0 {
		return 0
	}

	i := sort.SearchFloat64s(beats, t)
	nearest := 1e18
	if i < len(beats) {
		nearest = beats[i] - t
	}
	if i > 0 {
		if d := t - beats[i-1]; d < nearest {
			nearest = d
		}
	}

	if nearest >= PulseWindow {
		return 0
	}
	return 1.0 - nearest/PulseWindow
}

// NewBeatPulseLayer builds a full-canvas white tint whose alpha tracks
// the nearest beat with a quadratic falloff. With no beats the layer
// renders nil every tick, which composes as a no-op.
func NewBeatPulseLayer(w, h int, beats []float64, duration float64) Layer {
	sorted := make([]float64, len(beats))
	copy(sorted, beats)
	sort.Float64s(sorted)

	render := func(t float64) *Buffer {
		p := PulseIntensity(sorted, t)
		if p <= 0 {
			return nil
		}
		alpha := p * p * pulseMaxAlpha

		buf := NewAlphaBuffer(w, h)
		buf.Fill(255, 255, 255)
		buf.FillAlpha(uint8(alpha*255 + 0.5))
		return buf
	}

	return Layer{
		Kind:     KindOverlay,
		ZIndex:   10,
		Start:    0,
		Duration: duration,
		Opacity:  1.0,
		Render:   render,
	}
}
