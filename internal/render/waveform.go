package render

import "math"

// EnvelopeIndex maps time t to an index into the loudness envelope:
// clamp(floor(t/duration * len), 0, len-1).
func EnvelopeIndex(t, duration float64, envLen int) int {
	if envLen == 0 {
		return 0
	}
	idx := int((t / math.Max(0.01, duration)) * float64(envLen))
	if idx < 0 {
		idx = 0
	}
	if idx >= envLen {
		idx = envLen - 1
	}
	return idx
}

// NewWaveformLayer builds a horizontal loudness bar near the bottom of
// the canvas. The bar fill is driven by the real loudness envelope
// sampled at EnvelopeIndex — not a synthetic oscillator — so its state
// is fully determined by (t, envelope). An empty envelope yields a
// zero-duration layer.
func NewWaveformLayer(w, h int, envelope []float64, duration float64) Layer {
	if len(envelope) == 0 {
		return Layer{Kind: KindOverlay, ZIndex: 20, Opacity: 0}
	}

	barW := int(float64(w) * 0.9)
	barH := int(float64(h) * 0.073)
	x0 := int(float64(w) * 0.05)
	y0 := int(float64(h) * 0.78)

	render := func(t float64) *Buffer {
		val := envelope[EnvelopeIndex(t, duration, len(envelope))]
		filled := int(float64(barW) * val)
		if filled <= 0 {
			return nil
		}

		buf := NewAlphaBuffer(w, h)
		for y := y0; y < y0+barH && y < h; y++ {
			row := y * w
			for x := x0; x < x0+filled && x < w; x++ {
				i := (row + x) * 3
				buf.Pix[i] = 200
				buf.Pix[i+1] = 200
				buf.Pix[i+2] = 255
				buf.Alpha[row+x] = 255
			}
		}
		return buf
	}

	return Layer{
		Kind:     KindOverlay,
		ZIndex:   20,
		Start:    0,
		Duration: duration,
		Opacity:  0.9,
		Render:   render,
	}
}
