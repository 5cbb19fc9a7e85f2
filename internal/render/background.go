package render

import "math"

// NewBackgroundLayer builds the full-canvas animated color field: a
// phase-shifted sine over normalized pixel coordinates, cycling once
// over the track so temporally adjacent frames differ only smoothly.
// The background covers every pixel every frame.
func NewBackgroundLayer(w, h int, duration float64) Layer {
	// The wave argument depends on x and y only through their sum of
	// scaled normalized coordinates; precompute both axes once. A
	// one-pixel axis normalizes over 1 to keep the terms finite.
	xDen := float64(w - 1)
	if w < 2 {
		xDen = 1
	}
	yDen := float64(h - 1)
	if h < 2 {
		yDen = 1
	}
	xTerm := make([]float64, w)
	for x := 0; x < w; x++ {
		xTerm[x] = 2 * math.Pi * 1.5 * float64(x) / xDen
	}
	yTerm := make([]float64, h)
	for y := 0; y < h; y++ {
		yTerm[y] = 2 * math.Pi * 1.2 * float64(y) / yDen
	}

	render := func(t float64) *Buffer {
		buf := NewBuffer(w, h)
		phase := 2 * math.Pi * (t / math.Max(0.01, duration))

		i := 0
		for y := 0; y < h; y++ {
			base := yTerm[y] + phase
			for x := 0; x < w; x++ {
				v := 0.5 + 0.5*math.Sin(xTerm[x]+base)
				buf.Pix[i] = clamp8(0.6*v + 0.25)
				buf.Pix[i+1] = clamp8(0.25*v + 0.05)
				buf.Pix[i+2] = clamp8(0.9*v + 0.25)
				i += 3
			}
		}
		return buf
	}

	return Layer{
		Kind:     KindBackground,
		ZIndex:   0,
		Start:    0,
		Duration: duration,
		Opacity:  1.0,
		Render:   render,
	}
}

// clamp8 maps a [0,1] float to a byte, clamping out-of-range values.
func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
