package render

// Buffer is a fixed-size RGB pixel buffer, 8 bits per channel. Alpha is
// an optional per-pixel coverage plane (len W*H); when nil the layer's
// scalar opacity applies uniformly.
type Buffer struct {
	W, H  int
	Pix   []uint8 // RGB interleaved, len = W*H*3
	Alpha []uint8 // optional, len = W*H
}

// NewBuffer allocates a black, fully opaque buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{W: w, H: h, Pix: make([]uint8, w*h*3)}
}

// NewAlphaBuffer allocates a black buffer with a zeroed (fully
// transparent) alpha plane.
func NewAlphaBuffer(w, h int) *Buffer {
	return &Buffer{W: w, H: h, Pix: make([]uint8, w*h*3), Alpha: make([]uint8, w*h)}
}

// Fill sets every pixel to the given color.
func (b *Buffer) Fill(r, g, bl uint8) {
	for i := 0; i < len(b.Pix); i += 3 {
		b.Pix[i] = r
		b.Pix[i+1] = g
		b.Pix[i+2] = bl
	}
}

// FillAlpha sets the whole alpha plane to a.
func (b *Buffer) FillAlpha(a uint8) {
	for i := range b.Alpha {
		b.Alpha[i] = a
	}
}

// Set writes one pixel, ignoring out-of-bounds coordinates.
func (b *Buffer) Set(x, y int, r, g, bl uint8) {
	if x < 0 || x >= b.W || y < 0 || y >= b.H {
		return
	}
	i := (y*b.W + x) * 3
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
}

// SetAlpha writes one alpha sample, ignoring out-of-bounds coordinates.
func (b *Buffer) SetAlpha(x, y int, a uint8) {
	if x < 0 || x >= b.W || y < 0 || y >= b.H || b.Alpha == nil {
		return
	}
	b.Alpha[y*b.W+x] = a
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) (r, g, bl uint8) {
	i := (y*b.W + x) * 3
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Blend composites src onto b with the given scalar opacity:
// dst = dst*(1-a) + src*a. When src carries an alpha plane the
// effective per-pixel alpha is opacity * alpha/255, so fully
// transparent source pixels leave the canvas untouched.
func (b *Buffer) Blend(src *Buffer, opacity float64) {
	if src == nil || opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	if src.Alpha == nil {
		// Uniform blend over the flat pixel slice.
		a := uint32(opacity*255 + 0.5)
		inv := 255 - a
		for i := range b.Pix {
			b.Pix[i] = uint8((uint32(b.Pix[i])*inv + uint32(src.Pix[i])*a) / 255)
		}
		return
	}

	scaled := uint32(opacity*255 + 0.5)
	for p, sa := range src.Alpha {
		if sa == 0 {
			continue
		}
		a := scaled * uint32(sa) / 255
		inv := 255 - a
		i := p * 3
		b.Pix[i] = uint8((uint32(b.Pix[i])*inv + uint32(src.Pix[i])*a) / 255)
		b.Pix[i+1] = uint8((uint32(b.Pix[i+1])*inv + uint32(src.Pix[i+1])*a) / 255)
		b.Pix[i+2] = uint8((uint32(b.Pix[i+2])*inv + uint32(src.Pix[i+2])*a) / 255)
	}
}

// Paste copies src (with its alpha plane, if any) into b at (x0, y0).
// b must have an alpha plane if src does.
func (b *Buffer) Paste(src *Buffer, x0, y0 int) {
	for y := 0; y < src.H; y++ {
		ty := y0 + y
		if ty < 0 || ty >= b.H {
			continue
		}
		for x := 0; x < src.W; x++ {
			tx := x0 + x
			if tx < 0 || tx >= b.W {
				continue
			}
			si := (y*src.W + x) * 3
			ti := (ty*b.W + tx) * 3
			b.Pix[ti] = src.Pix[si]
			b.Pix[ti+1] = src.Pix[si+1]
			b.Pix[ti+2] = src.Pix[si+2]
			if src.Alpha != nil && b.Alpha != nil {
				b.Alpha[ty*b.W+tx] = src.Alpha[y*src.W+x]
			}
		}
	}
}
