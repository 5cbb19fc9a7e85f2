package render

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	textPadding     = 20 // horizontal margin inside a text box
	lineSpacing     = 8
	outlineOffset   = 2
	maxRasterLength = 220 // hard cap applied before any layout
)

// Rasterizer owns the font resource and a fixed set of faces. All faces
// are created up front so render funcs never touch shared mutable state;
// it replaces any filesystem font discovery with an embedded typeface.
type Rasterizer struct {
	faces map[float64]font.Face
	sizes []float64
}

// NewRasterizer parses the embedded typeface and prepares one face per
// requested point size.
func NewRasterizer(sizes ...float64) (*Rasterizer, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("rasterizer needs at least one face size")
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}

	r := &Rasterizer{faces: make(map[float64]font.Face, len(sizes))}
	for _, size := range sizes {
		if _, ok := r.faces[size]; ok {
			continue
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("create %gpt face: %w", size, err)
		}
		r.faces[size] = face
		r.sizes = append(r.sizes, size)
	}
	sort.Float64s(r.sizes)
	return r, nil
}

// face returns the prepared face closest to the requested size.
func (r *Rasterizer) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	best := r.sizes[0]
	for _, s := range r.sizes {
		if abs(s-size) < abs(best-size) {
			best = s
		}
	}
	return r.faces[best]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Text renders word-wrapped, center-aligned text with a dark outline
// into an alpha buffer of the given box size. Input longer than the
// raster cap is truncated so layout cost per frame stays bounded.
func (r *Rasterizer) Text(text string, boxW, boxH int, size float64, col color.NRGBA) *Buffer {
	text = truncate(text, maxRasterLength)
	if strings.TrimSpace(text) == "" {
		return NewAlphaBuffer(boxW, boxH)
	}

	face := r.face(size)
	img := image.NewRGBA(image.Rect(0, 0, boxW, boxH))
	measure := font.Drawer{Face: face}

	lines := wrapWords(text, &measure, boxW-textPadding)

	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	totalH := len(lines)*lineH + (len(lines)-1)*lineSpacing
	y := (boxH-totalH)/2 + ascent

	outline := image.NewUniform(color.NRGBA{R: 0, G: 0, B: 0, A: 220})
	fill := image.NewUniform(col)

	for _, line := range lines {
		width := measure.MeasureString(line).Ceil()
		x := (boxW - width) / 2

		for _, dx := range [3]int{-outlineOffset, 0, outlineOffset} {
			for _, dy := range [3]int{-outlineOffset, 0, outlineOffset} {
				if dx == 0 && dy == 0 {
					continue
				}
				d := font.Drawer{
					Dst:  img,
					Src:  outline,
					Face: face,
					Dot:  fixed.P(x+dx, y+dy),
				}
				d.DrawString(line)
			}
		}
		d := font.Drawer{Dst: img, Src: fill, Face: face, Dot: fixed.P(x, y)}
		d.DrawString(line)

		y += lineH + lineSpacing
	}

	return bufferFromRGBA(img)
}

// wrapWords greedily packs words into lines no wider than maxWidth px.
func wrapWords(text string, measure *font.Drawer, maxWidth int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := strings.TrimSpace(line + " " + word)
		if measure.MeasureString(candidate).Ceil() <= maxWidth || line == "" {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func truncate(text string, maxLen int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return text
}

// bufferFromRGBA converts a premultiplied RGBA image to a straight
// color + alpha buffer.
func bufferFromRGBA(img *image.RGBA) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewAlphaBuffer(w, h)

	for p := 0; p < w*h; p++ {
		si := p * 4
		a := img.Pix[si+3]
		if a == 0 {
			continue
		}
		// Un-premultiply back to straight color.
		buf.Pix[p*3] = uint8(uint32(img.Pix[si]) * 255 / uint32(a))
		buf.Pix[p*3+1] = uint8(uint32(img.Pix[si+1]) * 255 / uint32(a))
		buf.Pix[p*3+2] = uint8(uint32(img.Pix[si+2]) * 255 / uint32(a))
		buf.Alpha[p] = a
	}
	return buf
}
