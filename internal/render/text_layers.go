package render

import (
	"image/color"
)

// TextOptions places a text box on the canvas.
type TextOptions struct {
	Size     float64
	Color    color.NRGBA
	YFrac    float64 // top of the box as a fraction of canvas height
	BoxHFrac float64 // box height as a fraction of canvas height
	ZIndex   int
}

// NewStaticTextLayer renders text once at construction and serves the
// same buffer every tick. Empty text yields a zero-duration layer that
// never renders.
func NewStaticTextLayer(ras *Rasterizer, text string, w, h int, start, end float64, opts TextOptions) Layer {
	if text == "" || end <= start {
		return Layer{Kind: KindText, ZIndex: opts.ZIndex, Start: start, Opacity: 0}
	}

	boxW := int(float64(w) * 0.9)
	boxH := int(float64(h) * opts.BoxHFrac)
	box := ras.Text(text, boxW, boxH, opts.Size, opts.Color)

	canvas := NewAlphaBuffer(w, h)
	canvas.Paste(box, (w-boxW)/2, int(float64(h)*opts.YFrac))

	return Layer{
		Kind:     KindText,
		ZIndex:   opts.ZIndex,
		Start:    start,
		Duration: end - start,
		Opacity:  1.0,
		Render:   func(float64) *Buffer { return canvas },
	}
}

// typedPrefix returns the first floor(len*progress) characters of the
// rune sequence, so a partial reveal never splits a multibyte rune.
func typedPrefix(runes []rune, progress float64) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	n := int(float64(len(runes)) * progress)
	return string(runes[:n])
}

// NewTypewriterLayer reveals the text character by character: n grows
// linearly with local time as floor(len * clamp(tLocal/duration, 0, 1)).
// Empty text yields a zero-duration layer.
func NewTypewriterLayer(ras *Rasterizer, text string, w, h int, start, duration float64, opts TextOptions) Layer {
	if text == "" || duration <= 0 {
		return Layer{Kind: KindText, ZIndex: opts.ZIndex, Start: start, Opacity: 0}
	}

	boxW := int(float64(w) * 0.9)
	boxH := int(float64(h) * opts.BoxHFrac)
	x0 := (w - boxW) / 2
	y0 := int(float64(h) * opts.YFrac)
	runes := []rune(text)

	render := func(t float64) *Buffer {
		shown := typedPrefix(runes, (t-start)/duration)
		if shown == "" {
			return nil
		}

		box := ras.Text(shown, boxW, boxH, opts.Size, opts.Color)
		canvas := NewAlphaBuffer(w, h)
		canvas.Paste(box, x0, y0)
		return canvas
	}

	return Layer{
		Kind:     KindText,
		ZIndex:   opts.ZIndex,
		Start:    start,
		Duration: duration,
		Opacity:  1.0,
		Render:   render,
	}
}

// NewCaptionLayers splits text into sentence-like chunks and gives each
// an equal slice of the window, advancing strictly in order with no
// overlap. Chunks are pre-rendered; empty text yields no layers.
func NewCaptionLayers(ras *Rasterizer, chunks []string, w, h int, duration float64, opts TextOptions) []Layer {
	if len(chunks) == 0 || duration <= 0 {
		return nil
	}

	per := duration / float64(len(chunks))
	layers := make([]Layer, 0, len(chunks))
	start := 0.0
	for _, chunk := range chunks {
		end := start + per
		if end > duration {
			end = duration
		}
		layer := NewStaticTextLayer(ras, chunk, w, h, start, end, opts)
		layer.Kind = KindCaption
		layers = append(layers, layer)
		start = end
	}
	return layers
}
