package render

import (
	"image/color"
	"testing"
	"unicode/utf8"
)

func testRasterizer(t *testing.T) *Rasterizer {
	t.Helper()
	ras, err := NewRasterizer(44, 56, 68, 80)
	if err != nil {
		t.Fatal(err)
	}
	return ras
}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func hasInk(buf *Buffer) bool {
	for _, a := range buf.Alpha {
		if a > 0 {
			return true
		}
	}
	return false
}

func TestTextRendersInk(t *testing.T) {
	ras := testRasterizer(t)

	buf := ras.Text("Hello world", 400, 200, 56, white)
	if buf.W != 400 || buf.H != 200 {
		t.Fatalf("box = %dx%d", buf.W, buf.H)
	}
	if !hasInk(buf) {
		t.Fatal("no pixels were drawn")
	}
}

func TestTextEmptyDrawsNothing(t *testing.T) {
	ras := testRasterizer(t)

	for _, text := range []string{"", "   ", "\n\n"} {
		buf := ras.Text(text, 200, 100, 56, white)
		if hasInk(buf) {
			t.Fatalf("text %q drew pixels", text)
		}
	}
}

func TestTextBoundedInput(t *testing.T) {
	ras := testRasterizer(t)

	long := make([]byte, 100000)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}

	// Must not panic or blow up layout: the raster cap truncates first.
	buf := ras.Text(string(long), 400, 300, 44, white)
	if !hasInk(buf) {
		t.Fatal("truncated text should still draw")
	}
}

func TestStaticTextLayerEmptyText(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 56, Color: white, YFrac: 0.1, BoxHFrac: 0.2, ZIndex: 30}

	layer := NewStaticTextLayer(ras, "", 108, 192, 0, 10, opts)
	if layer.Duration != 0 {
		t.Errorf("empty text layer duration = %v, want 0", layer.Duration)
	}
	if layer.ActiveAt(0) || layer.ActiveAt(5) {
		t.Error("empty text layer should never be active")
	}
}

func TestStaticTextLayerServesSameBuffer(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 56, Color: white, YFrac: 0.1, BoxHFrac: 0.2, ZIndex: 30}

	layer := NewStaticTextLayer(ras, "steady", 108, 192, 1, 4, opts)
	if layer.Duration != 3 {
		t.Fatalf("duration = %v, want 3", layer.Duration)
	}

	a, b := layer.Render(1.0), layer.Render(3.9)
	if a == nil || b == nil {
		t.Fatal("static layer rendered nil")
	}
	if a != b {
		t.Error("static layer should serve one precomputed buffer")
	}
}

func TestTypewriterReveal(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 56, Color: white, YFrac: 0.1, BoxHFrac: 0.2, ZIndex: 30}

	layer := NewTypewriterLayer(ras, "abcdefghij", 108, 192, 0, 2.0, opts)

	// n = floor(len * clamp(t/d)): nothing at t=0, everything at t>=d.
	if buf := layer.Render(0); buf != nil {
		t.Error("typewriter at t=0 should reveal nothing")
	}

	half := layer.Render(1.0)
	full := layer.Render(2.0)
	if half == nil || full == nil {
		t.Fatal("typewriter rendered nil mid-reveal")
	}

	inkAt := func(buf *Buffer) int {
		n := 0
		for _, a := range buf.Alpha {
			if a > 0 {
				n++
			}
		}
		return n
	}
	if inkAt(full) <= inkAt(half) {
		t.Error("full reveal should draw more than half reveal")
	}
}

func TestTypedPrefixKeepsRunesWhole(t *testing.T) {
	runes := []rune("Música en la noche")

	for p := 0.0; p <= 1.0; p += 0.01 {
		shown := typedPrefix(runes, p)
		if !utf8.ValidString(shown) {
			t.Fatalf("progress %v revealed invalid UTF-8: %q", p, shown)
		}
	}

	if got := typedPrefix(runes, 0); got != "" {
		t.Errorf("progress 0 = %q, want empty", got)
	}
	if got := typedPrefix(runes, 0.5); got != "Música en" {
		t.Errorf("progress 0.5 = %q, want %q", got, "Música en")
	}
	if got := typedPrefix(runes, 1); got != "Música en la noche" {
		t.Errorf("progress 1 = %q, want the whole text", got)
	}
	if got := typedPrefix(runes, 2); got != "Música en la noche" {
		t.Errorf("progress past 1 = %q, want clamped to the whole text", got)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	got := truncate("ééééééééééé", 10)
	if got != "ééééééé..." {
		t.Errorf("truncate = %q, want %q", got, "ééééééé...")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate emitted invalid UTF-8: %q", got)
	}

	if got := truncate("corto", 10); got != "corto" {
		t.Errorf("short text changed: %q", got)
	}
}

func TestNewRasterizerRequiresSizes(t *testing.T) {
	if _, err := NewRasterizer(); err == nil {
		t.Error("no sizes should fail construction")
	}
}

func TestTypewriterEmptyText(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 56, Color: white, ZIndex: 30}

	layer := NewTypewriterLayer(ras, "", 108, 192, 0, 2.8, opts)
	if layer.Duration != 0 {
		t.Errorf("duration = %v, want 0", layer.Duration)
	}
}

func TestTypewriterDeterministic(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 56, Color: white, YFrac: 0.1, BoxHFrac: 0.2, ZIndex: 30}

	layer := NewTypewriterLayer(ras, "determinism", 108, 192, 0, 2.0, opts)

	a, b := layer.Render(1.3), layer.Render(1.3)
	if a == nil || b == nil {
		t.Fatal("rendered nil")
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("same t produced different pixels")
		}
	}
}

func TestCaptionLayersPartitionWindow(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 44, Color: white, YFrac: 0.86, BoxHFrac: 0.1, ZIndex: 35}

	chunks := []string{"first chunk", "second chunk", "third chunk"}
	layers := NewCaptionLayers(ras, chunks, 108, 192, 9.0, opts)
	if len(layers) != 3 {
		t.Fatalf("got %d layers, want 3", len(layers))
	}

	for i, layer := range layers {
		wantStart := float64(i) * 3.0
		if layer.Start != wantStart || layer.Duration != 3.0 {
			t.Errorf("chunk %d window = [%v, %v), want [%v, %v)", i, layer.Start, layer.Start+layer.Duration, wantStart, wantStart+3.0)
		}
		if layer.Kind != KindCaption {
			t.Errorf("chunk %d kind = %s", i, layer.Kind)
		}
	}

	// Strictly in order, no overlap: at any t exactly one chunk active.
	for _, ts := range []float64{0, 1.5, 3.0, 4.5, 6.0, 8.9} {
		active := 0
		for i := range layers {
			if layers[i].ActiveAt(ts) {
				active++
			}
		}
		if active != 1 {
			t.Errorf("t=%v: %d caption chunks active, want 1", ts, active)
		}
	}
}

func TestCaptionLayersEmpty(t *testing.T) {
	ras := testRasterizer(t)
	opts := TextOptions{Size: 44, Color: white}

	if layers := NewCaptionLayers(ras, nil, 108, 192, 10, opts); layers != nil {
		t.Errorf("no chunks should yield no layers, got %d", len(layers))
	}
}
