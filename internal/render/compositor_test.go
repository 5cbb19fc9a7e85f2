package render

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/keagan/reelforge/internal/logging"
)

// solidLayer renders a uniform color for its whole window.
func solidLayer(w, h int, r, g, b uint8, z int, start, duration, opacity float64) Layer {
	return Layer{
		Kind:     KindOverlay,
		ZIndex:   z,
		Start:    start,
		Duration: duration,
		Opacity:  opacity,
		Render: func(t float64) *Buffer {
			buf := NewBuffer(w, h)
			buf.Fill(r, g, b)
			return buf
		},
	}
}

func TestCompositorStateMachine(t *testing.T) {
	comp := NewCompositor(logging.Nop(), 4, 4, 30)
	if comp.State() != StateAssembling {
		t.Fatal("new compositor should be assembling")
	}

	if _, err := comp.ComposeFrame(0); err == nil {
		t.Error("composing before seal should fail")
	}
	if err := comp.Render(context.Background(), 1, func(*Frame) error { return nil }); err == nil {
		t.Error("rendering before seal should fail")
	}

	if err := comp.Seal(1.0); err == nil {
		t.Error("sealing without layers should fail")
	}

	if err := comp.AddLayers(solidLayer(4, 4, 1, 2, 3, 0, 0, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := comp.Seal(0); err == nil {
		t.Error("sealing with zero duration should fail")
	}
	if err := comp.Seal(1.0); err != nil {
		t.Fatal(err)
	}
	if comp.State() != StateRendering {
		t.Fatal("sealed compositor should be rendering")
	}

	if err := comp.AddLayers(solidLayer(4, 4, 0, 0, 0, 0, 0, 1, 1)); err == nil {
		t.Error("adding layers after seal should fail")
	}
	if err := comp.Seal(1.0); err == nil {
		t.Error("double seal should fail")
	}
}

func TestFrameCountAndTimestamps(t *testing.T) {
	// 30s at 30fps: exactly 900 frames, timestamps k/30, last < 30.
	comp := NewCompositor(logging.Nop(), 2, 2, 30)
	if err := comp.AddLayers(solidLayer(2, 2, 10, 20, 30, 0, 0, 30, 1)); err != nil {
		t.Fatal(err)
	}
	if err := comp.Seal(30.0); err != nil {
		t.Fatal(err)
	}

	if got := comp.FrameCount(); got != 900 {
		t.Fatalf("FrameCount = %d, want 900", got)
	}

	var frames []*Frame
	err := comp.Render(context.Background(), 4, func(f *Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(frames) != 900 {
		t.Fatalf("emitted %d frames, want 900", len(frames))
	}
	for k, f := range frames {
		if f.Index != k {
			t.Fatalf("frame %d delivered out of order (index %d)", k, f.Index)
		}
		if math.Abs(f.Timestamp-float64(k)/30.0) > 1e-12 {
			t.Fatalf("frame %d timestamp = %v, want %v", k, f.Timestamp, float64(k)/30.0)
		}
	}
	if last := frames[len(frames)-1].Timestamp; last >= 30.0 {
		t.Errorf("last timestamp %v, want < 30.0", last)
	}
}

func TestComposeBlending(t *testing.T) {
	comp := NewCompositor(logging.Nop(), 2, 2, 10)
	err := comp.AddLayers(
		// Added out of z order on purpose: seal must sort.
		solidLayer(2, 2, 255, 255, 255, 5, 0, 1, 0.5),
		solidLayer(2, 2, 0, 0, 0, 0, 0, 1, 1.0),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := comp.Seal(1.0); err != nil {
		t.Fatal(err)
	}

	frame, err := comp.ComposeFrame(0)
	if err != nil {
		t.Fatal(err)
	}

	// black*(1-0.5) + white*0.5 = 128 (with round-half-up alpha).
	for i, v := range frame.Pixels.Pix {
		if v != 128 {
			t.Fatalf("pix[%d] = %d, want 128", i, v)
		}
	}
}

func TestInactiveLayersSkipped(t *testing.T) {
	rendered := false
	late := Layer{
		Kind:     KindOverlay,
		ZIndex:   1,
		Start:    5.0,
		Duration: 1.0,
		Opacity:  1,
		Render: func(t float64) *Buffer {
			rendered = true
			buf := NewBuffer(2, 2)
			buf.Fill(255, 0, 0)
			return buf
		},
	}

	comp := NewCompositor(logging.Nop(), 2, 2, 10)
	if err := comp.AddLayers(solidLayer(2, 2, 7, 7, 7, 0, 0, 10, 1), late); err != nil {
		t.Fatal(err)
	}
	if err := comp.Seal(10); err != nil {
		t.Fatal(err)
	}

	frame, err := comp.ComposeFrame(0) // t=0, late layer inactive
	if err != nil {
		t.Fatal(err)
	}
	if rendered {
		t.Error("inactive layer's render func was invoked")
	}
	if r, _, _ := frame.Pixels.At(0, 0); r != 7 {
		t.Errorf("canvas = %d, want base layer only", r)
	}

	// Boundary: active at start, inactive at start+duration.
	if _, err := comp.ComposeFrame(50); err != nil { // t=5.0
		t.Fatal(err)
	}
	if !rendered {
		t.Error("layer should render at its start time")
	}
	rendered = false
	if _, err := comp.ComposeFrame(60); err != nil { // t=6.0
		t.Fatal(err)
	}
	if rendered {
		t.Error("layer should be inactive at start+duration")
	}
}

func TestRenderEmitError(t *testing.T) {
	comp := NewCompositor(logging.Nop(), 2, 2, 10)
	if err := comp.AddLayers(solidLayer(2, 2, 1, 1, 1, 0, 0, 10, 1)); err != nil {
		t.Fatal(err)
	}
	if err := comp.Seal(10); err != nil {
		t.Fatal(err)
	}

	count := 0
	err := comp.Render(context.Background(), 3, func(f *Frame) error {
		count++
		if count == 5 {
			return fmt.Errorf("sink full")
		}
		return nil
	})
	if err == nil {
		t.Fatal("emit error should propagate")
	}
}

func TestRenderCancellation(t *testing.T) {
	comp := NewCompositor(logging.Nop(), 2, 2, 30)
	if err := comp.AddLayers(solidLayer(2, 2, 1, 1, 1, 0, 0, 60, 1)); err != nil {
		t.Fatal(err)
	}
	if err := comp.Seal(60); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	emitted := 0
	err := comp.Render(ctx, 2, func(f *Frame) error {
		emitted++
		if emitted == 10 {
			cancel()
		}
		return nil
	})
	if err == nil {
		t.Fatal("cancellation should surface an error")
	}
	if emitted < 10 {
		t.Errorf("emitted %d frames before cancel, want at least 10", emitted)
	}
}
