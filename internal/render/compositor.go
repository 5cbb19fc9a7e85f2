package render

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// State tracks the compositor's lifecycle.
type State int

const (
	// StateAssembling accepts layers; no frame can be produced yet.
	StateAssembling State = iota
	// StateRendering means analysis, timeline and layers all exist and
	// the frame loop may run.
	StateRendering
)

// Frame is one composited output tick. Frames are never mutated after
// composition; ownership passes to the consumer.
type Frame struct {
	Index     int
	Timestamp float64
	Pixels    *Buffer
}

// Compositor merges time-scoped layers into one RGB frame per tick.
type Compositor struct {
	logger   zerolog.Logger
	width    int
	height   int
	fps      float64
	duration float64
	layers   []Layer
	state    State
}

// NewCompositor creates a compositor in the assembling state.
func NewCompositor(logger zerolog.Logger, width, height int, fps float64) *Compositor {
	return &Compositor{
		logger: logger.With().Str("component", "compositor").Logger(),
		width:  width,
		height: height,
		fps:    fps,
		state:  StateAssembling,
	}
}

// AddLayers appends layers while assembling.
func (c *Compositor) AddLayers(layers ...Layer) error {
	if c.state != StateAssembling {
		return fmt.Errorf("cannot add layers while rendering")
	}
	c.layers = append(c.layers, layers...)
	return nil
}

// Seal transitions to the rendering state. This is the one
// synchronization barrier in the pipeline: every layer must exist
// before the first frame is composed. Layers are fixed in ascending
// zIndex order from here on.
func (c *Compositor) Seal(duration float64) error {
	if c.state != StateAssembling {
		return fmt.Errorf("compositor already sealed")
	}
	if duration <= 0 {
		return fmt.Errorf("cannot seal with duration %.3fs", duration)
	}
	if len(c.layers) == 0 {
		return fmt.Errorf("cannot seal without layers")
	}

	sort.SliceStable(c.layers, func(i, j int) bool {
		return c.layers[i].ZIndex < c.layers[j].ZIndex
	})
	c.duration = duration
	c.state = StateRendering

	c.logger.Debug().
		Int("layers", len(c.layers)).
		Float64("duration", duration).
		Msg("compositor sealed")
	return nil
}

// State returns the current lifecycle state.
func (c *Compositor) State() State {
	return c.state
}

// FrameCount returns ceil(duration*fps): timestamps k/fps for
// k = 0..count-1, so the last timestamp is always < duration.
func (c *Compositor) FrameCount() int {
	return int(math.Ceil(c.duration * c.fps))
}

// ComposeFrame renders the k-th frame: an opaque black canvas with all
// active layers blended left to right in ascending zIndex. Inactive
// layers are skipped entirely. Composition depends only on k, the
// immutable layer list and each layer's own inputs, so any frame can be
// computed independently of any other.
func (c *Compositor) ComposeFrame(k int) (*Frame, error) {
	if c.state != StateRendering {
		return nil, fmt.Errorf("compositor not sealed")
	}

	t := float64(k) / c.fps
	canvas := NewBuffer(c.width, c.height)

	for i := range c.layers {
		layer := &c.layers[i]
		if !layer.ActiveAt(t) {
			continue
		}
		canvas.Blend(layer.Render(t), layer.Opacity)
	}

	return &Frame{Index: k, Timestamp: t, Pixels: canvas}, nil
}

// Render composes every frame and delivers them to emit in strictly
// increasing index order. Frames are computed by the given number of
// parallel workers with no shared mutable state; out-of-order results
// are held back until their predecessors have been emitted. A non-nil
// error from emit, or context cancellation, stops the loop; frames
// already emitted stay emitted.
func (c *Compositor) Render(ctx context.Context, workers int, emit func(*Frame) error) error {
	if c.state != StateRendering {
		return fmt.Errorf("compositor not sealed")
	}
	if workers < 1 {
		workers = 1
	}

	total := c.FrameCount()
	c.logger.Info().
		Int("frames", total).
		Int("workers", workers).
		Float64("fps", c.fps).
		Msg("render phase started")

	indices := make(chan int)
	results := make(chan *Frame, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(indices)
		for k := 0; k < total; k++ {
			select {
			case indices <- k:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer wg.Done()
			for k := range indices {
				frame, err := c.ComposeFrame(k)
				if err != nil {
					return err
				}
				select {
				case results <- frame:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		pending := make(map[int]*Frame)
		next := 0
		for frame := range results {
			pending[frame.Index] = frame
			for {
				f, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := emit(f); err != nil {
					return fmt.Errorf("emit frame %d: %w", next, err)
				}
				next++
			}
		}
		if next != total && gctx.Err() == nil {
			return fmt.Errorf("emitted %d of %d frames", next, total)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Info().Int("frames", total).Msg("render phase complete")
	return nil
}
