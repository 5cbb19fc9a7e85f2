package render

import (
	"math"
	"math/rand"
)

const (
	particleCount   = 200
	particleGravity = 50.0 // px/s^2, downward
	particleMaxSize = 10.0
)

// particle holds the immutable initial state of one particle. Its
// position at any time is derived analytically from this state, never
// integrated frame to frame, so frames can be rendered out of order.
type particle struct {
	x0, y0 float64
	vx, vy float64
	life   float64 // seconds per cycle
	phase  float64 // flicker phase offset
	r, g, b uint8
}

// NewParticleLayer builds a drifting spark field. All particle state is
// generated once from the given seed; at render time each particle's
// position is the closed-form ballistic solution
// p(t) = p0 + v0*age + g*age^2/2 with age = t mod life, and its
// brightness flickers with a deterministic oscillator of t. Two calls
// with the same seed and t produce identical pixels.
func NewParticleLayer(w, h int, duration float64, seed int64) Layer {
	rng := rand.New(rand.NewSource(seed))

	parts := make([]particle, particleCount)
	for i := range parts {
		parts[i] = particle{
			x0:    rng.Float64() * float64(w),
			y0:    rng.Float64() * float64(h),
			vx:    rng.Float64()*400 - 200,
			vy:    rng.Float64()*400 - 200,
			life:  0.5 + rng.Float64()*1.5,
			phase: rng.Float64() * 2 * math.Pi,
			r:     uint8(200 + rng.Intn(56)),
			g:     uint8(100 + rng.Intn(156)),
			b:     uint8(rng.Intn(256)),
		}
	}

	render := func(t float64) *Buffer {
		buf := NewAlphaBuffer(w, h)
		drew := false

		for i := range parts {
			p := &parts[i]
			age := math.Mod(t, p.life)
			frac := 1.0 - age/p.life // remaining life in [0,1]

			x := p.x0 + p.vx*age
			y := p.y0 + p.vy*age + 0.5*particleGravity*age*age
			if x < 0 || x >= float64(w) || y < 0 || y >= float64(h) {
				continue
			}

			flicker := 0.8 + 0.2*math.Sin(2*math.Pi*7*t+p.phase)
			alpha := frac * flicker
			radius := int(particleMaxSize * frac)
			if radius < 1 || alpha <= 0 {
				continue
			}

			drawDisc(buf, int(x), int(y), radius, p.r, p.g, p.b, uint8(alpha*255))
			drew = true
		}

		if !drew {
			return nil
		}
		return buf
	}

	return Layer{
		Kind:     KindOverlay,
		ZIndex:   15,
		Start:    0,
		Duration: duration,
		Opacity:  0.9,
		Render:   render,
	}
}

// drawDisc fills a circle of the given radius, clipped to the buffer.
func drawDisc(buf *Buffer, cx, cy, radius int, r, g, b, a uint8) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < 0 || y >= buf.H {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			x := cx + dx
			if x < 0 || x >= buf.W {
				continue
			}
			i := (y*buf.W + x) * 3
			buf.Pix[i] = r
			buf.Pix[i+1] = g
			buf.Pix[i+2] = b
			buf.Alpha[y*buf.W+x] = a
		}
	}
}
