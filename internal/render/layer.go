package render

// Kind classifies a layer for diagnostics and ordering conventions.
type Kind string

const (
	KindBackground Kind = "background"
	KindOverlay    Kind = "overlay"
	KindText       Kind = "text"
	KindCaption    Kind = "caption"
)

// RenderFunc produces the layer's pixels for absolute track time t.
// It must be a pure function of t: no I/O, no mutation of shared state.
// Returning nil means the layer is fully transparent at t and composes
// as a no-op.
type RenderFunc func(t float64) *Buffer

// Layer is an independently time-scoped visual generator. Layers are
// immutable once constructed; render funcs may hold precomputed lookup
// tables but never mutate them across calls.
type Layer struct {
	Kind     Kind
	ZIndex   int
	Start    float64
	Duration float64
	Opacity  float64
	Render   RenderFunc
}

// ActiveAt reports whether the layer should render at time t.
func (l *Layer) ActiveAt(t float64) bool {
	return t >= l.Start && t < l.Start+l.Duration
}
