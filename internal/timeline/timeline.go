package timeline

import (
	"fmt"

	"github.com/keagan/reelforge/internal/analysis"
)

// SegmentName identifies one of the five narrative phases.
type SegmentName string

const (
	Intro       SegmentName = "intro"
	HookMoment  SegmentName = "hook_moment"
	Development SegmentName = "development"
	Climax      SegmentName = "climax"
	Closing     SegmentName = "closing"
)

// Order is the canonical segment order.
var Order = []SegmentName{Intro, HookMoment, Development, Climax, Closing}

// proportions of total duration, in canonical order.
var proportions = map[SegmentName]float64{
	Intro:       0.10,
	HookMoment:  0.10,
	Development: 0.50,
	Climax:      0.20,
	Closing:     0.10,
}

// Segment is one contiguous narrative phase.
type Segment struct {
	Name  SegmentName
	Start float64
	End   float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Timeline maps the full track duration onto the five segments. The
// segments are contiguous and cover [0, duration] with no gaps.
type Timeline struct {
	Duration float64
	segments map[SegmentName]Segment
}

// Split divides duration into the five fixed-proportion segments.
// Non-positive durations propagate ErrInvalidAudio.
func Split(duration float64) (*Timeline, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration %.3fs", analysis.ErrInvalidAudio, duration)
	}

	segments := make(map[SegmentName]Segment, len(Order))
	cursor := 0.0
	for i, name := range Order {
		end := cursor + duration*proportions[name]
		if i == len(Order)-1 {
			end = duration // absorb float drift so the cover is exact
		}
		segments[name] = Segment{Name: name, Start: cursor, End: end}
		cursor = end
	}

	return &Timeline{Duration: duration, segments: segments}, nil
}

// Segment returns the named segment.
func (t *Timeline) Segment(name SegmentName) Segment {
	return t.segments[name]
}

// Segments returns all segments in canonical order.
func (t *Timeline) Segments() []Segment {
	out := make([]Segment, 0, len(Order))
	for _, name := range Order {
		out = append(out, t.segments[name])
	}
	return out
}

// At returns the segment containing time ts. Times at or past the end
// of the track fall into the closing segment.
func (t *Timeline) At(ts float64) Segment {
	for _, name := range Order {
		seg := t.segments[name]
		if ts >= seg.Start && ts < seg.End {
			return seg
		}
	}
	return t.segments[Closing]
}
