package render

import (
	"image/color"

	"github.com/keagan/reelforge/internal/analysis"
	"github.com/keagan/reelforge/internal/concept"
	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/timeline"
)

// titleWindowSeconds is the typewriter title slot at the head of the
// track (shorter tracks use the full duration).
const titleWindowSeconds = 2.8

// particleSeed fixes the particle field so renders are reproducible.
const particleSeed = 1337

// fallbackTitle is the brand card shown when the concept has no title.
const fallbackTitle = "reelforge"

// BuildLayers assembles the full layer list for one render job from the
// concept, the audio analysis and the timeline. Missing concept fields
// degrade to zero-duration layers; nothing here fails.
func BuildLayers(cfg *config.Config, c *concept.Concept, an *analysis.Analysis, tl *timeline.Timeline) ([]Layer, error) {
	w, h := cfg.Video.Width, cfg.Video.Height
	duration := an.DurationSeconds

	ras, err := NewRasterizer(
		cfg.Text.TitleSize,
		cfg.Text.BodySize,
		cfg.Text.CaptionSize,
		cfg.Text.HashtagSize,
	)
	if err != nil {
		return nil, err
	}

	layers := []Layer{
		NewBackgroundLayer(w, h, duration),
		NewBeatPulseLayer(w, h, an.BeatTimes, duration),
	}

	// Kinetic title during the intro.
	titleEnd := titleWindowSeconds
	if duration < titleEnd {
		titleEnd = duration
	}
	title := concept.SafeText(c.Title, cfg.Text.MaxTitleLen)
	titleOpts := TextOptions{
		Size:     cfg.Text.TitleSize,
		Color:    color.NRGBA{R: 255, G: 240, B: 200, A: 255},
		YFrac:    0.18,
		BoxHFrac: 0.146,
		ZIndex:   30,
	}
	if title != "" {
		layers = append(layers, NewTypewriterLayer(ras, title, w, h, 0, titleEnd, titleOpts))
	} else {
		titleOpts.YFrac = 0.12
		layers = append(layers, NewStaticTextLayer(ras, fallbackTitle, w, h, 0, titleEnd, titleOpts))
	}

	// One text layer per remaining story beat, scoped to its segment.
	bodyOpts := TextOptions{
		Size:     cfg.Text.BodySize,
		Color:    color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		YFrac:    0.12,
		BoxHFrac: 0.156,
		ZIndex:   31,
	}
	beats := []struct {
		name timeline.SegmentName
		text string
	}{
		{timeline.HookMoment, c.Story.HookMoment},
		{timeline.Development, c.Story.Development},
		{timeline.Climax, c.Story.Climax},
		{timeline.Closing, c.Story.Closing},
	}
	for _, beat := range beats {
		seg := tl.Segment(beat.name)
		text := concept.SafeText(beat.text, cfg.Text.MaxBodyLen)
		layers = append(layers, NewStaticTextLayer(ras, text, w, h, seg.Start, seg.End, bodyOpts))
	}

	// Hashtag strip pinned to the bottom for the whole track.
	hashtagOpts := TextOptions{
		Size:     cfg.Text.HashtagSize,
		Color:    color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		YFrac:    0.92,
		BoxHFrac: 0.083,
		ZIndex:   40,
	}
	layers = append(layers, NewStaticTextLayer(ras, c.HashtagLine(5), w, h, 0, duration, hashtagOpts))

	if cfg.Video.Style == config.StyleEnhanced {
		layers = append(layers,
			NewParticleLayer(w, h, duration, particleSeed),
			NewWaveformLayer(w, h, an.LoudnessEnvelope, duration),
		)

		captionOpts := TextOptions{
			Size:     cfg.Text.CaptionSize,
			Color:    color.NRGBA{R: 255, G: 235, B: 140, A: 255},
			YFrac:    0.86,
			BoxHFrac: 0.104,
			ZIndex:   35,
		}
		chunks := concept.Sentences(concept.SafeText(c.Transcription, cfg.Text.MaxCaptionLen))
		layers = append(layers, NewCaptionLayers(ras, chunks, w, h, duration, captionOpts)...)
	}

	return layers, nil
}
