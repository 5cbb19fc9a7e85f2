package concept

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Story holds the five named narrative beats. Every field is optional;
// an absent beat simply produces no text layer for its segment.
type Story struct {
	Intro       string `json:"intro"`
	HookMoment  string `json:"hook_moment"`
	Development string `json:"development"`
	Climax      string `json:"climax"`
	Closing     string `json:"closing"`
}

// Concept is the externally supplied narrative/metadata object that
// drives the text layers. The renderer treats it as read-only.
type Concept struct {
	Title         string   `json:"concept_title"`
	Story         Story    `json:"story_structure"`
	Hashtags      []string `json:"hashtags"`
	Transcription string   `json:"transcription,omitempty"`
}

// document matches the integrated analysis JSON the upstream generator
// writes: a list of concepts plus the raw transcription.
type document struct {
	Concepts      []Concept `json:"tiktok_concepts"`
	Transcription string    `json:"transcription"`
}

// LoadFile reads a concept from a JSON file. Both a bare concept object
// and the integrated {"tiktok_concepts": [...]} document are accepted;
// for the latter the first concept is used.
func LoadFile(path string) (*Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read concept: %w", err)
	}
	return Parse(data)
}

// Parse decodes concept JSON from a byte slice.
func Parse(data []byte) (*Concept, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Concepts) > 0 {
		c := doc.Concepts[0]
		if c.Transcription == "" {
			c.Transcription = doc.Transcription
		}
		return &c, nil
	}

	var c Concept
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse concept: %w", err)
	}
	return &c, nil
}

// SafeText collapses newlines and truncates to maxLen characters so
// layout cost per frame stays bounded regardless of input. Truncation
// counts runes, never splitting a multibyte character.
func SafeText(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(text)
	if maxLen > 3 && len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return text
}

// Sentences splits free text into sentence-like chunks for caption
// layers. Fragments of three characters or fewer are dropped; if nothing
// survives, the whole text is returned as a single chunk.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var parts []string
	for _, seg := range strings.Split(text, ".") {
		seg = strings.TrimSpace(seg)
		if utf8.RuneCountInString(seg) > 3 {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		parts = []string{text}
	}
	return parts
}

// HashtagLine joins up to max hashtags into one display string, each
// prefixed with exactly one '#'.
func (c *Concept) HashtagLine(max int) string {
	if len(c.Hashtags) == 0 {
		return ""
	}
	tags := c.Hashtags
	if max > 0 && len(tags) > max {
		tags = tags[:max]
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimLeft(tag, "#"))
		if tag != "" {
			out = append(out, "#"+tag)
		}
	}
	return strings.Join(out, "  ")
}
