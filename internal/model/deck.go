package model

import (
	"encoding/json"
	"fmt"
)

// Slide types with a dedicated markdown template
const (
	SlideCover      = "cover"
	SlideStatement  = "statement"
	SlideBullets    = "bullets"
	SlideWarning    = "warning"
	SlideRoadmap    = "roadmap"
	SlideChart      = "chart"
	SlideComparison = "comparison"
	SlideQuote      = "quote"
)

// DeckSource describes the external tool that produced a deck
type DeckSource struct {
	Tool  string `json:"tool"`
	ID    string `json:"id"`
	Color string `json:"color,omitempty"`
}

// Phase is one step of a roadmap slide
type Phase struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Slide is one entry of a deck. The known fields are decoded for
// rendering; the original JSON is kept and re-emitted verbatim so that
// fields of chart/comparison slides survive a round trip.
type Slide struct {
	Type        string   `json:"type"`
	Title       string   `json:"title,omitempty"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Heading     string   `json:"heading,omitempty"`
	Body        string   `json:"body,omitempty"`
	Attribution string   `json:"attribution,omitempty"`
	Items       []string `json:"items,omitempty"`
	Phases      []Phase  `json:"phases,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the raw object and decodes the fields it knows,
// tolerating unexpected shapes in any single field.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("slide is not an object: %w", err)
	}
	*s = Slide{raw: append(json.RawMessage(nil), data...)}
	s.Type = rawString(fields["type"])
	s.Title = rawString(fields["title"])
	s.Subtitle = rawString(fields["subtitle"])
	s.Heading = rawString(fields["heading"])
	s.Body = rawString(fields["body"])
	s.Attribution = rawString(fields["attribution"])
	if items, ok := fields["items"]; ok {
		var list []json.RawMessage
		if json.Unmarshal(items, &list) == nil {
			for _, it := range list {
				s.Items = append(s.Items, rawString(it))
			}
		}
	}
	if phases, ok := fields["phases"]; ok {
		var list []json.RawMessage
		if json.Unmarshal(phases, &list) == nil {
			for _, it := range list {
				var p map[string]json.RawMessage
				if json.Unmarshal(it, &p) != nil {
					continue
				}
				s.Phases = append(s.Phases, Phase{Name: rawString(p["name"]), Description: rawString(p["description"])})
			}
		}
	}
	return nil
}

// MarshalJSON re-emits the original object when there is one
func (s Slide) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	type plain Slide
	return json.Marshal(plain(s))
}

// rawString renders a JSON scalar as text; strings are unquoted
func rawString(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// Deck is a structured set of slides delivered by an external tool
type Deck struct {
	ID        string     `json:"id"`
	DeckID    string     `json:"deckId"`
	ProjectID string     `json:"projectId"`
	Who       DeckSource `json:"who"`
	Slides    []Slide    `json:"slides"`
	Timestamp string     `json:"timestamp"`
	CreatedAt Timestamp  `json:"createdAt"`
}

// Cover returns the first cover slide, if any
func (d *Deck) Cover() (Slide, bool) {
	for _, s := range d.Slides {
		if s.Type == SlideCover {
			return s, true
		}
	}
	return Slide{}, false
}

// DeckPatch is a partial update; nil fields are left unchanged
type DeckPatch struct {
	Who    *DeckSource `json:"who,omitempty"`
	Slides *[]Slide    `json:"slides,omitempty"`
}

// Apply merges the patch into dst
func (p DeckPatch) Apply(dst *Deck) {
	if p.Who != nil {
		dst.Who = *p.Who
	}
	if p.Slides != nil {
		dst.Slides = append([]Slide(nil), (*p.Slides)...)
	}
}
