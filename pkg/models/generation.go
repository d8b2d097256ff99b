package models

import "time"

type Generation struct {
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	InputText     string          `json:"input_text"`
	Style         Style           `json:"style"`
	Slides        []CarouselSlide `json:"slides"`
	Caption       string          `json:"caption"`
	PinnedComment string          `json:"pinned_comment"`
	Hooks         []string        `json:"hooks"`
	CarouselPDF   string          `json:"carousel_pdf,omitempty"` // storage key
	Created       time.Time       `json:"created"`
	Updated       time.Time       `json:"updated"`
}

// Content returns the carousel part of a stored generation.
func (g Generation) Content() CarouselContent {
	return CarouselContent{
		Slides:        g.Slides,
		Caption:       g.Caption,
		PinnedComment: g.PinnedComment,
		Hooks:         g.Hooks,
	}
}

const (
	EventGenerationCreated = "generation.created"
	EventGenerationUpdated = "generation.updated"
	EventGenerationDeleted = "generation.deleted"
)

// GenerationEvent is pushed to the owner's live connections.
type GenerationEvent struct {
	Type         string      `json:"type"`
	GenerationID string      `json:"generation_id"`
	Generation   *Generation `json:"generation,omitempty"`
	At           time.Time   `json:"at"`
}
