package models

// Style selects which persona block is injected into the generation prompt.
type Style string

const (
	StyleHormozi Style = "hormozi"
	StyleWelsh   Style = "welsh"
	StyleKoe     Style = "koe"
	StyleCustom  Style = "custom"
)

// Styles lists every accepted style in the order they are presented to users.
var Styles = []Style{StyleHormozi, StyleWelsh, StyleKoe, StyleCustom}

func (s Style) Valid() bool {
	switch s {
	case StyleHormozi, StyleWelsh, StyleKoe, StyleCustom:
		return true
	default:
		return false
	}
}

type CarouselSlide struct {
	SlideNumber float64 `json:"slide_number"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Notes       string  `json:"notes,omitempty"`
}

// CarouselContent is the validated artifact returned by the AI call.
type CarouselContent struct {
	Slides        []CarouselSlide `json:"slides"`
	Caption       string          `json:"caption"`
	PinnedComment string          `json:"pinned_comment"`
	Hooks         []string        `json:"hooks"`
}

// ExtractionResult is the plain text pulled out of a fetched HTML page.
type ExtractionResult struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

type GenerationRequest struct {
	InputText        string `json:"input_text"`
	Style            Style  `json:"style"`
	UserVoiceSamples string `json:"user_voice_samples,omitempty"`
}

type FetchResult struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
}
