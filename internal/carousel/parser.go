package carousel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"apexcarousel/pkg/models"
)

var (
	ErrNoJSON         = errors.New("no JSON object in response")
	ErrInvalidJSON    = errors.New("response is not valid JSON")
	ErrSlides         = errors.New("slides must be an array")
	ErrCaption        = errors.New("caption must be a non-empty string")
	ErrPinnedComment  = errors.New("pinned_comment must be a non-empty string")
	ErrHooks          = errors.New("hooks must be an array")
	ErrSlideStructure = errors.New("invalid slide structure")
)

// SlideError names the first slide that failed validation.
type SlideError struct {
	Index int
	Field string
}

func (e *SlideError) Error() string {
	return fmt.Sprintf("slide %d: invalid %s", e.Index, e.Field)
}

func (e *SlideError) Unwrap() error { return ErrSlideStructure }

var objectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// Parse validates raw model output and decodes it into CarouselContent.
// Validation is a gate only: values are returned exactly as the model wrote them.
// The returned error wraps one of the Err* sentinels.
func Parse(raw string) (*models.CarouselContent, error) {
	if !objectRe.MatchString(raw) {
		return nil, ErrNoJSON
	}

	text := StripFence(raw)
	if !gjson.Valid(text) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return nil, ErrSlides
	}

	slides := doc.Get("slides")
	if !slides.IsArray() {
		return nil, ErrSlides
	}
	if v := doc.Get("caption"); v.Type != gjson.String || v.Str == "" {
		return nil, ErrCaption
	}
	if v := doc.Get("pinned_comment"); v.Type != gjson.String || v.Str == "" {
		return nil, ErrPinnedComment
	}
	hooks := doc.Get("hooks")
	if !hooks.IsArray() {
		return nil, ErrHooks
	}

	out := models.CarouselContent{
		Slides:        []models.CarouselSlide{},
		Caption:       doc.Get("caption").Str,
		PinnedComment: doc.Get("pinned_comment").Str,
		Hooks:         []string{},
	}
	for i, s := range slides.Array() {
		if err := checkSlide(i, s); err != nil {
			return nil, err
		}
		out.Slides = append(out.Slides, models.CarouselSlide{
			SlideNumber: s.Get("slide_number").Num,
			Title:       s.Get("title").Str,
			Content:     s.Get("content").Str,
			Notes:       asText(s.Get("notes")),
		})
	}
	for _, h := range hooks.Array() {
		out.Hooks = append(out.Hooks, asText(h))
	}
	return &out, nil
}

// asText returns strings unquoted and any other non-null value as its JSON source.
func asText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

func checkSlide(i int, s gjson.Result) error {
	if !s.IsObject() {
		return &SlideError{Index: i, Field: "slide"}
	}
	if s.Get("slide_number").Type != gjson.Number {
		return &SlideError{Index: i, Field: "slide_number"}
	}
	if s.Get("title").Type != gjson.String {
		return &SlideError{Index: i, Field: "title"}
	}
	if s.Get("content").Type != gjson.String {
		return &SlideError{Index: i, Field: "content"}
	}
	return nil
}

// StripFence trims s and removes a surrounding ```json or ``` fence.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	var open string
	switch {
	case strings.HasPrefix(s, "```json"):
		open = "```json"
	case strings.HasPrefix(s, "```"):
		open = "```"
	default:
		return s
	}
	s = strings.TrimPrefix(s[len(open):], "\n")
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s[:len(s)-3], "\n")
	}
	return s
}
