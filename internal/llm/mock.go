package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Mock returns a small well-formed carousel without calling any provider.
// It is meant for local development.
type Mock struct{}

func (Mock) Generate(_ context.Context, prompt string) (string, error) {
	topic := "your content"
	if i := strings.LastIndex(prompt, "carousel:\n\n"); i >= 0 {
		rest := prompt[i+len("carousel:\n\n"):]
		if j := strings.Index(rest, "\n"); j >= 0 {
			rest = rest[:j]
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			topic = rest
		}
	}
	if len([]rune(topic)) > 60 {
		topic = string([]rune(topic)[:60])
	}

	type slide struct {
		SlideNumber int    `json:"slide_number"`
		Title       string `json:"title"`
		Content     string `json:"content"`
	}
	out := struct {
		Slides        []slide  `json:"slides"`
		Caption       string   `json:"caption"`
		PinnedComment string   `json:"pinned_comment"`
		Hooks         []string `json:"hooks"`
	}{
		Slides: []slide{
			{1, "Stop scrolling", fmt.Sprintf("What nobody tells you about %s.", topic)},
			{2, "The problem", "Most people overcomplicate it."},
			{3, "The fix", "Do the simple thing, every day."},
			{4, "Your move", "Comment 'more' and I'll send the checklist."},
		},
		Caption:       fmt.Sprintf("A quick breakdown of %s.", topic),
		PinnedComment: "What would you add?",
		Hooks:         []string{"Nobody talks about this.", "I wish I knew this sooner.", "Steal this framework."},
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return "```json\n" + string(b) + "\n```", nil
}
