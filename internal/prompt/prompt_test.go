package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexcarousel/pkg/models"
)

func TestBuildComposition(t *testing.T) {
	got := Build("my article", models.StyleHormozi, "")

	want := basePrompt + stylePrompts[models.StyleHormozi] + "\n" + userPromptHeader + "my article" + trailingInstruction
	assert.Equal(t, want, got)
}

func TestBuildMentionsOutputShape(t *testing.T) {
	got := Build("x", models.StyleWelsh, "")
	for _, field := range []string{`"slides"`, `"slide_number"`, `"title"`, `"content"`, `"notes"`, `"caption"`, `"pinned_comment"`, `"hooks"`} {
		assert.Contains(t, got, field)
	}
	assert.Contains(t, got, "40-60 words MAX")
}

func TestStyleBlocksAreDistinct(t *testing.T) {
	seen := map[string]models.Style{}
	for _, s := range models.Styles {
		block := StyleBlock(s, "")
		require.NotEmpty(t, block, "style %s", s)
		if other, dup := seen[block]; dup {
			t.Fatalf("styles %s and %s share a prompt block", s, other)
		}
		seen[block] = s
	}
}

func TestCustomStyleEmbedsSamples(t *testing.T) {
	samples := "I ship every Friday.\n\nNo excuses. 🚀"

	got := Build("input", models.StyleCustom, samples)

	assert.Contains(t, got, "# Custom Voice (Trained on User's Posts)")
	assert.Contains(t, got, samples)
	assert.NotContains(t, got, "{{samples}}")
	assert.NotContains(t, got, "# Custom Voice (Default)")
}

func TestCustomStyleFallsBackToDefaultVoice(t *testing.T) {
	got := Build("input", models.StyleCustom, "")

	assert.Contains(t, got, "# Custom Voice (Default)")
	assert.NotContains(t, got, "Trained on User's Posts")
}

func TestSamplesIgnoredForPersonaStyles(t *testing.T) {
	got := Build("input", models.StyleKoe, "my own voice sample")
	assert.False(t, strings.Contains(got, "my own voice sample"))
	assert.Contains(t, got, "# Dan Koe Style")
}
