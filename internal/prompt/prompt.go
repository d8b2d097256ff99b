// Package prompt assembles the single text prompt sent to the generation model.
package prompt

import (
	"strings"

	"apexcarousel/pkg/models"
)

const basePrompt = `You are an expert LinkedIn content creator specializing in high-converting carousel posts. Your task is to transform any content into a compelling 10-14 slide carousel that maximizes engagement.

# Output Format
You MUST respond with valid JSON in this exact structure:
{
  "slides": [
    {
      "slide_number": 1,
      "title": "Hook Title",
      "content": "Main content text for this slide",
      "notes": "Design suggestion or formatting note (optional)"
    },
    // ... more slides (10-14 total)
  ],
  "caption": "Full LinkedIn caption with line breaks and emojis",
  "pinned_comment": "Engaging pinned comment to boost engagement",
  "hooks": ["Alternative hook 1", "Alternative hook 2", "Alternative hook 3"]
}

# Carousel Structure
- Slide 1: HOOK - Grab attention with a bold statement, question, or surprising fact
- Slides 2-3: Problem/Context - Establish the pain point or situation
- Slides 4-10: Value/Content - Core insights, steps, or strategies
- Slide 11-12: Proof/Example - Case study, stats, or story
- Slide 13: CTA - Clear call-to-action (DM, comment, follow)
- Slide 14: Outro - Personal sign-off or brand reminder

# Writing Guidelines
- Keep each slide to 40-60 words MAX
- Use simple, punchy language
- Include specific numbers and examples
- Create scroll-stopping hooks
- End with clear next steps
- Use emojis sparingly in caption only

`

const (
	userPromptHeader    = "Transform the following content into a high-converting LinkedIn carousel:\n\n"
	trailingInstruction = "\n\nRemember: Respond ONLY with valid JSON in the exact format specified. No additional text before or after the JSON."
)

var stylePrompts = map[models.Style]string{
	models.StyleHormozi: `# Alex Hormozi Style
- Direct, no-fluff communication
- Lead with bold value propositions
- Use concrete numbers and proof ("$100M offers", "127 businesses")
- Frame everything as cause-effect relationships
- Include specific tactical steps
- End with strong, actionable CTAs
- Example phrases: "Here's what nobody tells you...", "The only 3 things that matter...", "If you do X, you'll get Y"
`,
	models.StyleWelsh: `# Justin Welsh Style
- Calm, conversational, helpful tone
- Share personal experience and lessons learned
- Break down complex ideas simply
- Use storytelling to illustrate points
- Focus on helping others grow
- Authentic and relatable
- Example phrases: "Here's what I learned...", "The simple truth is...", "This changed everything for me..."
`,
	models.StyleKoe: `# Dan Koe Style
- Deep, philosophical, thought-provoking
- Explore mindset and personal transformation
- Use metaphors and analogies
- Question conventional wisdom
- Focus on self-actualization and purpose
- Poetic but practical
- Example phrases: "Most people don't realize...", "The paradox is...", "Your mind is the ultimate..."
`,
}

const customVoiceTemplate = `# Custom Voice (Trained on User's Posts)
Use the following writing samples to match the user's unique voice, tone, and style:

{{samples}}

Analyze these samples and replicate:
- Sentence structure and length
- Vocabulary and word choice
- Tone (formal/casual, serious/playful)
- Use of emojis, punctuation, formatting
- Common phrases or patterns
- Topics and themes
`

const defaultVoice = `# Custom Voice (Default)
- Professional yet approachable
- Clear and concise
- Action-oriented
- Data-driven when possible
- Engaging and conversational
`

// StyleBlock returns the persona instructions for style. The custom style
// embeds voiceSamples verbatim when present. Unknown styles yield "".
func StyleBlock(style models.Style, voiceSamples string) string {
	if style == models.StyleCustom {
		if voiceSamples == "" {
			return defaultVoice
		}
		return strings.Replace(customVoiceTemplate, "{{samples}}", voiceSamples, 1)
	}
	return stylePrompts[style]
}

// System returns the instruction part of the prompt without the user input.
func System(style models.Style, voiceSamples string) string {
	return basePrompt + StyleBlock(style, voiceSamples)
}

// Build returns the full prompt for one generation request.
func Build(inputText string, style models.Style, voiceSamples string) string {
	var sb strings.Builder
	sb.WriteString(System(style, voiceSamples))
	sb.WriteString("\n")
	sb.WriteString(userPromptHeader)
	sb.WriteString(inputText)
	sb.WriteString(trailingInstruction)
	return sb.String()
}
