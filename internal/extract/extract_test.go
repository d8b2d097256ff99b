package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", `<html><head><title>Hello</title></head></html>`, "Hello"},
		{"trimmed", "<title>\n  Spaced Out \n</title>", "Spaced Out"},
		{"attributes and case", `<TITLE lang="en">Upper</TITLE>`, "Upper"},
		{"first wins", `<title>One</title><title>Two</title>`, "One"},
		{"missing", `<html><body>no title</body></html>`, ""},
		{"empty title", `<title></title>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.html).Title)
		})
	}
}

func TestExtractRemovesScriptsStylesAndComments(t *testing.T) {
	html := `<html><head>
<style>.secret-style { color: red }</style>
<SCRIPT type="text/javascript">var secretScript = 1;</SCRIPT>
</head><body>
<p>Visible text</p>
<noscript>secret noscript</noscript>
<!-- secret comment -->
<script>second()</script><p>More text</p>
</body></html>`

	got := Extract(html).Text

	assert.Equal(t, "Visible text More text", got)
	for _, hidden := range []string{"secret-style", "secretScript", "secret noscript", "secret comment", "second()"} {
		assert.NotContains(t, got, hidden)
	}
}

func TestExtractPrefersContentRegions(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "article beats main",
			html: `<nav>menu</nav><main>main body</main><article class="x"><h1>Head</h1><p>Body</p></article>`,
			want: "Head Body",
		},
		{
			name: "main when no article",
			html: `<header>top</header><main id="m">main body</main><footer>bottom</footer>`,
			want: "main body",
		},
		{
			name: "content div",
			html: `<div class="sidebar">side</div><div class="post-content wide">the content</div>`,
			want: "the content",
		},
		{
			name: "post div",
			html: `<div class="nav">nav</div><div class="blog-post">the post</div>`,
			want: "the post",
		},
		{
			name: "whole document fallback",
			html: `<body><p>alpha</p><p>beta</p></body>`,
			want: "alpha beta",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.html).Text)
		})
	}
}

func TestExtractDecodesKnownEntitiesOnly(t *testing.T) {
	html := `<p>Tom&nbsp;&amp;&nbsp;Jerry &lt;3 &quot;quoted&quot; it&#39;s &mdash; a &ndash; b &lsquo;x&rsquo; &ldquo;y&rdquo; &copy; &hellip;</p>`

	got := Extract(html).Text

	assert.Equal(t, `Tom & Jerry <3 "quoted" it's — a – b 'x' "y" &copy; &hellip;`, got)
}

func TestExtractCollapsesWhitespace(t *testing.T) {
	html := "<p>  one\n\n\n two\t\tthree </p>\n\n<p>four  five</p>"
	assert.Equal(t, "one two three four five", Extract(html).Text)
}

func TestExtractTruncatesLongText(t *testing.T) {
	body := strings.Repeat("a", MaxTextLength+10)
	got := Extract("<p>" + body + "</p>").Text

	require.Len(t, got, MaxTextLength+len(TruncationMarker))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
}

func TestTruncateCountsCharacters(t *testing.T) {
	s := strings.Repeat("é", 12)
	got := Truncate(s, 10)
	assert.Equal(t, 13, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("é", 10)+"...", got)

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, strings.Repeat("x", 10), Truncate(strings.Repeat("x", 10), 10))
}

func TestExtractIsIdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		`<article><p>Hello   world</p><p>Second paragraph.</p></article>`,
		"plain text with\n\nnewlines and\ttabs",
		`<div class="content">Tom &amp; Jerry</div>`,
	}
	for _, in := range inputs {
		first := Extract(in).Text
		second := Extract(first).Text
		assert.Equal(t, first, second)
	}
}

func TestExtractNeverPanicsOnMalformedHTML(t *testing.T) {
	inputs := []string{
		"",
		"<",
		"<<<>>>",
		"<script>never closed",
		"<!-- open comment",
		`<div class="content"><div>nested</div>tail</div>`,
		"<title>unterminated",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _ = Extract(in) })
	}
}
