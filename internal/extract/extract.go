// Package extract turns raw HTML into plain text with a fixed set of regex
// passes. It is deliberately lossy: nested or malformed markup is handled on
// a best-effort basis and unknown entities are left as they are.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"apexcarousel/pkg/models"
)

// MaxTextLength is the number of characters kept before truncation.
const MaxTextLength = 50000

// TruncationMarker is appended when text was cut at MaxTextLength.
const TruncationMarker = "..."

var (
	titleRe = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

	scriptRe   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	noscriptRe = regexp.MustCompile(`(?is)<noscript\b.*?</noscript>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)

	// tried in order, first match wins
	contentRegions = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<article[^>]*>(.*?)</article>`),
		regexp.MustCompile(`(?is)<main[^>]*>(.*?)</main>`),
		regexp.MustCompile(`(?is)<div[^>]*class="[^"]*content[^"]*"[^>]*>(.*?)</div>`),
		regexp.MustCompile(`(?is)<div[^>]*class="[^"]*post[^"]*"[^>]*>(.*?)</div>`),
	}

	tagRe = regexp.MustCompile(`<[^>]+>`)

	// \s plus the Unicode spaces browsers treat as whitespace
	spaceRunRe  = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	blankLineRe = regexp.MustCompile(`\n\s*\n`)
)

// entities are decoded one after another, so "&amp;lt;" ends up as "<".
var entities = [][2]string{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&mdash;", "—"},
	{"&ndash;", "–"},
	{"&rsquo;", "'"},
	{"&lsquo;", "'"},
	{"&rdquo;", `"`},
	{"&ldquo;", `"`},
}

// Extract returns the readable text and the <title> of an HTML document.
func Extract(html string) models.ExtractionResult {
	title := ""
	if m := titleRe.FindStringSubmatch(html); m != nil {
		title = strings.TrimSpace(m[1])
	}

	text := scriptRe.ReplaceAllString(html, "")
	text = styleRe.ReplaceAllString(text, "")
	text = noscriptRe.ReplaceAllString(text, "")
	text = commentRe.ReplaceAllString(text, "")

	text = mainRegion(text)
	text = tagRe.ReplaceAllString(text, " ")
	text = DecodeEntities(text)
	text = NormalizeSpace(text)
	text = Truncate(text, MaxTextLength)

	return models.ExtractionResult{Text: text, Title: title}
}

func mainRegion(doc string) string {
	for _, re := range contentRegions {
		if m := re.FindStringSubmatch(doc); m != nil {
			return m[1]
		}
	}
	return doc
}

// DecodeEntities replaces the supported named and numeric entities.
func DecodeEntities(s string) string {
	for _, e := range entities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return s
}

// NormalizeSpace collapses whitespace runs and trims the result.
func NormalizeSpace(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = blankLineRe.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, " \n")
}

// Truncate keeps the first max characters of s and appends TruncationMarker
// when anything was dropped.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}
