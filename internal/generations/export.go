package generations

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/yuin/goldmark"

	"apexcarousel/pkg/models"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// WriteMarkdown renders g as a markdown document: caption, slides, hooks and
// pinned comment. A non-nil kit adds a brand line under the title.
func WriteMarkdown(w io.Writer, g *models.Generation, kit *models.BrandKit) error {
	md := markdown.NewMarkdown(w)
	md.H1(exportTitle(g))
	md.PlainText("")

	rows := [][]string{
		{"Style", string(g.Style)},
		{"Slides", fmt.Sprintf("%d", len(g.Slides))},
		{"Created", g.Created.UTC().Format("2006-01-02 15:04 MST")},
	}
	if kit != nil && kit.Tagline != "" {
		rows = append(rows, []string{"Tagline", kit.Tagline})
	}
	if kit != nil && kit.Color != "" {
		rows = append(rows, []string{"Brand color", "`" + kit.Color + "`"})
	}
	md.Table(markdown.TableSet{Header: []string{"Field", "Value"}, Rows: rows})
	md.PlainText("")

	md.H2("Caption")
	md.PlainText("")
	md.PlainText(g.Caption)
	md.PlainText("")

	md.H2("Slides")
	md.PlainText("")
	for _, s := range g.Slides {
		md.H3(strconv.FormatFloat(s.SlideNumber, 'f', -1, 64) + ". " + s.Title)
		md.PlainText("")
		md.PlainText(s.Content)
		md.PlainText("")
		if s.Notes != "" {
			md.PlainText("_Notes: " + s.Notes + "_")
			md.PlainText("")
		}
	}

	if len(g.Hooks) > 0 {
		md.H2("Alternative hooks")
		md.PlainText("")
		md.BulletList(g.Hooks...)
		md.PlainText("")
	}

	md.H2("Pinned comment")
	md.PlainText("")
	md.PlainText(g.PinnedComment)

	return md.Build()
}

// RenderHTML converts the markdown export to an HTML fragment.
func RenderHTML(g *models.Generation, kit *models.BrandKit) ([]byte, error) {
	var src bytes.Buffer
	if err := WriteMarkdown(&src, g, kit); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	var out bytes.Buffer
	if err := goldmark.Convert(src.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return out.Bytes(), nil
}

func exportTitle(g *models.Generation) string {
	if len(g.Slides) > 0 && strings.TrimSpace(g.Slides[0].Title) != "" {
		return g.Slides[0].Title
	}
	return "Carousel " + g.ID
}
