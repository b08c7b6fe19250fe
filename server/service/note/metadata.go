// Package note derives display metadata from Markdown note bodies.
package note

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
)

// Metadata holds display fields derived from a note body.
type Metadata struct {
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags"`
}

const (
	maxTitleRunes   = 100
	maxSnippetRunes = 160
)

var markdown = goldmark.New()

var tagPattern = regexp.MustCompile(`#([^\s#.,!?;:、。，！？]+)`)

// ExtractMetadata derives the title, snippet and tags of a note body.
func ExtractMetadata(content string) *Metadata {
	return &Metadata{
		Title:   DeriveTitle(content),
		Snippet: Snippet(content, maxSnippetRunes),
		Tags:    ExtractTags(content),
	}
}

// DeriveTitle returns the first heading of the body, or its first
// non-empty plain-text line.
func DeriveTitle(content string) string {
	source := []byte(content)
	doc := markdown.Parser().Parse(gtext.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Heading); ok {
			title = strings.TrimSpace(nodeText(n, source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if title == "" {
		for _, line := range strings.Split(PlainText(content), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				title = trimmed
				break
			}
		}
	}

	return truncateRunes(title, maxTitleRunes)
}

// PlainText renders the body without Markdown syntax, one line per block.
func PlainText(content string) string {
	source := []byte(content)
	doc := markdown.Parser().Parse(gtext.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// Snippet returns the leading plain text of the body, cut to maxRunes.
func Snippet(content string, maxRunes int) string {
	plain := strings.Join(strings.Fields(PlainText(content)), " ")
	if maxRunes <= 0 {
		maxRunes = maxSnippetRunes
	}
	runes := []rune(plain)
	if len(runes) <= maxRunes {
		return plain
	}
	return string(runes[:maxRunes]) + "..."
}

// ExtractTags collects #hashtags from the body, NFKC-normalized and
// deduplicated in order of first appearance.
func ExtractTags(content string) []string {
	matches := tagPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	tags := []string{}
	seen := make(map[string]bool)
	for _, m := range matches {
		tag := norm.NFKC.String(m[1])
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// RenderHTML converts the Markdown body to HTML, for feed readers.
func RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
