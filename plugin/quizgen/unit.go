package quizgen

import (
	"regexp"
	"strings"
)

// unit is a heading-tagged sentence fragment or merged bullet group, the
// atomic input to extraction.
type unit struct {
	text    string
	heading string
	line    int
}

var (
	headingPattern = regexp.MustCompile(`^#{1,6}\s*([^#\s].*)$`)
	bulletPattern  = regexp.MustCompile(`^(?:[-*・]|\d+\.)\s*(.+)$`)

	inlineMarkPattern = regexp.MustCompile("[*_~`]")
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// buildUnits walks normalized lines and produces units. Consecutive bullet
// lines merge into one unit joined with " / "; blank lines, headings, and
// plain lines flush the pending bullet run. A heading applies to every unit
// after it until the next heading, surviving blank lines in between.
func buildUnits(lines []rawLine) []unit {
	units := make([]unit, 0, len(lines))
	heading := ""
	var bullets []string
	bulletLine := 0

	flush := func() {
		if len(bullets) == 0 {
			return
		}
		units = append(units, unit{
			text:    strings.Join(bullets, " / "),
			heading: heading,
			line:    bulletLine,
		})
		bullets = nil
		bulletLine = 0
	}

	for _, line := range lines {
		text := strings.TrimSpace(line.text)
		if text == "" {
			flush()
			continue
		}
		if m := headingPattern.FindStringSubmatch(text); m != nil {
			flush()
			heading = cleanInline(m[1])
			continue
		}
		if m := bulletPattern.FindStringSubmatch(text); m != nil {
			if len(bullets) == 0 {
				bulletLine = line.num
			}
			bullets = append(bullets, cleanInline(m[1]))
			continue
		}
		flush()
		for _, sentence := range splitSentences(cleanInline(text)) {
			units = append(units, unit{text: sentence, heading: heading, line: line.num})
		}
	}
	flush()
	return units
}

// cleanInline strips inline markdown marks and collapses whitespace runs.
func cleanInline(s string) string {
	s = inlineMarkPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// splitSentences cuts text at Japanese sentence terminators, keeping the
// terminator attached to the fragment before it.
func splitSentences(s string) []string {
	var out []string
	var buf []rune
	for _, r := range s {
		buf = append(buf, r)
		switch r {
		case '。', '！', '？':
			if frag := strings.TrimSpace(string(buf)); frag != "" {
				out = append(out, frag)
			}
			buf = buf[:0]
		}
	}
	if frag := strings.TrimSpace(string(buf)); frag != "" {
		out = append(out, frag)
	}
	return out
}
