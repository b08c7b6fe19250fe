package note

import (
	"sort"
	"strings"
	"unicode"
)

// Highlight marks one matched range of a search hit, in rune offsets.
type Highlight struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

const (
	// defaultContextRunes is how much text is kept on each side of a match
	// when a snippet is cut around it.
	defaultContextRunes = 60
	// boundaryScanRunes caps how far a snippet edge moves to reach a
	// word boundary.
	boundaryScanRunes = 10
)

// SearchTokens splits a query into matchable tokens. Latin and kana runs
// become whole tokens, kanji are split per character so parts of a compound
// still match. Tokens are deduplicated in order of first appearance.
func SearchTokens(query string) []string {
	var tokens []string
	seen := make(map[string]bool)

	appendToken := func(tok string) {
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			appendToken(strings.ToLower(word.String()))
			word.Reset()
		}
	}

	for _, r := range query {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			appendToken(string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// FindMatches returns the ranges where tokens occur in text, case-insensitive,
// sorted by position with overlapping ranges dropped. Offsets are in runes.
func FindMatches(text string, tokens []string) []Highlight {
	if text == "" || len(tokens) == 0 {
		return nil
	}

	textRunes := []rune(text)
	// Lowercasing rune by rune keeps the offsets aligned with the original.
	lower := make([]rune, len(textRunes))
	for i, r := range textRunes {
		lower[i] = unicode.ToLower(r)
	}

	var matches []Highlight
	for _, token := range tokens {
		tokenRunes := []rune(strings.ToLower(token))
		if len(tokenRunes) == 0 {
			continue
		}
		for i := 0; i+len(tokenRunes) <= len(lower); i++ {
			if !runesEqual(lower[i:i+len(tokenRunes)], tokenRunes) {
				continue
			}
			matches = append(matches, Highlight{
				Start: i,
				End:   i + len(tokenRunes),
				Text:  string(textRunes[i : i+len(tokenRunes)]),
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		// The longer match wins when two tokens hit the same position.
		return matches[i].End > matches[j].End
	})

	return dropOverlaps(matches)
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dropOverlaps(matches []Highlight) []Highlight {
	if len(matches) <= 1 {
		return matches
	}
	kept := matches[:1]
	for _, m := range matches[1:] {
		if m.Start >= kept[len(kept)-1].End {
			kept = append(kept, m)
		}
	}
	return kept
}

// SearchSnippet cuts an excerpt of text centered on the first match and
// rebases the match offsets onto the excerpt. Without matches it returns the
// head of the text. Edges snap to nearby word boundaries and get an ellipsis
// when text is cut away.
func SearchSnippet(text string, matches []Highlight, contextRunes int) (string, []Highlight) {
	if contextRunes <= 0 {
		contextRunes = defaultContextRunes
	}

	textRunes := []rune(text)
	if len(textRunes) == 0 {
		return "", nil
	}

	if len(matches) == 0 {
		end := contextRunes * 2
		if end > len(textRunes) {
			end = len(textRunes)
		}
		end = snapToBoundary(textRunes, end, true)
		head := string(textRunes[:end])
		if end < len(textRunes) {
			head += "..."
		}
		return head, nil
	}

	start := matches[0].Start - contextRunes
	end := matches[0].Start + contextRunes
	if start < 0 {
		end -= start
		start = 0
	}
	if end > len(textRunes) {
		start -= end - len(textRunes)
		end = len(textRunes)
	}
	if start < 0 {
		start = 0
	}

	start = snapToBoundary(textRunes, start, false)
	end = snapToBoundary(textRunes, end, true)

	var sb strings.Builder
	prefix := 0
	if start > 0 {
		sb.WriteString("...")
		prefix = 3
	}
	sb.WriteString(string(textRunes[start:end]))
	if end < len(textRunes) {
		sb.WriteString("...")
	}

	var rebased []Highlight
	for _, m := range matches {
		if m.Start >= start && m.End <= end {
			rebased = append(rebased, Highlight{
				Start: m.Start - start + prefix,
				End:   m.End - start + prefix,
				Text:  m.Text,
			})
		}
	}

	return sb.String(), rebased
}

// snapToBoundary moves pos to a nearby separator so the snippet does not cut
// a word in half. Start positions scan backward, end positions forward.
func snapToBoundary(runes []rune, pos int, isEnd bool) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(runes) {
		return len(runes)
	}

	if isEnd {
		for i := pos; i < len(runes) && i < pos+boundaryScanRunes; i++ {
			if isSeparator(runes[i]) {
				return i
			}
		}
		return pos
	}
	for i := pos - 1; i >= 0 && i >= pos-boundaryScanRunes; i-- {
		if isSeparator(runes[i]) {
			return i + 1
		}
	}
	return pos
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("。、．，！？…；：「」.,!?;:", r)
}
