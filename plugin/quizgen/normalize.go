package quizgen

import (
	"regexp"
	"strings"
)

// rawLine is one input line after normalization. Empty lines are kept because
// the unit builder uses them to flush bullet buffers.
type rawLine struct {
	text string
	num  int // 1-based line number in the original input
}

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)

	zeroWidthReplacer = strings.NewReplacer("​", "", "﻿", "")
)

// normalizeLines splits a note body into lines, drops fenced code blocks, and
// strips zero-width spaces, tabs, and URL tokens. An unterminated fence keeps
// discarding through the end of input.
func normalizeLines(body string) []rawLine {
	lines := strings.Split(body, "\n")
	out := make([]rawLine, 0, len(lines))
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		line = zeroWidthReplacer.Replace(line)
		line = strings.ReplaceAll(line, "\t", " ")
		line = urlPattern.ReplaceAllString(line, "")
		line = strings.TrimRight(line, " ")
		out = append(out, rawLine{text: line, num: i + 1})
	}
	return out
}

// fallbackCandidate cuts the raw input into a single fill item when the
// pipeline extracted nothing. The text, minus one trailing sentence
// terminator, must be 25 to 120 runes; the cut lands at 45% of its length.
func fallbackCandidate(body string) (candidate, bool) {
	text := strings.TrimSpace(body)
	runes := []rune(text)
	if n := len(runes); n > 0 {
		switch runes[n-1] {
		case '。', '！', '？':
			runes = runes[:n-1]
		}
	}
	if len(runes) < 25 || len(runes) > 120 {
		return candidate{}, false
	}
	cut := len(runes) * 45 / 100
	answer := strings.TrimSpace(string(runes[cut:]))
	if answer == "" {
		return candidate{}, false
	}
	return candidate{
		kind:     kindFallback,
		typ:      TypeFill,
		question: strings.TrimSpace(string(runes[:cut])) + blankMarker,
		answer:   answer,
	}, true
}
