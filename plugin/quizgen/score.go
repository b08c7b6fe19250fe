package quizgen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scoredCandidate carries a candidate with its accumulated score.
type scoredCandidate struct {
	candidate
	score int
}

// kindBase is the per-rule starting score. Definitions outrank mechanical
// true/false flips.
var kindBase = map[ruleKind]int{
	kindDef:      6,
	kindDefBlank: 5,
	kindClass2:   5,
	kindList:     4,
	kindCause:    4,
	kindSteps:    4,
	kindTF:       2,
}

var demonstratives = []string{"これ", "それ", "あれ", "この", "その", "あの"}

// answerStoplist drops answers too generic to grade.
var answerStoplist = map[string]struct{}{
	"重要":  {},
	"大事":  {},
	"必要":  {},
	"不要":  {},
	"はい":  {},
	"いいえ": {},
}

func scoreCandidates(cands []candidate) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, scoredCandidate{candidate: c, score: scoreCandidate(c)})
	}
	return out
}

func scoreCandidate(c candidate) int {
	score := kindBase[c.kind]
	score += lengthShape(runeLen(c.question), 15, 90)
	score += lengthShape(runeLen(c.answer), 6, 120)
	if containsDemonstrative(c.question) {
		score -= 2
	}
	if containsDemonstrative(c.answer) {
		score--
	}
	if containsDigit(c.question) || containsDigit(c.answer) {
		score++
	}
	if strings.HasPrefix(c.question, "【") {
		score++
	}
	return score
}

// lengthShape rewards text inside the ideal rune window, punishing short
// text harder than long text.
func lengthShape(n, min, max int) int {
	switch {
	case n < min:
		return -2
	case n > max:
		return -1
	default:
		return 1
	}
}

// filterCandidates drops candidates below the score floor or failing the
// sanity checks on question and answer shape.
func filterCandidates(cands []scoredCandidate, minScore int) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(cands))
	for _, c := range cands {
		if c.score < minScore {
			continue
		}
		if runeLen(c.question) < 8 {
			continue
		}
		if c.typ != TypeTrueFalse && runeLen(c.answer) < 2 {
			continue
		}
		if _, stopped := answerStoplist[c.answer]; stopped {
			continue
		}
		if !hasWordRune(c.question) {
			continue
		}
		if c.answer != "" && !hasWordRune(c.answer) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func containsDemonstrative(s string) bool {
	for _, d := range demonstratives {
		if strings.Contains(s, d) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= '０' && r <= '９') {
			return true
		}
	}
	return false
}

// hasWordRune reports whether s contains at least one letter or digit, i.e.
// is not made of punctuation and symbols alone.
func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
