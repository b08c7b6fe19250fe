package quizgen

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	headingTagPattern  = regexp.MustCompile(`^【[^】]*】`)
	dedupeStripPattern = regexp.MustCompile(`[「」『』（）()［］\[\]【】]`)
)

// dedupeCandidates keeps the first candidate per normalized question,
// preserving the original relative order.
func dedupeCandidates(cands []scoredCandidate) []scoredCandidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]scoredCandidate, 0, len(cands))
	for _, c := range cands {
		key := dedupeKey(c.question)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// dedupeKey folds a question down to its comparable core: NFKC fold, heading
// tag stripped, whitespace removed, brackets and quotes removed, capped at
// 120 runes.
func dedupeKey(question string) string {
	key := norm.NFKC.String(question)
	key = headingTagPattern.ReplaceAllString(key, "")
	key = strings.Join(strings.Fields(key), "")
	key = dedupeStripPattern.ReplaceAllString(key, "")
	if runes := []rune(key); len(runes) > 120 {
		key = string(runes[:120])
	}
	return key
}

// selectCandidates sorts by score (stable, descending) and takes up to limit
// candidates. True/false items are capped at 20% of the limit; leftover slots
// are backfilled from the remaining pool regardless of type.
func selectCandidates(cands []scoredCandidate, limit int, allowTrueFalse bool) []scoredCandidate {
	sorted := make([]scoredCandidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})

	if !allowTrueFalse {
		if len(sorted) > limit {
			sorted = sorted[:limit]
		}
		return sorted
	}

	tfCap := limit / 5
	picked := make([]scoredCandidate, 0, limit)
	used := make([]bool, len(sorted))

	for i, c := range sorted {
		if c.typ != TypeTrueFalse && len(picked) < limit-tfCap {
			picked = append(picked, c)
			used[i] = true
		}
	}
	taken := 0
	for i, c := range sorted {
		if len(picked) >= limit || taken >= tfCap {
			break
		}
		if c.typ == TypeTrueFalse && !used[i] {
			picked = append(picked, c)
			used[i] = true
			taken++
		}
	}
	for i, c := range sorted {
		if len(picked) >= limit {
			break
		}
		if !used[i] {
			picked = append(picked, c)
			used[i] = true
		}
	}
	return picked
}
