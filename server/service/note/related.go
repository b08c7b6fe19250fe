package note

import (
	"sort"
	"unicode"

	"github.com/ayakoji/noteshare/store"
)

// Weights for the fallback related-note score. Content overlap dominates,
// shared tags refine the ranking and recency breaks near-ties.
const (
	relatedKeywordWeight = 0.6
	relatedTagWeight     = 0.3
	relatedTimeWeight    = 0.1

	relatedMinScore   = 0.1
	relatedTimeWindow = 7 * 24 * 3600
)

// ScoredNote is a candidate ranked against a source note.
type ScoredNote struct {
	Note       *store.Note
	Score      float32
	SharedTags []string
}

// ScoreRelated ranks candidates against current by keyword overlap, shared
// tags and creation-time proximity. It is the similarity path used when no
// vector index is available. Candidates below a small score floor are
// dropped, the rest come back best first, cut to limit.
func ScoreRelated(current *store.Note, candidates []*store.Note, limit int) []ScoredNote {
	if current == nil || len(candidates) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	currentTags := ExtractTags(current.Content)
	currentTokens := similarityTokens(current.Content)

	var scored []ScoredNote
	for _, candidate := range candidates {
		if candidate == nil || candidate.ID == current.ID {
			continue
		}

		shared := sharedTags(currentTags, ExtractTags(candidate.Content))
		tagScore := float32(0)
		if len(currentTags) > 0 {
			tagScore = float32(len(shared)) / float32(len(currentTags))
		}

		timeScore := float32(0)
		if diff := abs64(current.CreatedTs - candidate.CreatedTs); diff < relatedTimeWindow {
			timeScore = 1 - float32(diff)/float32(relatedTimeWindow)
		}

		keywordScore := jaccard(currentTokens, similarityTokens(candidate.Content))

		score := relatedKeywordWeight*keywordScore + relatedTagWeight*tagScore + relatedTimeWeight*timeScore
		if score <= relatedMinScore {
			continue
		}
		scored = append(scored, ScoredNote{Note: candidate, Score: score, SharedTags: shared})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Note.CreatedTs > scored[j].Note.CreatedTs
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// similarityTokens tokenizes the plain text of a body for overlap scoring.
// Single kana or latin characters carry no meaning on their own and are
// dropped, single kanji stay because they do.
func similarityTokens(content string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range SearchTokens(PlainText(content)) {
		runes := []rune(tok)
		if len(runes) == 1 && !unicode.Is(unicode.Han, runes[0]) {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

func sharedTags(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	var shared []string
	for _, t := range a {
		if inB[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

func jaccard(a, b map[string]bool) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float32(intersection) / float32(union)
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
