// Package quizgen turns note text into review quiz items using pattern rules
// for Japanese study notes, without any model call. The pipeline normalizes
// lines, builds heading-tagged units, extracts candidates with a fixed rule
// list, scores and filters them, then dedupes and selects under a limit.
// Every stage is a pure function over its input; the package holds no state
// and is safe for concurrent use.
package quizgen

// Quiz item types. TypeQuestion is reserved for model-generated items and is
// never produced by the rule pipeline.
const (
	TypeTerm      = "term"
	TypeFill      = "fill"
	TypeShort     = "short"
	TypeTrueFalse = "tf"
	TypeQuestion  = "question"
)

// ruleKind identifies the extraction rule that produced a candidate and
// drives base scoring.
type ruleKind string

const (
	kindDef      ruleKind = "def"
	kindDefBlank ruleKind = "def_blank"
	kindClass2   ruleKind = "class2"
	kindList     ruleKind = "list"
	kindCause    ruleKind = "cause"
	kindSteps    ruleKind = "steps"
	kindTF       ruleKind = "tf"
	kindFallback ruleKind = "fallback"
)

// blankMarker is appended or substituted where a fill-in answer is elided.
const blankMarker = "____"

// QuizItem is the persisted-ready output shape of the pipeline.
type QuizItem struct {
	Type       string `json:"type"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	SourceLine *int   `json:"sourceLine,omitempty"`
}

// Options tunes a single generation call.
type Options struct {
	// Limit caps the number of returned items. Values < 1 fall back to 20.
	Limit int
	// MinScore drops candidates scoring below it. Values < 1 fall back to 3.
	MinScore int
	// AllowTrueFalse admits true/false items, capped at 20% of the limit.
	AllowTrueFalse bool
}

// DefaultOptions returns the tuning used when the caller passes nil.
func DefaultOptions() *Options {
	return &Options{
		Limit:          20,
		MinScore:       3,
		AllowTrueFalse: true,
	}
}

// Generate runs the full rule pipeline over a note body and returns at most
// opts.Limit quiz items. It never fails: inputs with no extractable content
// yield the single fallback item when the text is long enough to cut, and an
// empty slice otherwise.
func Generate(body string, opts *Options) []QuizItem {
	if opts == nil {
		opts = DefaultOptions()
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}
	minScore := opts.MinScore
	if minScore < 1 {
		minScore = 3
	}

	lines := normalizeLines(body)
	units := buildUnits(lines)
	scored := scoreCandidates(extractCandidates(units))
	kept := dedupeCandidates(filterCandidates(scored, minScore))
	selected := selectCandidates(kept, limit, opts.AllowTrueFalse)

	items := make([]QuizItem, 0, len(selected))
	for _, c := range selected {
		items = append(items, toQuizItem(c))
	}
	if len(items) == 0 {
		if c, ok := fallbackCandidate(body); ok {
			items = append(items, toQuizItem(scoredCandidate{candidate: c}))
		}
	}
	return items
}

func toQuizItem(c scoredCandidate) QuizItem {
	typ := c.typ
	if typ == "" {
		typ = TypeShort
	}
	var src *int
	if c.line > 0 {
		n := c.line
		src = &n
	}
	return QuizItem{
		Type:       typ,
		Question:   c.question,
		Answer:     c.answer,
		SourceLine: src,
	}
}
