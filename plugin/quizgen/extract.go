package quizgen

import (
	"regexp"
	"strings"
	"unicode"
)

// candidate is an unscored prospective quiz item produced by one rule.
type candidate struct {
	kind     ruleKind
	typ      string
	question string
	answer   string
	line     int // 1-based source line, 0 when unknown
}

// rule pairs a name with its matcher/builder. Rules run in order against
// every unit; one unit may yield candidates from several rules.
type rule struct {
	name    string
	extract func(u unit) []candidate
}

var rules = []rule{
	{"definition", extractDefinition},
	{"classification", extractClassification},
	{"enumeration", extractEnumeration},
	{"causation", extractCausation},
	{"procedure", extractProcedure},
	{"truefalse", extractTrueFalse},
}

var (
	defPattern    = regexp.MustCompile(`^(.{2,30}?)とは、?(.{6,120}?)(である|のこと|を指す|という)?[。!！?？]*$`)
	class2Pattern = regexp.MustCompile(`^(.{2,30}?)は、?(.{2,40}?)(?:と|、)(.{2,40}?)(に分かれる|に分類される|がある|が存在する)[。!！?？]*$`)
	listPattern   = regexp.MustCompile(`^(.{2,30}?)(の特徴|の要素|のポイント|には|は)(?:は|が)?[、,:：]?(.{2,120}?)[。!！?？]*$`)
	causePattern  = regexp.MustCompile(`^(.{4,80}?)(?:のため|により|なので|その結果|したがって)、?(.{4,80})[。!！?？]*$`)

	listSeparators = regexp.MustCompile(`[/、,・;：:]`)
	stepSeparators = regexp.MustCompile(`[/、,]`)

	stepMarkers = []string{"まず", "次に", "その後", "最後に"}

	// tfReplacer flips a fixed set of antonym-like tokens to fabricate a
	// false statement. Replacements that change nothing are discarded.
	tfReplacer = strings.NewReplacer(
		"重要", "不要",
		"増加", "減少",
		"大", "小",
		"高い", "低い",
		"多い", "少ない",
	)
)

// extractCandidates applies every rule to every unit, in order.
func extractCandidates(units []unit) []candidate {
	var out []candidate
	for _, u := range units {
		for _, r := range rules {
			out = append(out, r.extract(u)...)
		}
	}
	return out
}

// extractDefinition handles "TERMとは DEFINITION (である|のこと|...)". It
// emits a direct term question and a blank-fill restatement whose answer is
// the term itself.
func extractDefinition(u unit) []candidate {
	m := defPattern.FindStringSubmatch(u.text)
	if m == nil {
		return nil
	}
	term, definition, suffix := m[1], m[2], m[3]
	if suffix == "" {
		suffix = "である"
	}
	return []candidate{
		{
			kind:     kindDef,
			typ:      TypeTerm,
			question: withHeading(u.heading, term+"とは何か？"),
			answer:   definition,
			line:     u.line,
		},
		{
			kind:     kindDefBlank,
			typ:      TypeFill,
			question: withHeading(u.heading, blankMarker+"とは、"+definition+suffix+"。"),
			answer:   term,
			line:     u.line,
		},
	}
}

// extractClassification handles "SUBJECTは A と B に分かれる" and its
// variants, asking what the subject divides into.
func extractClassification(u unit) []candidate {
	m := class2Pattern.FindStringSubmatch(u.text)
	if m == nil {
		return nil
	}
	subject, a, b, verb := m[1], m[2], m[3], m[4]
	return []candidate{{
		kind:     kindClass2,
		typ:      TypeShort,
		question: withHeading(u.heading, subject+"は何と何"+verb+"か？"),
		answer:   a + " と " + b,
		line:     u.line,
	}}
}

// extractEnumeration handles "SUBJECTの特徴は A、B、C ..." style listings.
// It fires only when the tail splits into three or more items and answers
// with the first five.
func extractEnumeration(u unit) []candidate {
	m := listPattern.FindStringSubmatch(u.text)
	if m == nil {
		return nil
	}
	subject, connective, rest := m[1], m[2], m[3]
	items := splitListItems(rest, listSeparators)
	if len(items) < 3 {
		return nil
	}
	if len(items) > 5 {
		items = items[:5]
	}
	var question string
	switch connective {
	case "の特徴", "の要素", "のポイント":
		question = subject + connective + "を挙げよ。"
	case "には":
		question = subject + "には何があるか？"
	default:
		question = subject + "として挙げられるものは何か？"
	}
	return []candidate{{
		kind:     kindList,
		typ:      TypeShort,
		question: withHeading(u.heading, question),
		answer:   strings.Join(items, " / "),
		line:     u.line,
	}}
}

// extractCausation handles "CAUSE により EFFECT" style sentences.
func extractCausation(u unit) []candidate {
	m := causePattern.FindStringSubmatch(u.text)
	if m == nil {
		return nil
	}
	cause := m[1]
	effect := strings.TrimRightFunc(m[2], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
	if effect == "" {
		return nil
	}
	return []candidate{{
		kind:     kindCause,
		typ:      TypeShort,
		question: withHeading(u.heading, cause+"の結果として何が起こるか？"),
		answer:   effect,
		line:     u.line,
	}}
}

// extractProcedure fires on units carrying step markers (まず, 次に, ...)
// that split into three or more steps, answering with the first six in order.
func extractProcedure(u unit) []candidate {
	marked := false
	for _, marker := range stepMarkers {
		if strings.Contains(u.text, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return nil
	}
	steps := splitListItems(u.text, stepSeparators)
	if len(steps) < 3 {
		return nil
	}
	if len(steps) > 6 {
		steps = steps[:6]
	}
	return []candidate{{
		kind:     kindSteps,
		typ:      TypeShort,
		question: withHeading(u.heading, "手順を順に述べよ。"),
		answer:   strings.Join(steps, " → "),
		line:     u.line,
	}}
}

// extractTrueFalse re-runs the definition pattern and flips antonym tokens in
// the definition. A changed statement yields a false/true pair; a no-op
// replacement yields nothing.
func extractTrueFalse(u unit) []candidate {
	m := defPattern.FindStringSubmatch(u.text)
	if m == nil {
		return nil
	}
	term, definition, suffix := m[1], m[2], m[3]
	if n := runeLen(definition); n < 8 || n > 80 {
		return nil
	}
	altered := tfReplacer.Replace(definition)
	if altered == definition {
		return nil
	}
	if suffix == "" {
		suffix = "である"
	}
	statement := term + "とは、" + definition + suffix + "。"
	falsified := term + "とは、" + altered + suffix + "。"
	return []candidate{
		{
			kind:     kindTF,
			typ:      TypeTrueFalse,
			question: withHeading(u.heading, "「"+falsified+"」は正しいか、誤りか？"),
			answer:   "誤り",
			line:     u.line,
		},
		{
			kind:     kindTF,
			typ:      TypeTrueFalse,
			question: withHeading(u.heading, "「"+statement+"」は正しいか、誤りか？"),
			answer:   "正しい",
			line:     u.line,
		},
	}
}

func withHeading(heading, question string) string {
	if heading == "" {
		return question
	}
	return "【" + heading + "】" + question
}

func splitListItems(s string, sep *regexp.Regexp) []string {
	parts := sep.Split(s, -1)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
