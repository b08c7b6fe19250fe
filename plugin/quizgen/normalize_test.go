package quizgen

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []rawLine
	}{
		{
			name:  "fenced code removed with language tag",
			input: "前文\n```go\nx := 1\n```\n後文",
			want:  []rawLine{{"前文", 1}, {"後文", 5}},
		},
		{
			name:  "unterminated fence discards to end of input",
			input: "冒頭\n```\n残りは消える\nこれも消える",
			want:  []rawLine{{"冒頭", 1}},
		},
		{
			name:  "zero width spaces and tabs",
			input: "あ​い\tう",
			want:  []rawLine{{"あ い う", 1}},
		},
		{
			name:  "url token stripped with trailing space",
			input: "参考 https://example.com/page?id=1",
			want:  []rawLine{{"参考", 1}},
		},
		{
			name:  "empty lines kept with original numbers",
			input: "一行目\n\n三行目",
			want:  []rawLine{{"一行目", 1}, {"", 2}, {"三行目", 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLines(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeLines(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLinesIdempotent(t *testing.T) {
	input := "## 章\t見出し\n本文です https://example.com/a \n\n- 箇条書き\n```\nコード\n```\n末尾"
	first := normalizeLines(input)

	texts := make([]string, 0, len(first))
	for _, l := range first {
		texts = append(texts, l.text)
	}
	second := normalizeLines(strings.Join(texts, "\n"))

	if len(first) != len(second) {
		t.Fatalf("line count changed on renormalization: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i].text != second[i].text {
			t.Errorf("line %d changed on renormalization: %q != %q", i, first[i].text, second[i].text)
		}
	}
}

func TestFallbackCandidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"below window", strings.Repeat("あ", 24), false},
		{"window floor", strings.Repeat("あ", 25), true},
		{"window ceiling", strings.Repeat("あ", 120), true},
		{"above window", strings.Repeat("あ", 121), false},
		{"terminator stripped before measuring", strings.Repeat("あ", 25) + "。", true},
		{"empty", "", false},
		{"whitespace only", "   \n\t  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fallbackCandidate(tt.input)
			if ok != tt.ok {
				t.Fatalf("fallbackCandidate(%q runes=%d) ok = %v, want %v", tt.input, runeLen(tt.input), ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.kind != kindFallback || got.typ != TypeFill {
				t.Errorf("fallback kind/type = %s/%s", got.kind, got.typ)
			}
			if !strings.HasSuffix(got.question, blankMarker) {
				t.Errorf("fallback question %q missing blank marker", got.question)
			}
			if got.answer == "" {
				t.Errorf("fallback answer is empty")
			}
		})
	}
}

func TestFallbackCandidateCutRatio(t *testing.T) {
	input := strings.Repeat("あ", 100)
	got, ok := fallbackCandidate(input)
	if !ok {
		t.Fatal("expected a fallback candidate")
	}
	if qn := runeLen(got.question); qn != 45+len(blankMarker) {
		t.Errorf("question runes = %d, want %d", qn, 45+len(blankMarker))
	}
	if an := runeLen(got.answer); an != 55 {
		t.Errorf("answer runes = %d, want 55", an)
	}
}
