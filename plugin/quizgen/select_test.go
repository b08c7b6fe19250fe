package quizgen

import (
	"strings"
	"testing"
)

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"heading tag ignored", "【第1章】慣性とは何か？", "慣性とは何か？", true},
		{"whitespace ignored", "慣性とは 何か？", "慣性とは何か？", true},
		{"brackets ignored", "「慣性」とは何か？", "慣性とは何か？", true},
		{"width folded", "ＡＢＣとは何か？", "ABCとは何か？", true},
		{"different questions differ", "慣性とは何か？", "重力とは何か？", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dedupeKey(tt.a) == dedupeKey(tt.b); got != tt.same {
				t.Errorf("dedupeKey(%q) == dedupeKey(%q) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestDedupeKeyTruncates(t *testing.T) {
	long := strings.Repeat("あ", 130)
	if n := runeLen(dedupeKey(long)); n != 120 {
		t.Errorf("key runes = %d, want 120", n)
	}
}

func TestDedupeCandidatesKeepsFirst(t *testing.T) {
	cands := []scoredCandidate{
		{candidate: candidate{question: "慣性とは何か？", answer: "一番目"}, score: 1},
		{candidate: candidate{question: "【第1章】慣性とは何か？", answer: "二番目"}, score: 9},
		{candidate: candidate{question: "重力とは何か？", answer: "三番目"}, score: 5},
	}
	got := dedupeCandidates(cands)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].answer != "一番目" || got[1].answer != "三番目" {
		t.Errorf("dedupe kept %q,%q; want first occurrences in order", got[0].answer, got[1].answer)
	}
}

func tfCandidate(q string, score int) scoredCandidate {
	return scoredCandidate{candidate: candidate{typ: TypeTrueFalse, kind: kindTF, question: q}, score: score}
}

func shortCandidate(q string, score int) scoredCandidate {
	return scoredCandidate{candidate: candidate{typ: TypeShort, kind: kindList, question: q}, score: score}
}

func TestSelectCandidatesLimit(t *testing.T) {
	var cands []scoredCandidate
	for i := 0; i < 30; i++ {
		cands = append(cands, shortCandidate(strings.Repeat("あ", i+1), i))
	}
	if got := selectCandidates(cands, 7, true); len(got) != 7 {
		t.Errorf("got %d candidates, want 7", len(got))
	}
}

func TestSelectCandidatesTrueFalseCap(t *testing.T) {
	cands := []scoredCandidate{
		tfCandidate("偽①", 9),
		tfCandidate("偽②", 8),
		tfCandidate("偽③", 7),
		tfCandidate("偽④", 6),
		shortCandidate("短①", 5),
		shortCandidate("短②", 4),
		shortCandidate("短③", 3),
		shortCandidate("短④", 2),
		shortCandidate("短⑤", 1),
	}
	got := selectCandidates(cands, 5, true)
	if len(got) != 5 {
		t.Fatalf("got %d candidates, want 5", len(got))
	}
	tf := 0
	for _, c := range got {
		if c.typ == TypeTrueFalse {
			tf++
		}
	}
	// floor(5 * 0.2) = 1 even though true/false items outscore the rest.
	if tf != 1 {
		t.Errorf("true/false count = %d, want 1", tf)
	}
	if got[len(got)-1].question != "偽①" {
		t.Errorf("true/false slot should hold the best scored one, got %q", got[len(got)-1].question)
	}
}

func TestSelectCandidatesBackfill(t *testing.T) {
	cands := []scoredCandidate{
		shortCandidate("短①", 9),
		shortCandidate("短②", 8),
		tfCandidate("偽①", 7),
		tfCandidate("偽②", 6),
		tfCandidate("偽③", 5),
		tfCandidate("偽④", 4),
	}
	got := selectCandidates(cands, 5, true)
	if len(got) != 5 {
		t.Fatalf("got %d candidates, want 5", len(got))
	}
	tf := 0
	for _, c := range got {
		if c.typ == TypeTrueFalse {
			tf++
		}
	}
	// 2 others + capped 1 tf, then backfill fills the rest from the pool.
	if tf != 3 {
		t.Errorf("true/false count = %d, want 3 after backfill", tf)
	}
}

func TestSelectCandidatesDisallowTrueFalse(t *testing.T) {
	cands := []scoredCandidate{
		tfCandidate("偽①", 9),
		shortCandidate("短①", 5),
		shortCandidate("短②", 4),
	}
	got := selectCandidates(cands, 2, false)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	// The flag disables the cap and priority mechanics: plain top scores win.
	if got[0].question != "偽①" || got[1].question != "短①" {
		t.Errorf("got %q,%q; want top scores regardless of type", got[0].question, got[1].question)
	}
}

func TestSelectCandidatesStableForEqualScores(t *testing.T) {
	cands := []scoredCandidate{
		shortCandidate("先に来た", 5),
		shortCandidate("後から来た", 5),
		shortCandidate("最後に来た", 5),
	}
	got := selectCandidates(cands, 3, true)
	want := []string{"先に来た", "後から来た", "最後に来た"}
	for i, q := range want {
		if got[i].question != q {
			t.Errorf("position %d = %q, want %q", i, got[i].question, q)
		}
	}
}
