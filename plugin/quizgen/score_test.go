package quizgen

import "testing"

func TestScoreCandidate(t *testing.T) {
	tests := []struct {
		name string
		c    candidate
		want int
	}{
		{
			name: "definition with ideal lengths",
			c: candidate{
				kind:     kindDef,
				question: "記憶のメカニズムとは何なのか？", // 15 runes
				answer:   "六文字の答え",          // 6 runes
			},
			want: 6 + 1 + 1,
		},
		{
			name: "short question penalized",
			c: candidate{
				kind:     kindDef,
				question: "光合成とは何か？", // 8 runes
				answer:   "植物が光エネルギーを使って栄養を作る過程",
			},
			want: 6 - 2 + 1,
		},
		{
			name: "demonstrative in question",
			c: candidate{
				kind:     kindList,
				question: "この授業の特徴を挙げよ。", // 12 runes, contains この
				answer:   "実験 / レポート / 発表",
			},
			want: 4 - 2 + 1 - 2,
		},
		{
			name: "demonstrative in answer",
			c: candidate{
				kind:     kindCause,
				question: "気温の上昇の結果として何が起こるか？",
				answer:   "その影響で氷が溶ける",
			},
			want: 4 + 1 + 1 - 1,
		},
		{
			name: "full width digit bonus",
			c: candidate{
				kind:     kindClass2,
				question: "構成要素は何と何に分かれるか？",
				answer:   "第１種 と 第２種",
			},
			want: 5 + 1 + 1 + 1,
		},
		{
			name: "heading tag bonus",
			c: candidate{
				kind:     kindSteps,
				question: "【実験手順】手順を順に述べよ。",
				answer:   "まず加熱する → 次に冷却する → 最後に計量する",
			},
			want: 4 + 1 + 1 + 1,
		},
		{
			name: "true false base",
			c: candidate{
				kind:     kindTF,
				question: "「売上とは、表示回数に比例して増加する数値である。」は正しいか、誤りか？",
				answer:   "誤り",
			},
			want: 2 + 1 - 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreCandidate(tt.c); got != tt.want {
				t.Errorf("scoreCandidate(%q) = %d, want %d", tt.c.question, got, tt.want)
			}
		})
	}
}

func TestLengthShape(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, -2},
		{14, -2},
		{15, 1},
		{90, 1},
		{91, -1},
	}
	for _, tt := range tests {
		if got := lengthShape(tt.n, 15, 90); got != tt.want {
			t.Errorf("lengthShape(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestFilterCandidates(t *testing.T) {
	keep := scoredCandidate{
		candidate: candidate{typ: TypeShort, question: "八文字以上ある質問？", answer: "十分な長さの答え"},
		score:     5,
	}
	tests := []struct {
		name string
		c    scoredCandidate
		kept bool
	}{
		{"passes all checks", keep, true},
		{
			"below minimum score",
			scoredCandidate{candidate: keep.candidate, score: 2},
			false,
		},
		{
			"question below eight runes",
			scoredCandidate{candidate: candidate{typ: TypeShort, question: "短い質問です。", answer: "十分な長さの答え"}, score: 9},
			false,
		},
		{
			"single rune answer",
			scoredCandidate{candidate: candidate{typ: TypeShort, question: "八文字以上ある質問？", answer: "水"}, score: 9},
			false,
		},
		{
			"true false exempt from answer floor",
			scoredCandidate{candidate: candidate{typ: TypeTrueFalse, question: "八文字以上ある質問？", answer: "誤り"}, score: 9},
			true,
		},
		{
			"stoplisted answer",
			scoredCandidate{candidate: candidate{typ: TypeShort, question: "八文字以上ある質問？", answer: "重要"}, score: 9},
			false,
		},
		{
			"punctuation only question",
			scoredCandidate{candidate: candidate{typ: TypeShort, question: "！？！？！？！？", answer: "十分な長さの答え"}, score: 9},
			false,
		},
		{
			"punctuation only answer",
			scoredCandidate{candidate: candidate{typ: TypeShort, question: "八文字以上ある質問？", answer: "（？）"}, score: 9},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterCandidates([]scoredCandidate{tt.c}, 3)
			if kept := len(got) == 1; kept != tt.kept {
				t.Errorf("filterCandidates kept=%v, want %v", kept, tt.kept)
			}
		})
	}
}

func TestFilterCandidatesMinScore(t *testing.T) {
	c := scoredCandidate{
		candidate: candidate{typ: TypeShort, question: "八文字以上ある質問？", answer: "十分な長さの答え"},
		score:     1,
	}
	if got := filterCandidates([]scoredCandidate{c}, 1); len(got) != 1 {
		t.Errorf("score 1 must pass with minScore 1")
	}
	if got := filterCandidates([]scoredCandidate{c}, 2); len(got) != 0 {
		t.Errorf("score 1 must be dropped with minScore 2")
	}
}
