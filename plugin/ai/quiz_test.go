package ai

import (
	"testing"
)

// TestParseGeneratedQuizzes tests JSON extraction from model replies.
func TestParseGeneratedQuizzes(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCount   int
		expectError bool
	}{
		{
			name:      "Plain JSON array",
			raw:       `[{"type":"term","question":"慣性とは何か","answer":"外力がない限り運動状態を保つ性質"}]`,
			wantCount: 1,
		},
		{
			name: "Code-fenced reply",
			raw: "```json\n" +
				`[{"type":"tf","question":"光速は一定である","answer":"正しい"}]` +
				"\n```",
			wantCount: 1,
		},
		{
			name:      "Array wrapped in prose",
			raw:       `以下がクイズです。[{"type":"short","question":"加速度の単位は何か","answer":"m/s^2"}]以上です。`,
			wantCount: 1,
		},
		{
			name:      "Object-wrapped array",
			raw:       `{"quizzes": [{"type":"fill","question":"力 = 質量 × ____","answer":"加速度"}]}`,
			wantCount: 1,
		},
		{
			name:        "No array at all",
			raw:         "クイズを作成できませんでした。",
			expectError: true,
		},
		{
			name:        "Broken JSON",
			raw:         `[{"type":"term","question":"慣性とは`,
			expectError: true,
		},
		{
			name:      "Empty array",
			raw:       `[]`,
			wantCount: 0,
		},
		{
			name: "Entries without question or answer are dropped",
			raw: `[
				{"type":"term","question":"","answer":"答え"},
				{"type":"term","question":"問題","answer":""},
				{"type":"term","question":"慣性とは何か","answer":"運動状態を保つ性質"}
			]`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGeneratedQuizzes(tt.raw)
			if (err != nil) != tt.expectError {
				t.Fatalf("parseGeneratedQuizzes() error = %v, expectError %v", err, tt.expectError)
			}
			if err != nil {
				return
			}
			if len(got) != tt.wantCount {
				t.Errorf("parseGeneratedQuizzes() returned %d items, want %d", len(got), tt.wantCount)
			}
		})
	}
}

// TestParseGeneratedQuizzes_Normalization tests type and whitespace cleanup.
func TestParseGeneratedQuizzes_Normalization(t *testing.T) {
	raw := `[
		{"type":"multiple_choice","question":"  電圧の単位は何か  ","answer":" ボルト "},
		{"type":"term","question":"抵抗とは何か","answer":"電流の流れにくさ"}
	]`

	got, err := parseGeneratedQuizzes(raw)
	if err != nil {
		t.Fatalf("parseGeneratedQuizzes() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parseGeneratedQuizzes() returned %d items, want 2", len(got))
	}

	if got[0].Type != "question" {
		t.Errorf("Expected unknown type to normalize to question, got %s", got[0].Type)
	}
	if got[0].Question != "電圧の単位は何か" {
		t.Errorf("Expected trimmed question, got %q", got[0].Question)
	}
	if got[0].Answer != "ボルト" {
		t.Errorf("Expected trimmed answer, got %q", got[0].Answer)
	}
	if got[1].Type != "term" {
		t.Errorf("Expected known type to survive, got %s", got[1].Type)
	}
}
