package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// GeneratedQuiz is one quiz item parsed from the model output.
type GeneratedQuiz struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

const quizSystemPrompt = `あなたは学習ノートから確認クイズを作る出題アシスタントです。
与えられたノート本文に書かれている知識だけを問うクイズを作成してください。

出力は JSON 配列のみです。各要素は次のキーを持つオブジェクトにしてください。
"type": "term"、"fill"、"short"、"tf"、"question" のいずれか
"question": 問題文（日本語）
"answer": 解答（簡潔に）

JSON 配列の前後に説明文やコードフェンスを付けないでください。`

// maxPromptRunes bounds the note body sent to the model.
const maxPromptRunes = 6000

var generatedQuizTypes = map[string]bool{
	"term":     true,
	"fill":     true,
	"short":    true,
	"tf":       true,
	"question": true,
}

// GenerateQuizzes asks the chat model for quiz items built from the note
// body. Malformed model output degrades to an empty result instead of an
// error; only transport failures are returned.
func (p *Provider) GenerateQuizzes(ctx context.Context, content string, limit int) ([]*GeneratedQuiz, error) {
	if limit <= 0 {
		limit = 10
	}

	body := content
	if utf8.RuneCountInString(body) > maxPromptRunes {
		body = string([]rune(body)[:maxPromptRunes])
	}

	messages := []Message{
		SystemMessage(quizSystemPrompt),
		UserMessage(fmt.Sprintf("クイズは最大 %d 問にしてください。\n\nノート本文:\n%s", limit, body)),
	}

	raw, err := p.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	quizzes, err := parseGeneratedQuizzes(raw)
	if err != nil {
		slog.Warn("discarding malformed quiz output", "error", err)
		return []*GeneratedQuiz{}, nil
	}
	if len(quizzes) > limit {
		quizzes = quizzes[:limit]
	}
	return quizzes, nil
}

// parseGeneratedQuizzes extracts the JSON array from the model reply.
// The reply may wrap the array in prose or a code fence.
func parseGeneratedQuizzes(raw string) ([]*GeneratedQuiz, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var entries []*GeneratedQuiz
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("invalid quiz JSON: %w", err)
	}

	quizzes := []*GeneratedQuiz{}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		entry.Question = strings.TrimSpace(entry.Question)
		entry.Answer = strings.TrimSpace(entry.Answer)
		if entry.Question == "" || entry.Answer == "" {
			continue
		}
		if !generatedQuizTypes[entry.Type] {
			entry.Type = "question"
		}
		quizzes = append(quizzes, entry)
	}
	return quizzes, nil
}
