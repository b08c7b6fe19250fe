package embedding

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayakoji/noteshare/store"
)

// mockEmbedder stands in for the AI provider.
type mockEmbedder struct {
	model          string
	dimensions     int
	shouldFail     bool
	batchCallCount atomic.Int32
	lastTexts      []string
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{model: "text-embedding-3-small", dimensions: 8}
}

func (m *mockEmbedder) EmbeddingBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCallCount.Add(1)
	m.lastTexts = texts
	if m.shouldFail {
		return nil, errors.New("batch embedding error")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vector := make([]float32, m.dimensions)
		for j := range vector {
			vector[j] = 0.1
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (m *mockEmbedder) EmbeddingModel() string {
	return m.model
}

func TestNewRunner(t *testing.T) {
	embedder := newMockEmbedder()
	s := &store.Store{}

	runner := NewRunner(s, embedder)

	require.NotNil(t, runner)
	assert.Equal(t, s, runner.store)
	assert.Equal(t, 2*time.Minute, runner.interval)
	assert.Equal(t, 8, runner.batchSize)
	assert.Equal(t, "text-embedding-3-small", runner.model)
}

func TestProcessBatchEmpty(t *testing.T) {
	embedder := newMockEmbedder()
	runner := NewRunner(&store.Store{}, embedder)

	err := runner.processBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, int32(0), embedder.batchCallCount.Load())
}

func TestProcessBatchEmbeddingFailure(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.shouldFail = true
	runner := NewRunner(&store.Store{}, embedder)

	err := runner.processBatch(context.Background(), []*store.Note{{ID: 1, Content: "テスト"}})
	assert.Error(t, err)
}

func TestProcessBatchCancelled(t *testing.T) {
	embedder := newMockEmbedder()
	runner := NewRunner(&store.Store{}, embedder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.processBatch(ctx, []*store.Note{{ID: 1, Content: "テスト"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), embedder.batchCallCount.Load())
}

func TestProcessBatchEmbedsTitleAndBody(t *testing.T) {
	embedder := newMockEmbedder()
	runner := NewRunner(&store.Store{}, embedder)

	// The upsert fails against the uninitialized store, which processBatch
	// logs and tolerates. The embedder must still receive the composed text.
	err := runner.processBatch(context.Background(), []*store.Note{
		{ID: 1, Title: "熱力学", Content: "エネルギー保存の法則について。"},
	})
	assert.NoError(t, err)

	require.Len(t, embedder.lastTexts, 1)
	assert.True(t, strings.HasPrefix(embedder.lastTexts[0], "熱力学\n"))
	assert.Contains(t, embedder.lastTexts[0], "エネルギー保存の法則")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "あいう", truncateRunes("あいうえお", 3))
	assert.Equal(t, "", truncateRunes("", 5))
}

func TestBatchWindowing(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		noteCount int
		batches   int
	}{
		{"batch size 1", 1, 5, 5},
		{"batch size 5", 5, 12, 3},
		{"batch size larger than notes", 100, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := 0
			for i := 0; i < tt.noteCount; i += tt.batchSize {
				end := i + tt.batchSize
				if end > tt.noteCount {
					end = tt.noteCount
				}
				assert.LessOrEqual(t, end-i, tt.batchSize)
				count++
			}
			assert.Equal(t, tt.batches, count)
		})
	}
}
