// Package embedding keeps note embeddings in sync with note bodies in the
// background.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	notesvc "github.com/ayakoji/noteshare/server/service/note"
	"github.com/ayakoji/noteshare/store"
)

// maxEmbedRunes bounds the text sent per note. Embedding models cap their
// input and study notes rarely need more context than this.
const maxEmbedRunes = 6000

// Embedder is the slice of the AI provider the runner needs.
type Embedder interface {
	EmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModel() string
}

type Runner struct {
	store     *store.Store
	embedder  Embedder
	interval  time.Duration
	batchSize int
	model     string
}

// NewRunner creates a note embedding runner. The small batch size keeps
// memory peaks down and the interval keeps the API usage gentle.
func NewRunner(store *store.Store, embedder Embedder) *Runner {
	return &Runner{
		store:     store,
		embedder:  embedder,
		interval:  2 * time.Minute,
		batchSize: 8,
		model:     embedder.EmbeddingModel(),
	}
}

// Run starts the background task and blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	// Process once on startup.
	r.processNewNotes(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.processNewNotes(ctx)
		case <-ctx.Done():
			slog.Info("embedding runner stopped")
			return
		}
	}
}

// RunOnce processes pending notes once, for manual triggering.
func (r *Runner) RunOnce(ctx context.Context) {
	r.processNewNotes(ctx)
}

func (r *Runner) processNewNotes(ctx context.Context) {
	// Fetch more rows than one batch so a healthy run drains the backlog,
	// but still process in small batches.
	notes, err := r.store.FindNotesWithoutEmbedding(ctx, &store.FindNotesWithoutEmbedding{
		Model: r.model,
		Limit: r.batchSize * 20,
	})
	if err != nil {
		slog.Error("failed to find notes without embedding", "error", err)
		return
	}
	if len(notes) == 0 {
		return
	}

	slog.Info("processing notes for embedding", "count", len(notes))

	for i := 0; i < len(notes); i += r.batchSize {
		select {
		case <-ctx.Done():
			slog.Info("embedding processing cancelled", "processed", i, "total", len(notes))
			return
		default:
		}

		end := i + r.batchSize
		if end > len(notes) {
			end = len(notes)
		}
		batch := notes[i:end]

		if err := r.processBatch(ctx, batch); err != nil {
			slog.Error("failed to process batch", "error", err)
			continue
		}
		slog.Info("batch processed", "count", len(batch), "progress", fmt.Sprintf("%d/%d", end, len(notes)))
	}
}

func (r *Runner) processBatch(ctx context.Context, notes []*store.Note) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if len(notes) == 0 {
		return nil
	}

	texts := make([]string, len(notes))
	for i, note := range notes {
		texts[i] = truncateRunes(notesvc.EmbeddingText(note), maxEmbedRunes)
	}

	vectors, err := r.embedder.EmbeddingBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(notes) {
		return fmt.Errorf("expected %d vectors, got %d", len(notes), len(vectors))
	}

	for i, note := range notes {
		if _, err := r.store.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
			NoteID:    note.ID,
			Embedding: vectors[i],
			Model:     r.model,
		}); err != nil {
			slog.Error("failed to upsert embedding", "noteID", note.ID, "error", err)
		}
	}
	return nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
