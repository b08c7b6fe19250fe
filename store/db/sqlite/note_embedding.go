package sqlite

import (
	"context"

	"github.com/ayakoji/noteshare/store"
)

// SQLite has no pgvector equivalent, so embedding storage and similarity
// search return store.ErrVectorUnsupported. Related-note lookup degrades
// gracefully in the service layer.

func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	return nil, store.ErrVectorUnsupported
}

func (d *DB) ListNoteEmbeddings(ctx context.Context, find *store.FindNoteEmbedding) ([]*store.NoteEmbedding, error) {
	return nil, store.ErrVectorUnsupported
}

// DeleteNoteEmbedding returns nil so cascade deletes keep working.
func (d *DB) DeleteNoteEmbedding(ctx context.Context, noteID int32) error {
	return nil
}

func (d *DB) FindNotesWithoutEmbedding(ctx context.Context, find *store.FindNotesWithoutEmbedding) ([]*store.Note, error) {
	return nil, store.ErrVectorUnsupported
}

func (d *DB) SearchNotesByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteWithScore, error) {
	return nil, store.ErrVectorUnsupported
}
