package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrVectorUnsupported is returned by drivers without vector support.
var ErrVectorUnsupported = errors.New("note embeddings require PostgreSQL with the pgvector extension")

// NoteEmbedding stores the embedding vector of a note body for semantic
// related-note lookup. Requires the PostgreSQL driver with pgvector.
type NoteEmbedding struct {
	ID     int32
	NoteID int32

	Embedding []float32
	Model     string

	CreatedTs int64
	UpdatedTs int64
}

type FindNoteEmbedding struct {
	NoteID *int32
	Model  *string
}

// FindNotesWithoutEmbedding finds notes missing an embedding for a model.
type FindNotesWithoutEmbedding struct {
	Model string
	Limit int
}

// VectorSearchOptions controls a similarity search over note embeddings.
type VectorSearchOptions struct {
	Vector []float32
	Model  string
	Limit  int
	// ExcludeNoteID drops the query note itself from the results.
	ExcludeNoteID *int32
	// UserID and CommunityIDs bound the search to notes the user may read:
	// their own notes, public notes, and community notes of their communities.
	UserID       int32
	CommunityIDs []int32
}

// NoteWithScore pairs a note with its cosine similarity score.
type NoteWithScore struct {
	Note  *Note
	Score float64
}

func (s *Store) UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error) {
	if s.driver == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.driver.UpsertNoteEmbedding(ctx, embedding)
}

func (s *Store) ListNoteEmbeddings(ctx context.Context, find *FindNoteEmbedding) ([]*NoteEmbedding, error) {
	if s.driver == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.driver.ListNoteEmbeddings(ctx, find)
}

func (s *Store) DeleteNoteEmbedding(ctx context.Context, noteID int32) error {
	if s.driver == nil {
		return errors.New("store is not initialized")
	}
	return s.driver.DeleteNoteEmbedding(ctx, noteID)
}

func (s *Store) FindNotesWithoutEmbedding(ctx context.Context, find *FindNotesWithoutEmbedding) ([]*Note, error) {
	if s.driver == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.driver.FindNotesWithoutEmbedding(ctx, find)
}

func (s *Store) SearchNotesByVector(ctx context.Context, opts *VectorSearchOptions) ([]*NoteWithScore, error) {
	if s.driver == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.driver.SearchNotesByVector(ctx, opts)
}
