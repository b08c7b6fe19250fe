package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/store"
)

// UpsertNoteEmbedding inserts or updates the embedding of a note.
func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	stmt := `
		INSERT INTO note_embedding (note_id, embedding, model, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (note_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts
	`

	vector := pgvector.NewVector(embedding.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		embedding.NoteID,
		vector,
		embedding.Model,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.ID, &embedding.CreatedTs, &embedding.UpdatedTs)

	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert note embedding")
	}

	return embedding, nil
}

// ListNoteEmbeddings lists note embeddings.
func (d *DB) ListNoteEmbeddings(ctx context.Context, find *store.FindNoteEmbedding) ([]*store.NoteEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.NoteID != nil {
		where, args = append(where, "note_id = "+placeholder(len(args)+1)), append(args, *find.NoteID)
	}
	if find.Model != nil {
		where, args = append(where, "model = "+placeholder(len(args)+1)), append(args, *find.Model)
	}

	query := `
		SELECT id, note_id, embedding, model, created_ts, updated_ts
		FROM note_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note embeddings")
	}
	defer rows.Close()

	list := []*store.NoteEmbedding{}
	for rows.Next() {
		var embedding store.NoteEmbedding
		var vector pgvector.Vector
		if err := rows.Scan(
			&embedding.ID,
			&embedding.NoteID,
			&vector,
			&embedding.Model,
			&embedding.CreatedTs,
			&embedding.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note embedding")
		}
		embedding.Embedding = vector.Slice()
		list = append(list, &embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteNoteEmbedding deletes the embeddings of a note.
func (d *DB) DeleteNoteEmbedding(ctx context.Context, noteID int32) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM note_embedding WHERE note_id = `+placeholder(1), noteID)
	if err != nil {
		return errors.Wrap(err, "failed to delete note embedding")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("note embedding with note_id %d not found", noteID)
	}
	return nil
}

// FindNotesWithoutEmbedding finds notes missing an embedding for the model.
func (d *DB) FindNotesWithoutEmbedding(ctx context.Context, find *store.FindNotesWithoutEmbedding) ([]*store.Note, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			n.id, n.uid, n.creator_id, n.created_ts, n.updated_ts, n.row_status,
			n.title, n.content, n.visibility, n.pinned, n.community_id
		FROM note n
		LEFT JOIN note_embedding e ON n.id = e.note_id AND e.model = ` + placeholder(1) + `
		WHERE e.id IS NULL
			AND n.row_status = 'NORMAL'
			AND LENGTH(n.content) > 0
		ORDER BY n.created_ts DESC
		LIMIT ` + placeholder(2)

	rows, err := d.db.QueryContext(ctx, query, find.Model, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find notes without embedding")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		var note store.Note
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.CreatedTs,
			&note.UpdatedTs,
			&note.RowStatus,
			&note.Title,
			&note.Content,
			&note.Visibility,
			&note.Pinned,
			&note.CommunityID,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		list = append(list, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// SearchNotesByVector performs cosine similarity search with pgvector.
// The <=> operator computes cosine distance, so ordering ascending by
// distance returns the most similar notes first.
func (d *DB) SearchNotesByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	where, args := []string{"n.row_status = 'NORMAL'"}, []any{}

	vector := pgvector.NewVector(opts.Vector)
	args = append(args, vector)
	vectorArg := placeholder(len(args))

	where, args = append(where, "e.model = "+placeholder(len(args)+1)), append(args, opts.Model)

	// Bound the search to notes the user may read.
	visibility := []string{"n.visibility = 'PUBLIC'"}
	args = append(args, opts.UserID)
	visibility = append(visibility, "n.creator_id = "+placeholder(len(args)))
	if len(opts.CommunityIDs) > 0 {
		list := []string{}
		for _, id := range opts.CommunityIDs {
			list = append(list, placeholder(len(args)+1))
			args = append(args, id)
		}
		visibility = append(visibility, "(n.visibility = 'COMMUNITY' AND n.community_id IN ("+strings.Join(list, ", ")+"))")
	}
	where = append(where, "("+strings.Join(visibility, " OR ")+")")

	if opts.ExcludeNoteID != nil {
		where, args = append(where, "n.id != "+placeholder(len(args)+1)), append(args, *opts.ExcludeNoteID)
	}

	args = append(args, limit)
	limitArg := placeholder(len(args))

	query := `
		SELECT
			n.id, n.uid, n.creator_id, n.created_ts, n.updated_ts, n.row_status,
			n.title, n.content, n.visibility, n.pinned, n.community_id,
			1 - (e.embedding <=> ` + vectorArg + `) AS score
		FROM note n
		INNER JOIN note_embedding e ON n.id = e.note_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.embedding <=> ` + vectorArg + `
		LIMIT ` + limitArg

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search notes by vector")
	}
	defer rows.Close()

	results := []*store.NoteWithScore{}
	for rows.Next() {
		var result store.NoteWithScore
		var note store.Note
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.CreatedTs,
			&note.UpdatedTs,
			&note.RowStatus,
			&note.Title,
			&note.Content,
			&note.Visibility,
			&note.Pinned,
			&note.CommunityID,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		result.Note = &note
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
