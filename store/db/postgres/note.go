package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	fields := []string{"uid", "creator_id", "title", "content", "visibility", "pinned", "community_id"}
	stmt := `
		INSERT INTO note (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(fields)) + `)
		RETURNING id, created_ts, updated_ts, row_status
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.Title,
		create.Content,
		create.Visibility,
		create.Pinned,
		create.CommunityID,
	).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs, &create.RowStatus); err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.CommunityID != nil {
		where, args = append(where, "community_id = "+placeholder(len(args)+1)), append(args, *find.CommunityID)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, *find.RowStatus)
	}
	if len(find.VisibilityList) != 0 {
		list := []string{}
		for _, visibility := range find.VisibilityList {
			list = append(list, placeholder(len(args)+1))
			args = append(args, visibility)
		}
		where = append(where, "visibility IN ("+strings.Join(list, ", ")+")")
	}
	for _, keyword := range find.ContentSearch {
		where = append(where, "(title ILIKE "+placeholder(len(args)+1)+" OR content ILIKE "+placeholder(len(args)+2)+")")
		args = append(args, "%"+keyword+"%", "%"+keyword+"%")
	}
	if find.Pinned != nil {
		where, args = append(where, "pinned = "+placeholder(len(args)+1)), append(args, *find.Pinned)
	}

	contentCol := "content"
	if find.ExcludeContent {
		contentCol = "''"
	}

	query := `
		SELECT id, uid, creator_id, created_ts, updated_ts, row_status, title, ` + contentCol + ` AS content, visibility, pinned, community_id
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY pinned DESC, created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET %d", *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
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

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{}, []any{}

	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *update.RowStatus)
	}
	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Content != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *update.Content)
	}
	if update.Visibility != nil {
		set, args = append(set, "visibility = "+placeholder(len(args)+1)), append(args, *update.Visibility)
	}
	if update.Pinned != nil {
		set, args = append(set, "pinned = "+placeholder(len(args)+1)), append(args, *update.Pinned)
	}
	if update.ClearCommunity {
		set = append(set, "community_id = NULL")
	} else if update.CommunityID != nil {
		set, args = append(set, "community_id = "+placeholder(len(args)+1)), append(args, *update.CommunityID)
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `UPDATE note SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update note")
	}
	return nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM note_embedding WHERE note_id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete note embedding")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM quiz WHERE note_id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete note quizzes")
	}
	result, err := d.db.ExecContext(ctx, `DELETE FROM note WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("note %d not found", delete.ID)
	}
	return nil
}
