package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/store"
)

func (d *DB) CreateQuiz(ctx context.Context, create *store.Quiz) (*store.Quiz, error) {
	fields := []string{"uid", "creator_id", "note_id", "type", "question", "answer", "source_line", "origin"}
	stmt := `
		INSERT INTO quiz (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(fields)) + `)
		RETURNING id, created_ts, updated_ts, review_count, correct_count
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.NoteID,
		create.Type,
		create.Question,
		create.Answer,
		create.SourceLine,
		create.Origin,
	).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs, &create.ReviewCount, &create.CorrectCount); err != nil {
		return nil, errors.Wrap(err, "failed to create quiz")
	}
	return create, nil
}

func (d *DB) ListQuizzes(ctx context.Context, find *store.FindQuiz) ([]*store.Quiz, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.NoteID != nil {
		where, args = append(where, "note_id = "+placeholder(len(args)+1)), append(args, *find.NoteID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.Origin != nil {
		where, args = append(where, "origin = "+placeholder(len(args)+1)), append(args, *find.Origin)
	}
	if find.Type != nil {
		where, args = append(where, "type = "+placeholder(len(args)+1)), append(args, *find.Type)
	}

	query := `
		SELECT id, uid, creator_id, created_ts, updated_ts, note_id, type, question, answer, source_line, origin, review_count, correct_count, last_reviewed_ts
		FROM quiz
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET %d", *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list quizzes")
	}
	defer rows.Close()

	list := []*store.Quiz{}
	for rows.Next() {
		var quiz store.Quiz
		if err := rows.Scan(
			&quiz.ID,
			&quiz.UID,
			&quiz.CreatorID,
			&quiz.CreatedTs,
			&quiz.UpdatedTs,
			&quiz.NoteID,
			&quiz.Type,
			&quiz.Question,
			&quiz.Answer,
			&quiz.SourceLine,
			&quiz.Origin,
			&quiz.ReviewCount,
			&quiz.CorrectCount,
			&quiz.LastReviewedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan quiz")
		}
		list = append(list, &quiz)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateQuiz(ctx context.Context, update *store.UpdateQuiz) (*store.Quiz, error) {
	set, args := []string{}, []any{}

	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if update.Question != nil {
		set, args = append(set, "question = "+placeholder(len(args)+1)), append(args, *update.Question)
	}
	if update.Answer != nil {
		set, args = append(set, "answer = "+placeholder(len(args)+1)), append(args, *update.Answer)
	}
	if update.ReviewCount != nil {
		set, args = append(set, "review_count = "+placeholder(len(args)+1)), append(args, *update.ReviewCount)
	}
	if update.CorrectCount != nil {
		set, args = append(set, "correct_count = "+placeholder(len(args)+1)), append(args, *update.CorrectCount)
	}
	if update.LastReviewedTs != nil {
		set, args = append(set, "last_reviewed_ts = "+placeholder(len(args)+1)), append(args, *update.LastReviewedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `
		UPDATE quiz
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, creator_id, created_ts, updated_ts, note_id, type, question, answer, source_line, origin, review_count, correct_count, last_reviewed_ts
	`
	var quiz store.Quiz
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&quiz.ID,
		&quiz.UID,
		&quiz.CreatorID,
		&quiz.CreatedTs,
		&quiz.UpdatedTs,
		&quiz.NoteID,
		&quiz.Type,
		&quiz.Question,
		&quiz.Answer,
		&quiz.SourceLine,
		&quiz.Origin,
		&quiz.ReviewCount,
		&quiz.CorrectCount,
		&quiz.LastReviewedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update quiz")
	}
	return &quiz, nil
}

func (d *DB) DeleteQuiz(ctx context.Context, delete *store.DeleteQuiz) error {
	if delete.NoteID != nil {
		if _, err := d.db.ExecContext(ctx, `DELETE FROM quiz WHERE note_id = `+placeholder(1), *delete.NoteID); err != nil {
			return errors.Wrap(err, "failed to delete quizzes of note")
		}
		return nil
	}
	result, err := d.db.ExecContext(ctx, `DELETE FROM quiz WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete quiz")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("quiz %d not found", delete.ID)
	}
	return nil
}
