package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/internal/base"
)

// QuizOrigin records which generator produced a quiz.
type QuizOrigin string

const (
	// QuizOriginRule marks quizzes produced by the rule extraction pipeline.
	QuizOriginRule QuizOrigin = "RULE"
	// QuizOriginAI marks quizzes produced by the AI generator.
	QuizOriginAI QuizOrigin = "AI"
)

type Quiz struct {
	// ID is the system generated unique identifier for the quiz.
	ID int32
	// UID is the user facing unique identifier for the quiz.
	UID string

	// Standard fields
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	NoteID   int32
	Type     string
	Question string
	Answer   string
	// SourceLine is the 1-based line of the note body the quiz came from.
	// Nil for fallback and AI generated quizzes.
	SourceLine *int32
	Origin     QuizOrigin

	// Review counters
	ReviewCount    int32
	CorrectCount   int32
	LastReviewedTs *int64
}

type FindQuiz struct {
	ID        *int32
	UID       *string
	NoteID    *int32
	CreatorID *int32
	Origin    *QuizOrigin
	Type      *string
	Limit     *int
	Offset    *int
}

type UpdateQuiz struct {
	ID int32

	UpdatedTs      *int64
	Question       *string
	Answer         *string
	ReviewCount    *int32
	CorrectCount   *int32
	LastReviewedTs *int64
}

type DeleteQuiz struct {
	ID int32
	// NoteID deletes every quiz of a note when set.
	NoteID *int32
}

func (s *Store) CreateQuiz(ctx context.Context, create *Quiz) (*Quiz, error) {
	if !base.UIDMatcher.MatchString(create.UID) {
		return nil, errors.New("invalid uid")
	}
	return s.driver.CreateQuiz(ctx, create)
}

func (s *Store) ListQuizzes(ctx context.Context, find *FindQuiz) ([]*Quiz, error) {
	if find.Limit == nil {
		defaultLimit := 200
		find.Limit = &defaultLimit
	}
	return s.driver.ListQuizzes(ctx, find)
}

func (s *Store) GetQuiz(ctx context.Context, find *FindQuiz) (*Quiz, error) {
	quizzes, err := s.ListQuizzes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, nil
	}
	return quizzes[0], nil
}

func (s *Store) UpdateQuiz(ctx context.Context, update *UpdateQuiz) (*Quiz, error) {
	return s.driver.UpdateQuiz(ctx, update)
}

func (s *Store) DeleteQuiz(ctx context.Context, delete *DeleteQuiz) error {
	return s.driver.DeleteQuiz(ctx, delete)
}
