package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/ayakoji/noteshare/plugin/quizgen"
	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/store"
)

// Quiz is the API representation of a stored quiz.
type Quiz struct {
	UID            string `json:"uid"`
	NoteUID        string `json:"noteUid"`
	Type           string `json:"type"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	SourceLine     *int32 `json:"sourceLine,omitempty"`
	Origin         string `json:"origin"`
	ReviewCount    int32  `json:"reviewCount"`
	CorrectCount   int32  `json:"correctCount"`
	LastReviewedTs *int64 `json:"lastReviewedTs,omitempty"`
	CreatedTs      int64  `json:"createdTs"`
}

func convertQuizFromStore(quiz *store.Quiz, noteUID string) *Quiz {
	return &Quiz{
		UID:            quiz.UID,
		NoteUID:        noteUID,
		Type:           quiz.Type,
		Question:       quiz.Question,
		Answer:         quiz.Answer,
		SourceLine:     quiz.SourceLine,
		Origin:         string(quiz.Origin),
		ReviewCount:    quiz.ReviewCount,
		CorrectCount:   quiz.CorrectCount,
		LastReviewedTs: quiz.LastReviewedTs,
		CreatedTs:      quiz.CreatedTs,
	}
}

type GenerateQuizzesRequest struct {
	// Mode selects the generator: "rule" (default) or "ai".
	Mode string `json:"mode"`
	// Limit caps the number of generated items, bounded by the instance
	// request limit.
	Limit int `json:"limit"`
	// MinScore overrides the rule pipeline score threshold.
	MinScore int `json:"minScore"`
	// AllowTrueFalse admits true/false items from the rule pipeline.
	// Defaults to true.
	AllowTrueFalse *bool `json:"allowTrueFalse"`
}

// GenerateQuizzes produces quizzes from a note body and persists them for
// the caller. The rule pipeline runs locally; mode=ai asks the configured
// model instead.
func (s *APIV1Service) GenerateQuizzes(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	note, err := s.findNoteByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.requireNoteReadable(ctx, note, user); err != nil {
		return writeError(c, err)
	}

	request := &GenerateQuizzesRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > s.Profile.QuizRequestLimit {
		limit = s.Profile.QuizRequestLimit
	}

	var created []*store.Quiz
	switch request.Mode {
	case "", "rule":
		minScore := request.MinScore
		if minScore <= 0 {
			minScore = s.Profile.QuizMinScore
		}
		allowTrueFalse := true
		if request.AllowTrueFalse != nil {
			allowTrueFalse = *request.AllowTrueFalse
		}
		items := quizgen.Generate(note.Content, &quizgen.Options{
			Limit:          limit,
			MinScore:       minScore,
			AllowTrueFalse: allowTrueFalse,
		})
		created, err = s.persistQuizzes(c, note, user, items, store.QuizOriginRule)
		if err != nil {
			return writeError(c, err)
		}
	case "ai":
		if s.AIProvider == nil {
			return writeError(c, apierrors.AIUnavailable("AI features are disabled on this instance", nil))
		}
		// Model calls are slow and metered, keep the number in flight small.
		if err := s.aiSemaphore.Acquire(ctx, 1); err != nil {
			return writeError(c, apierrors.Internal("request cancelled", err))
		}
		generated, err := s.AIProvider.GenerateQuizzes(ctx, note.Content, limit)
		s.aiSemaphore.Release(1)
		if err != nil {
			return writeError(c, apierrors.AIUnavailable("quiz generation failed", err))
		}
		items := make([]quizgen.QuizItem, 0, len(generated))
		for _, g := range generated {
			items = append(items, quizgen.QuizItem{
				Type:     g.Type,
				Question: g.Question,
				Answer:   g.Answer,
			})
		}
		created, err = s.persistQuizzes(c, note, user, items, store.QuizOriginAI)
		if err != nil {
			return writeError(c, err)
		}
	default:
		return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("unknown mode %q, expected rule or ai", request.Mode)))
	}

	payload := make([]*Quiz, 0, len(created))
	for _, quiz := range created {
		payload = append(payload, convertQuizFromStore(quiz, note.UID))
	}
	return c.JSON(http.StatusCreated, payload)
}

func (s *APIV1Service) persistQuizzes(c echo.Context, note *store.Note, user *store.User, items []quizgen.QuizItem, origin store.QuizOrigin) ([]*store.Quiz, error) {
	ctx := c.Request().Context()

	created := make([]*store.Quiz, 0, len(items))
	for _, item := range items {
		var sourceLine *int32
		if item.SourceLine != nil {
			line := int32(*item.SourceLine)
			sourceLine = &line
		}
		quiz, err := s.Store.CreateQuiz(ctx, &store.Quiz{
			UID:        shortuuid.New(),
			CreatorID:  user.ID,
			NoteID:     note.ID,
			Type:       item.Type,
			Question:   item.Question,
			Answer:     item.Answer,
			SourceLine: sourceLine,
			Origin:     origin,
		})
		if err != nil {
			return nil, apierrors.Internal("failed to save quiz", err)
		}
		created = append(created, quiz)
	}
	return created, nil
}

// ListNoteQuizzes lists the caller's quizzes for a note in generation order.
func (s *APIV1Service) ListNoteQuizzes(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	note, err := s.findNoteByUID(c)
	if err != nil {
		return writeError(c, err)
	}

	limit, offset := parsePagination(c, 100, 500)
	find := &store.FindQuiz{
		NoteID:    &note.ID,
		CreatorID: &user.ID,
		Limit:     &limit,
		Offset:    &offset,
	}
	if origin := c.QueryParam("origin"); origin != "" {
		parsed, err := parseQuizOrigin(origin)
		if err != nil {
			return writeError(c, err)
		}
		find.Origin = &parsed
	}

	quizzes, err := s.Store.ListQuizzes(ctx, find)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to list quizzes", err))
	}
	payload := make([]*Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		payload = append(payload, convertQuizFromStore(quiz, note.UID))
	}
	return c.JSON(http.StatusOK, payload)
}

// DeleteQuiz removes a quiz. Only its creator can delete it.
func (s *APIV1Service) DeleteQuiz(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	quiz, err := s.findQuizByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if quiz.CreatorID != user.ID {
		return writeError(c, apierrors.Forbidden("only the creator can delete a quiz"))
	}

	if err := s.Store.DeleteQuiz(ctx, &store.DeleteQuiz{ID: quiz.ID}); err != nil {
		return writeError(c, apierrors.Internal("failed to delete quiz", err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type ReviewQuizRequest struct {
	Correct bool `json:"correct"`
}

// ReviewQuiz records one answer attempt against a quiz and returns the
// updated counters.
func (s *APIV1Service) ReviewQuiz(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	quiz, err := s.findQuizByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if quiz.CreatorID != user.ID {
		return writeError(c, apierrors.Forbidden("only the creator can review a quiz"))
	}

	request := &ReviewQuizRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}

	now := time.Now().Unix()
	reviewCount := quiz.ReviewCount + 1
	correctCount := quiz.CorrectCount
	if request.Correct {
		correctCount++
	}
	updated, err := s.Store.UpdateQuiz(ctx, &store.UpdateQuiz{
		ID:             quiz.ID,
		UpdatedTs:      &now,
		ReviewCount:    &reviewCount,
		CorrectCount:   &correctCount,
		LastReviewedTs: &now,
	})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to update quiz", err))
	}

	noteUID := ""
	if note, err := s.Store.GetNote(ctx, &store.FindNote{ID: &updated.NoteID}); err == nil && note != nil {
		noteUID = note.UID
	}
	return c.JSON(http.StatusOK, convertQuizFromStore(updated, noteUID))
}

func (s *APIV1Service) findQuizByUID(c echo.Context) (*store.Quiz, error) {
	uid := c.Param("uid")
	quiz, err := s.Store.GetQuiz(c.Request().Context(), &store.FindQuiz{UID: &uid})
	if err != nil {
		return nil, apierrors.Internal("failed to find quiz", err)
	}
	if quiz == nil {
		return nil, apierrors.NotFoundf("quiz %q not found", uid)
	}
	return quiz, nil
}

func parseQuizOrigin(origin string) (store.QuizOrigin, error) {
	switch store.QuizOrigin(origin) {
	case store.QuizOriginRule, store.QuizOriginAI:
		return store.QuizOrigin(origin), nil
	default:
		return "", apierrors.InvalidArgument(fmt.Sprintf("unknown origin %q, expected RULE or AI", origin))
	}
}
