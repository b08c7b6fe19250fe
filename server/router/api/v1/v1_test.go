package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ayakoji/noteshare/server/auth"
	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/store"
)

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit values", "limit=5&offset=40", 5, 40},
		{"limit capped at max", "limit=500", 50, 0},
		{"zero limit falls back to default", "limit=0", 20, 0},
		{"negative values ignored", "limit=-3&offset=-7", 20, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t, "/api/v1/notes?"+tt.query)
			limit, offset := parsePagination(c, 20, 50)
			require.Equal(t, tt.wantLimit, limit)
			require.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestFindAccessToken(t *testing.T) {
	t.Run("cookie", func(t *testing.T) {
		c, _ := newTestContext(t, "/")
		c.Request().AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie-token"})
		require.Equal(t, "cookie-token", findAccessToken(c))
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		c, _ := newTestContext(t, "/")
		c.Request().AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie-token"})
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer header-token")
		require.Equal(t, "cookie-token", findAccessToken(c))
	})

	t.Run("bearer header", func(t *testing.T) {
		c, _ := newTestContext(t, "/")
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer header-token")
		require.Equal(t, "header-token", findAccessToken(c))
	})

	t.Run("non-bearer header ignored", func(t *testing.T) {
		c, _ := newTestContext(t, "/")
		c.Request().Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		require.Empty(t, findAccessToken(c))
	})

	t.Run("no credentials", func(t *testing.T) {
		c, _ := newTestContext(t, "/")
		require.Empty(t, findAccessToken(c))
	})
}

func TestWriteError(t *testing.T) {
	t.Run("api error keeps its code and status", func(t *testing.T) {
		c, rec := newTestContext(t, "/")
		err := writeError(c, apierrors.NotFoundf("note %q not found", "abc"))
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "NOT_FOUND", body["code"])
		require.Equal(t, `note "abc" not found`, body["message"])
	})

	t.Run("unclassified error becomes internal", func(t *testing.T) {
		c, rec := newTestContext(t, "/")
		err := writeError(c, errors.New("boom"))
		require.NoError(t, err)
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "INTERNAL", body["code"])
	})

	t.Run("internal cause stays out of the response", func(t *testing.T) {
		c, rec := newTestContext(t, "/")
		require.NoError(t, writeError(c, apierrors.Internal("failed to list notes", errors.New("pq: connection refused"))))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "failed to list notes", body["message"])
		require.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		input   string
		want    store.Visibility
		wantErr bool
	}{
		{"PUBLIC", store.VisibilityPublic, false},
		{"private", store.VisibilityPrivate, false},
		{"Community", store.VisibilityCommunity, false},
		{"friends", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseVisibility(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, apierrors.IsCode(err, apierrors.CodeInvalidArgument))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateNoteContent(t *testing.T) {
	require.NoError(t, validateNoteContent("運動量は保存される。"))
	require.Error(t, validateNoteContent(""))
	require.Error(t, validateNoteContent("   \n\t"))
	require.Error(t, validateNoteContent(strings.Repeat("a", maxNoteContentBytes+1)))
	require.NoError(t, validateNoteContent(strings.Repeat("a", maxNoteContentBytes)))
}

func TestParseQuizOrigin(t *testing.T) {
	origin, err := parseQuizOrigin("RULE")
	require.NoError(t, err)
	require.Equal(t, store.QuizOriginRule, origin)

	origin, err = parseQuizOrigin("AI")
	require.NoError(t, err)
	require.Equal(t, store.QuizOriginAI, origin)

	_, err = parseQuizOrigin("rule")
	require.Error(t, err)
	_, err = parseQuizOrigin("")
	require.Error(t, err)
}

func TestConvertQuizFromStore(t *testing.T) {
	line := int32(4)
	reviewed := int64(1755000000)
	quiz := &store.Quiz{
		ID:             7,
		UID:            "quiz-uid",
		NoteID:         3,
		Type:           "definition",
		Question:       "「慣性」とは何か？",
		Answer:         "物体が運動状態を保とうとする性質",
		SourceLine:     &line,
		Origin:         store.QuizOriginRule,
		ReviewCount:    6,
		CorrectCount:   4,
		LastReviewedTs: &reviewed,
		CreatedTs:      1754000000,
	}

	converted := convertQuizFromStore(quiz, "note-uid")
	require.Equal(t, "quiz-uid", converted.UID)
	require.Equal(t, "note-uid", converted.NoteUID)
	require.Equal(t, "definition", converted.Type)
	require.Equal(t, "RULE", converted.Origin)
	require.Equal(t, &line, converted.SourceLine)
	require.Equal(t, int32(6), converted.ReviewCount)
	require.Equal(t, int32(4), converted.CorrectCount)
	require.Equal(t, &reviewed, converted.LastReviewedTs)
	require.Equal(t, int64(1754000000), converted.CreatedTs)
}

func TestFirstStringField(t *testing.T) {
	info := map[string]any{
		"email": "ayako@example.com",
		"name":  "",
		"sub":   12345,
	}
	require.Equal(t, "ayako@example.com", firstStringField(info, "preferred_username", "email"))
	require.Empty(t, firstStringField(info, "name"))
	require.Empty(t, firstStringField(info, "sub"))
	require.Empty(t, firstStringField(info, "missing"))
}
