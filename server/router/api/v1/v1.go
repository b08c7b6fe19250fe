package v1

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/ayakoji/noteshare/internal/profile"
	"github.com/ayakoji/noteshare/plugin/ai"
	"github.com/ayakoji/noteshare/server/auth"
	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/server/internal/observability"
	"github.com/ayakoji/noteshare/server/middleware"
	"github.com/ayakoji/noteshare/store"
)

// userContextKey carries the signed-in user through the echo context.
const userContextKey = "noteshare/user"

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store
	Metrics *observability.Metrics

	// AIProvider is nil when AI features are disabled.
	AIProvider *ai.Provider

	authLimiter     *middleware.RateLimiter
	generateLimiter *middleware.RateLimiter

	// avatarSemaphore limits concurrent avatar resizes to prevent memory exhaustion.
	avatarSemaphore *semaphore.Weighted
	// aiSemaphore limits in-flight model calls.
	aiSemaphore *semaphore.Weighted
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, metrics *observability.Metrics) *APIV1Service {
	service := &APIV1Service{
		Secret:          secret,
		Profile:         profile,
		Store:           store,
		Metrics:         metrics,
		authLimiter:     middleware.NewRateLimiter(time.Second, 5),
		generateLimiter: middleware.NewRateLimiter(2*time.Second, 3),
		avatarSemaphore: semaphore.NewWeighted(3), // Limit to 3 concurrent avatar resizes
		aiSemaphore:     semaphore.NewWeighted(4),
	}

	// Quiz generation only needs the chat API, so the provider is not tied
	// to the database driver. Vector search still requires postgres and is
	// checked where embeddings are read back.
	if profile.IsAIEnabled() {
		provider, err := ai.NewProvider(ai.NewConfigFromProfile(profile))
		if err != nil {
			slog.Warn("AI provider disabled", slog.String("error", err.Error()))
		} else {
			service.AIProvider = provider
		}
	}

	return service
}

// RegisterRoutes registers all REST endpoints under /api/v1.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	api := echoServer.Group("/api/v1", s.authMiddleware)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.SignUp, s.authLimiter.LimitByIP())
	authGroup.POST("/signin", s.SignIn, s.authLimiter.LimitByIP())
	authGroup.POST("/signout", s.SignOut)
	authGroup.GET("/me", s.GetCurrentUser)
	authGroup.GET("/sso/url", s.GetSSOAuthURL)
	authGroup.POST("/sso/callback", s.SSOCallback, s.authLimiter.LimitByIP())

	api.PATCH("/users/me", s.UpdateCurrentUser)
	api.POST("/users/me/avatar", s.UploadAvatar)
	api.GET("/users/me/stats", s.GetCurrentUserStats)

	api.POST("/communities", s.CreateCommunity)
	api.GET("/communities", s.ListCommunities)
	api.GET("/communities/:uid", s.GetCommunity)
	api.PATCH("/communities/:uid", s.UpdateCommunity)
	api.DELETE("/communities/:uid", s.DeleteCommunity)
	api.POST("/communities/:uid/join", s.JoinCommunity)
	api.POST("/communities/:uid/leave", s.LeaveCommunity)
	api.GET("/communities/:uid/members", s.ListCommunityMembers)

	api.POST("/notes", s.CreateNote)
	api.GET("/notes", s.ListNotes)
	api.GET("/notes/:uid", s.GetNote)
	api.PATCH("/notes/:uid", s.UpdateNote)
	api.DELETE("/notes/:uid", s.DeleteNote)
	api.GET("/notes/:uid/related", s.ListRelatedNotes)
	api.GET("/webmeta", s.GetWebMeta)

	api.POST("/notes/:uid/quizzes/generate", s.GenerateQuizzes, s.generateLimiter.LimitByIP())
	api.GET("/notes/:uid/quizzes", s.ListNoteQuizzes)
	api.DELETE("/quizzes/:uid", s.DeleteQuiz)
	api.POST("/quizzes/:uid/review", s.ReviewQuiz)

	api.GET("/metrics", s.GetMetrics)
}

// authMiddleware resolves the access token into a user when one is present.
// Requests without credentials pass through unauthenticated; handlers decide
// what anonymous callers may see.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := findAccessToken(c)
		if token == "" {
			return next(c)
		}

		claims, err := auth.ParseAccessToken(token, []byte(s.Secret))
		if err != nil {
			return writeError(c, apierrors.Unauthorized("invalid access token"))
		}
		userID, err := auth.UserIDFromClaims(claims)
		if err != nil {
			return writeError(c, apierrors.Unauthorized("invalid access token"))
		}

		user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
		if err != nil {
			return writeError(c, apierrors.Internal("failed to load user", err))
		}
		if user == nil {
			return writeError(c, apierrors.Unauthorized("user not found"))
		}
		if user.RowStatus == store.Archived {
			return writeError(c, apierrors.Forbidden("user is archived"))
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// findAccessToken checks the session cookie first, then the Authorization
// header for Bearer clients.
func findAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// userFrom returns the signed-in user or nil.
func userFrom(c echo.Context) *store.User {
	user, _ := c.Get(userContextKey).(*store.User)
	return user
}

// requireUser returns the signed-in user or an unauthorized error.
func requireUser(c echo.Context) (*store.User, error) {
	user := userFrom(c)
	if user == nil {
		return nil, apierrors.Unauthorized("sign in required")
	}
	return user, nil
}

// writeError renders an error as the JSON error envelope. Unclassified
// errors become internal errors and are logged with their cause.
func writeError(c echo.Context, err error) error {
	apiErr, ok := err.(*apierrors.APIError)
	if !ok {
		apiErr = apierrors.Internal("unexpected error", err)
	}
	if apiErr.Code == apierrors.CodeInternal {
		slog.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.String("error", apiErr.Error()))
	}
	return c.JSON(apiErr.HTTPStatus(), map[string]string{
		"code":    string(apiErr.Code),
		"message": apiErr.Message,
	})
}

// parsePagination reads limit and offset query parameters with bounds.
func parsePagination(c echo.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if n, ok := parseUint(c.QueryParam("limit")); ok && n > 0 {
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if n, ok := parseUint(c.QueryParam("offset")); ok {
		offset = n
	}
	return limit, offset
}

func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
