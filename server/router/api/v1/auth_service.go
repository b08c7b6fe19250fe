package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/ayakoji/noteshare/internal/base"
	"github.com/ayakoji/noteshare/server/auth"
	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/store"
)

const (
	minPasswordLength = 8
	maxNicknameRunes  = 64
)

type SignUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse carries the signed-in user and a bearer token for clients
// that cannot use the session cookie.
type SignInResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// SignUp registers a new user. The first registered user becomes the host.
func (s *APIV1Service) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	request := &SignUpRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}
	request.Username = strings.TrimSpace(request.Username)
	if !base.UIDMatcher.MatchString(strings.ToLower(request.Username)) {
		return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("invalid username %q", request.Username)))
	}
	if len(request.Password) < minPasswordLength {
		return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("password must be at least %d characters", minPasswordLength)))
	}
	if existing, err := s.Store.GetUser(ctx, &store.FindUser{Username: &request.Username}); err != nil {
		return writeError(c, apierrors.Internal("failed to check username", err))
	} else if existing != nil {
		return writeError(c, apierrors.InvalidArgument("username is already taken"))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to hash password", err))
	}

	create := &store.User{
		UID:          shortuuid.New(),
		Username:     request.Username,
		Nickname:     strings.TrimSpace(request.Nickname),
		PasswordHash: string(passwordHash),
		Role:         store.RoleUser,
	}
	if create.Nickname == "" {
		create.Nickname = request.Username
	}

	// The first registered user administers the instance.
	hostRole := store.RoleHost
	hosts, err := s.Store.ListUsers(ctx, &store.FindUser{Role: &hostRole})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to look up host user", err))
	}
	if len(hosts) == 0 {
		create.Role = store.RoleHost
	}

	user, err := s.Store.CreateUser(ctx, create)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to create user", err))
	}
	if user.Role == store.RoleHost {
		if _, err := s.Store.UpsertSystemSetting(ctx, &store.SystemSetting{
			Name:  store.SettingHostRegistered,
			Value: "true",
		}); err != nil {
			return writeError(c, apierrors.Internal("failed to record host registration", err))
		}
	}

	token, err := s.doSignIn(c, user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, &SignInResponse{
		User:  convertUserFromStore(user),
		Token: token,
	})
}

// SignIn verifies the password and opens a session.
func (s *APIV1Service) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	request := &SignInRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &request.Username})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to find user", err))
	}
	if user == nil {
		return writeError(c, apierrors.Unauthorized("incorrect username or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		return writeError(c, apierrors.Unauthorized("incorrect username or password"))
	}
	if user.RowStatus == store.Archived {
		return writeError(c, apierrors.Forbidden("user is archived"))
	}

	token, err := s.doSignIn(c, user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, &SignInResponse{
		User:  convertUserFromStore(user),
		Token: token,
	})
}

// SignOut expires the session cookie.
func (*APIV1Service) SignOut(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// GetCurrentUser returns the signed-in user.
func (s *APIV1Service) GetCurrentUser(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, convertUserFromStore(user))
}

// doSignIn issues an access token and sets it as an HTTP-only cookie.
func (s *APIV1Service) doSignIn(c echo.Context, user *store.User) (string, error) {
	expireTime := time.Now().Add(auth.AccessTokenDuration)
	token, err := auth.GenerateAccessToken(user.Username, user.ID, expireTime, []byte(s.Secret))
	if err != nil {
		return "", apierrors.Internal("failed to generate access token", err)
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expireTime,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// SSOAuthURLResponse is returned by GetSSOAuthURL.
type SSOAuthURLResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type SSOCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

// GetSSOAuthURL builds the authorization URL of the configured OAuth2
// provider. The caller supplies its redirect URI and state.
func (s *APIV1Service) GetSSOAuthURL(c echo.Context) error {
	if !s.Profile.IsSSOEnabled() {
		return writeError(c, apierrors.NotFound("single sign-on is not configured"))
	}
	redirectURI := c.QueryParam("redirectUri")
	if redirectURI == "" {
		return writeError(c, apierrors.InvalidArgument("redirectUri is required"))
	}
	state := c.QueryParam("state")
	if state == "" {
		state = shortuuid.New()
	}

	config := s.ssoConfig(redirectURI)
	return c.JSON(http.StatusOK, &SSOAuthURLResponse{
		Name: s.Profile.SSOName,
		URL:  config.AuthCodeURL(state),
	})
}

// SSOCallback exchanges the authorization code, fetches the provider's
// userinfo document and signs the matching user in, creating the account on
// first sight.
func (s *APIV1Service) SSOCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if !s.Profile.IsSSOEnabled() {
		return writeError(c, apierrors.NotFound("single sign-on is not configured"))
	}
	request := &SSOCallbackRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}
	if request.Code == "" || request.RedirectURI == "" {
		return writeError(c, apierrors.InvalidArgument("code and redirectUri are required"))
	}

	config := s.ssoConfig(request.RedirectURI)
	oauthToken, err := config.Exchange(ctx, request.Code)
	if err != nil {
		return writeError(c, apierrors.Unauthorized("failed to exchange authorization code"))
	}

	userInfo, err := fetchSSOUserInfo(ctx, config, oauthToken, s.Profile.SSOUserInfoURL)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to fetch user info", err))
	}
	username := firstStringField(userInfo, "preferred_username", "username", "email", "sub")
	if username == "" {
		return writeError(c, apierrors.Internal("user info carries no usable identifier", nil))
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to find user", err))
	}
	if user == nil {
		// Identity-provider accounts get an unguessable password so the
		// password form cannot be used for them.
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(shortuuid.New()), bcrypt.DefaultCost)
		if err != nil {
			return writeError(c, apierrors.Internal("failed to hash password", err))
		}
		nickname := firstStringField(userInfo, "name", "nickname")
		if nickname == "" {
			nickname = username
		}
		user, err = s.Store.CreateUser(ctx, &store.User{
			UID:          shortuuid.New(),
			Username:     username,
			Nickname:     nickname,
			PasswordHash: string(passwordHash),
			Role:         store.RoleUser,
		})
		if err != nil {
			return writeError(c, apierrors.Internal("failed to create user", err))
		}
	}
	if user.RowStatus == store.Archived {
		return writeError(c, apierrors.Forbidden("user is archived"))
	}

	token, err := s.doSignIn(c, user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, &SignInResponse{
		User:  convertUserFromStore(user),
		Token: token,
	})
}

func (s *APIV1Service) ssoConfig(redirectURI string) *oauth2.Config {
	var scopes []string
	for _, scope := range strings.Split(s.Profile.SSOScopes, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return &oauth2.Config{
		ClientID:     s.Profile.SSOClientID,
		ClientSecret: s.Profile.SSOClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.Profile.SSOAuthURL,
			TokenURL: s.Profile.SSOTokenURL,
		},
	}
}

func fetchSSOUserInfo(ctx context.Context, config *oauth2.Config, token *oauth2.Token, userInfoURL string) (map[string]any, error) {
	client := config.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	userInfo := map[string]any{}
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return userInfo, nil
}

// firstStringField returns the first non-empty string value among the keys.
func firstStringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
