package v1

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/server/stats"
	"github.com/ayakoji/noteshare/store"
)

const (
	// avatarSize is the square edge length avatars are resized to.
	avatarSize = 256
	// maxAvatarBytes caps the accepted upload size.
	maxAvatarBytes = 2 << 20
)

// User is the API representation of a user account.
type User struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	CreatedTs int64  `json:"createdTs"`
}

func convertUserFromStore(user *store.User) *User {
	return &User{
		UID:       user.UID,
		Username:  user.Username,
		Nickname:  user.Nickname,
		Role:      string(user.Role),
		AvatarURL: user.AvatarURL,
		CreatedTs: user.CreatedTs,
	}
}

type UpdateUserRequest struct {
	Nickname    *string `json:"nickname"`
	Password    *string `json:"password"`
	OldPassword *string `json:"oldPassword"`
}

// UpdateCurrentUser changes the nickname or password of the signed-in user.
// A password change requires the current password.
func (s *APIV1Service) UpdateCurrentUser(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	request := &UpdateUserRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}

	now := time.Now().Unix()
	update := &store.UpdateUser{ID: user.ID, UpdatedTs: &now}
	if request.Nickname != nil {
		nickname := *request.Nickname
		if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameRunes {
			return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("nickname must be 1 to %d characters", maxNicknameRunes)))
		}
		update.Nickname = &nickname
	}
	if request.Password != nil {
		if len(*request.Password) < minPasswordLength {
			return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("password must be at least %d characters", minPasswordLength)))
		}
		if request.OldPassword == nil {
			return writeError(c, apierrors.InvalidArgument("oldPassword is required to change the password"))
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*request.OldPassword)); err != nil {
			return writeError(c, apierrors.Unauthorized("incorrect current password"))
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(*request.Password), bcrypt.DefaultCost)
		if err != nil {
			return writeError(c, apierrors.Internal("failed to hash password", err))
		}
		hash := string(passwordHash)
		update.PasswordHash = &hash
	}
	if update.Nickname == nil && update.PasswordHash == nil {
		return writeError(c, apierrors.InvalidArgument("nothing to update"))
	}

	updated, err := s.Store.UpdateUser(ctx, update)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to update user", err))
	}
	return c.JSON(http.StatusOK, convertUserFromStore(updated))
}

// UploadAvatar accepts a multipart image, resizes it to a square and stores
// it inline as a data URI.
func (s *APIV1Service) UploadAvatar(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, apierrors.InvalidArgument("a file form field is required"))
	}
	if fileHeader.Size > maxAvatarBytes {
		return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("avatar must be at most %d bytes", maxAvatarBytes)))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, apierrors.Internal("failed to open upload", err))
	}
	defer file.Close()

	// Decoding and resizing hold whole bitmaps in memory, so bound how many
	// run at once.
	if err := s.avatarSemaphore.Acquire(ctx, 1); err != nil {
		return writeError(c, apierrors.Internal("request cancelled", err))
	}
	defer s.avatarSemaphore.Release(1)

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return writeError(c, apierrors.InvalidArgument("unsupported image format"))
	}
	resized := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return writeError(c, apierrors.Internal("failed to encode avatar", err))
	}
	avatarURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	now := time.Now().Unix()
	updated, err := s.Store.UpdateUser(ctx, &store.UpdateUser{
		ID:        user.ID,
		UpdatedTs: &now,
		AvatarURL: &avatarURL,
	})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to update user", err))
	}
	return c.JSON(http.StatusOK, convertUserFromStore(updated))
}

// GetCurrentUserStats returns the caller's study activity summary.
func (s *APIV1Service) GetCurrentUserStats(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	summary, err := stats.Collect(ctx, s.Store, user.ID)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to collect stats", err))
	}
	return c.JSON(http.StatusOK, summary)
}
