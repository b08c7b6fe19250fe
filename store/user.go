package store

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/internal/base"
)

// Role is the role of a user.
type Role string

const (
	// RoleHost is the first registered user, the instance administrator.
	RoleHost Role = "HOST"
	// RoleUser is a regular user.
	RoleUser Role = "USER"
)

type User struct {
	// ID is the system generated unique identifier for the user.
	ID int32
	// UID is the user facing unique identifier for the user.
	UID string

	// Standard fields
	CreatedTs int64
	UpdatedTs int64
	RowStatus RowStatus

	// Domain specific fields
	Username     string
	Nickname     string
	PasswordHash string
	Role         Role
	// AvatarURL holds a data URI of the resized avatar image.
	AvatarURL string
}

type FindUser struct {
	ID        *int32
	UID       *string
	Username  *string
	Role      *Role
	RowStatus *RowStatus
	Limit     *int
	Offset    *int
}

type UpdateUser struct {
	ID int32

	UpdatedTs    *int64
	RowStatus    *RowStatus
	Nickname     *string
	PasswordHash *string
	AvatarURL    *string
}

type DeleteUser struct {
	ID int32
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	if !base.UIDMatcher.MatchString(create.UID) {
		return nil, errors.New("invalid uid")
	}
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(ctx, strconv.Itoa(int(user.ID)), user)
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.ID != nil {
		if cached, ok := s.userCache.Get(ctx, strconv.Itoa(int(*find.ID))); ok {
			if user, ok := cached.(*User); ok {
				return user, nil
			}
		}
	}

	list, err := s.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	user := list[0]
	s.userCache.Set(ctx, strconv.Itoa(int(user.ID)), user)
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	user, err := s.driver.UpdateUser(ctx, update)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(ctx, strconv.Itoa(int(user.ID)), user)
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, delete *DeleteUser) error {
	if err := s.driver.DeleteUser(ctx, delete); err != nil {
		return err
	}
	s.userCache.Delete(ctx, strconv.Itoa(int(delete.ID)))
	return nil
}
