package store

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/internal/base"
)

// CommunityRole is the role of a user within a community.
type CommunityRole string

const (
	// CommunityRoleOwner can edit the community and remove members.
	CommunityRoleOwner CommunityRole = "OWNER"
	// CommunityRoleMember can read community notes and post into the community.
	CommunityRoleMember CommunityRole = "MEMBER"
)

type Community struct {
	// ID is the system generated unique identifier for the community.
	ID int32
	// UID is the user facing unique identifier for the community.
	UID string

	// Standard fields
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64
	RowStatus RowStatus

	// Domain specific fields
	Name        string
	Description string
}

type FindCommunity struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus
	// MemberID restricts results to communities the user belongs to.
	MemberID   *int32
	NameSearch *string
	Limit      *int
	Offset     *int
}

type UpdateCommunity struct {
	ID int32

	UpdatedTs   *int64
	RowStatus   *RowStatus
	Name        *string
	Description *string
}

type DeleteCommunity struct {
	ID int32
}

type CommunityMember struct {
	CommunityID int32
	UserID      int32
	Role        CommunityRole
	CreatedTs   int64
}

type FindCommunityMember struct {
	CommunityID *int32
	UserID      *int32
	Role        *CommunityRole
}

type DeleteCommunityMember struct {
	CommunityID int32
	UserID      int32
}

func (s *Store) CreateCommunity(ctx context.Context, create *Community) (*Community, error) {
	if !base.UIDMatcher.MatchString(create.UID) {
		return nil, errors.New("invalid uid")
	}
	community, err := s.driver.CreateCommunity(ctx, create)
	if err != nil {
		return nil, err
	}
	s.communityCache.Set(ctx, strconv.Itoa(int(community.ID)), community)
	return community, nil
}

func (s *Store) ListCommunities(ctx context.Context, find *FindCommunity) ([]*Community, error) {
	return s.driver.ListCommunities(ctx, find)
}

func (s *Store) GetCommunity(ctx context.Context, find *FindCommunity) (*Community, error) {
	if find.ID != nil {
		if cached, ok := s.communityCache.Get(ctx, strconv.Itoa(int(*find.ID))); ok {
			if community, ok := cached.(*Community); ok {
				return community, nil
			}
		}
	}

	list, err := s.ListCommunities(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	community := list[0]
	s.communityCache.Set(ctx, strconv.Itoa(int(community.ID)), community)
	return community, nil
}

func (s *Store) UpdateCommunity(ctx context.Context, update *UpdateCommunity) (*Community, error) {
	community, err := s.driver.UpdateCommunity(ctx, update)
	if err != nil {
		return nil, err
	}
	s.communityCache.Set(ctx, strconv.Itoa(int(community.ID)), community)
	return community, nil
}

func (s *Store) DeleteCommunity(ctx context.Context, delete *DeleteCommunity) error {
	if err := s.driver.DeleteCommunity(ctx, delete); err != nil {
		return err
	}
	s.communityCache.Delete(ctx, strconv.Itoa(int(delete.ID)))
	return nil
}

func (s *Store) UpsertCommunityMember(ctx context.Context, upsert *CommunityMember) (*CommunityMember, error) {
	return s.driver.UpsertCommunityMember(ctx, upsert)
}

func (s *Store) ListCommunityMembers(ctx context.Context, find *FindCommunityMember) ([]*CommunityMember, error) {
	return s.driver.ListCommunityMembers(ctx, find)
}

func (s *Store) GetCommunityMember(ctx context.Context, find *FindCommunityMember) (*CommunityMember, error) {
	list, err := s.ListCommunityMembers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteCommunityMember(ctx context.Context, delete *DeleteCommunityMember) error {
	return s.driver.DeleteCommunityMember(ctx, delete)
}
