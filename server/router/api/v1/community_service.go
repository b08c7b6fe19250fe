package v1

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/store"
)

const (
	maxCommunityNameRunes        = 64
	maxCommunityDescriptionRunes = 512
)

// Community is the API representation of a community.
type Community struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedTs   int64  `json:"createdTs"`

	// MemberCount and Role are filled on single-community reads.
	MemberCount int    `json:"memberCount,omitempty"`
	Role        string `json:"role,omitempty"`
}

func convertCommunityFromStore(community *store.Community) *Community {
	return &Community{
		UID:         community.UID,
		Name:        community.Name,
		Description: community.Description,
		CreatedTs:   community.CreatedTs,
	}
}

type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateCommunityRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CommunityMember pairs a member with their role inside the community.
type CommunityMember struct {
	User     *User  `json:"user"`
	Role     string `json:"role"`
	JoinedTs int64  `json:"joinedTs"`
}

// CreateCommunity creates a community owned by the caller.
func (s *APIV1Service) CreateCommunity(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	request := &CreateCommunityRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}
	if err := validateCommunityName(request.Name); err != nil {
		return writeError(c, err)
	}
	if err := validateCommunityDescription(request.Description); err != nil {
		return writeError(c, err)
	}

	community, err := s.Store.CreateCommunity(ctx, &store.Community{
		UID:         shortuuid.New(),
		CreatorID:   user.ID,
		Name:        strings.TrimSpace(request.Name),
		Description: strings.TrimSpace(request.Description),
	})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to create community", err))
	}
	if _, err := s.Store.UpsertCommunityMember(ctx, &store.CommunityMember{
		CommunityID: community.ID,
		UserID:      user.ID,
		Role:        store.CommunityRoleOwner,
	}); err != nil {
		return writeError(c, apierrors.Internal("failed to add owner membership", err))
	}

	payload := convertCommunityFromStore(community)
	payload.MemberCount = 1
	payload.Role = string(store.CommunityRoleOwner)
	return c.JSON(http.StatusCreated, payload)
}

// ListCommunities lists the community directory. With filter=mine only the
// caller's communities are returned; q matches against names.
func (s *APIV1Service) ListCommunities(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := parsePagination(c, 50, 200)
	normal := store.Normal
	find := &store.FindCommunity{
		RowStatus: &normal,
		Limit:     &limit,
		Offset:    &offset,
	}
	if c.QueryParam("filter") == "mine" {
		user, err := requireUser(c)
		if err != nil {
			return writeError(c, err)
		}
		find.MemberID = &user.ID
	}
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		find.NameSearch = &q
	}

	communities, err := s.Store.ListCommunities(ctx, find)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to list communities", err))
	}
	payload := make([]*Community, 0, len(communities))
	for _, community := range communities {
		payload = append(payload, convertCommunityFromStore(community))
	}
	return c.JSON(http.StatusOK, payload)
}

// GetCommunity returns a community with its member count and the caller's
// role when signed in.
func (s *APIV1Service) GetCommunity(c echo.Context) error {
	ctx := c.Request().Context()

	community, err := s.findCommunityByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	members, err := s.Store.ListCommunityMembers(ctx, &store.FindCommunityMember{CommunityID: &community.ID})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to list members", err))
	}

	payload := convertCommunityFromStore(community)
	payload.MemberCount = len(members)
	if user := userFrom(c); user != nil {
		for _, member := range members {
			if member.UserID == user.ID {
				payload.Role = string(member.Role)
				break
			}
		}
	}
	return c.JSON(http.StatusOK, payload)
}

// UpdateCommunity lets the owner rename the community or edit its
// description.
func (s *APIV1Service) UpdateCommunity(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	community, err := s.findCommunityByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.requireCommunityOwner(ctx, community, user); err != nil {
		return writeError(c, err)
	}

	request := &UpdateCommunityRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}
	now := time.Now().Unix()
	update := &store.UpdateCommunity{ID: community.ID, UpdatedTs: &now}
	if request.Name != nil {
		if err := validateCommunityName(*request.Name); err != nil {
			return writeError(c, err)
		}
		name := strings.TrimSpace(*request.Name)
		update.Name = &name
	}
	if request.Description != nil {
		if err := validateCommunityDescription(*request.Description); err != nil {
			return writeError(c, err)
		}
		description := strings.TrimSpace(*request.Description)
		update.Description = &description
	}
	if update.Name == nil && update.Description == nil {
		return writeError(c, apierrors.InvalidArgument("nothing to update"))
	}

	updated, err := s.Store.UpdateCommunity(ctx, update)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to update community", err))
	}
	return c.JSON(http.StatusOK, convertCommunityFromStore(updated))
}

// DeleteCommunity removes a community, its memberships, and detaches its
// notes. Only the owner or the host may do this.
func (s *APIV1Service) DeleteCommunity(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	community, err := s.findCommunityByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if user.Role != store.RoleHost {
		if err := s.requireCommunityOwner(ctx, community, user); err != nil {
			return writeError(c, err)
		}
	}

	if err := s.Store.DeleteCommunity(ctx, &store.DeleteCommunity{ID: community.ID}); err != nil {
		return writeError(c, apierrors.Internal("failed to delete community", err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// JoinCommunity adds the caller as a member.
func (s *APIV1Service) JoinCommunity(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	community, err := s.findCommunityByUID(c)
	if err != nil {
		return writeError(c, err)
	}

	existing, err := s.Store.GetCommunityMember(ctx, &store.FindCommunityMember{
		CommunityID: &community.ID,
		UserID:      &user.ID,
	})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to check membership", err))
	}
	if existing != nil {
		// Joining twice keeps the current role.
		payload := convertCommunityFromStore(community)
		payload.Role = string(existing.Role)
		return c.JSON(http.StatusOK, payload)
	}

	if _, err := s.Store.UpsertCommunityMember(ctx, &store.CommunityMember{
		CommunityID: community.ID,
		UserID:      user.ID,
		Role:        store.CommunityRoleMember,
	}); err != nil {
		return writeError(c, apierrors.Internal("failed to join community", err))
	}

	payload := convertCommunityFromStore(community)
	payload.Role = string(store.CommunityRoleMember)
	return c.JSON(http.StatusOK, payload)
}

// LeaveCommunity removes the caller's membership. The owner cannot leave;
// they must delete the community instead.
func (s *APIV1Service) LeaveCommunity(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	community, err := s.findCommunityByUID(c)
	if err != nil {
		return writeError(c, err)
	}

	member, err := s.Store.GetCommunityMember(ctx, &store.FindCommunityMember{
		CommunityID: &community.ID,
		UserID:      &user.ID,
	})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to check membership", err))
	}
	if member == nil {
		return writeError(c, apierrors.InvalidArgument("you are not a member of this community"))
	}
	if member.Role == store.CommunityRoleOwner {
		return writeError(c, apierrors.Forbidden("the owner cannot leave the community"))
	}

	if err := s.Store.DeleteCommunityMember(ctx, &store.DeleteCommunityMember{
		CommunityID: community.ID,
		UserID:      user.ID,
	}); err != nil {
		return writeError(c, apierrors.Internal("failed to leave community", err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// ListCommunityMembers returns the member roster. Only members can see it.
func (s *APIV1Service) ListCommunityMembers(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	community, err := s.findCommunityByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if _, err := s.requireCommunityMember(ctx, community, user); err != nil {
		return writeError(c, err)
	}

	members, err := s.Store.ListCommunityMembers(ctx, &store.FindCommunityMember{CommunityID: &community.ID})
	if err != nil {
		return writeError(c, apierrors.Internal("failed to list members", err))
	}

	payload := make([]*CommunityMember, 0, len(members))
	for _, member := range members {
		memberUser, err := s.Store.GetUser(ctx, &store.FindUser{ID: &member.UserID})
		if err != nil {
			return writeError(c, apierrors.Internal("failed to load member", err))
		}
		if memberUser == nil {
			continue
		}
		payload = append(payload, &CommunityMember{
			User:     convertUserFromStore(memberUser),
			Role:     string(member.Role),
			JoinedTs: member.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *APIV1Service) findCommunityByUID(c echo.Context) (*store.Community, error) {
	uid := c.Param("uid")
	community, err := s.Store.GetCommunity(c.Request().Context(), &store.FindCommunity{UID: &uid})
	if err != nil {
		return nil, apierrors.Internal("failed to find community", err)
	}
	if community == nil || community.RowStatus == store.Archived {
		return nil, apierrors.NotFoundf("community %q not found", uid)
	}
	return community, nil
}

func (s *APIV1Service) requireCommunityMember(ctx context.Context, community *store.Community, user *store.User) (*store.CommunityMember, error) {
	member, err := s.Store.GetCommunityMember(ctx, &store.FindCommunityMember{
		CommunityID: &community.ID,
		UserID:      &user.ID,
	})
	if err != nil {
		return nil, apierrors.Internal("failed to check membership", err)
	}
	if member == nil {
		return nil, apierrors.Forbidden("community members only")
	}
	return member, nil
}

func (s *APIV1Service) requireCommunityOwner(ctx context.Context, community *store.Community, user *store.User) error {
	member, err := s.requireCommunityMember(ctx, community, user)
	if err != nil {
		return err
	}
	if member.Role != store.CommunityRoleOwner {
		return apierrors.Forbidden("only the community owner can do this")
	}
	return nil
}

func validateCommunityName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCommunityNameRunes {
		return apierrors.InvalidArgument(fmt.Sprintf("community name must be 1 to %d characters", maxCommunityNameRunes))
	}
	return nil
}

func validateCommunityDescription(description string) error {
	if utf8.RuneCountInString(description) > maxCommunityDescriptionRunes {
		return apierrors.InvalidArgument(fmt.Sprintf("description must be at most %d characters", maxCommunityDescriptionRunes))
	}
	return nil
}
