package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/ayakoji/noteshare/plugin/webmeta"
	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	notesvc "github.com/ayakoji/noteshare/server/service/note"
	"github.com/ayakoji/noteshare/store"
)

const (
	// maxNoteContentBytes caps note bodies. Large pasted dumps are rejected
	// rather than truncated.
	maxNoteContentBytes = 64 * 1024

	snippetRunes = 160
)

// Note is the API representation of a note. Content is only set on single
// note reads; lists carry the snippet. Highlights mark search matches inside
// the snippet, in rune offsets.
type Note struct {
	UID          string              `json:"uid"`
	CreatorUID   string              `json:"creatorUid"`
	CreatorName  string              `json:"creatorName"`
	Title        string              `json:"title"`
	Snippet      string              `json:"snippet,omitempty"`
	Highlights   []notesvc.Highlight `json:"highlights,omitempty"`
	Content      string              `json:"content,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Visibility   string              `json:"visibility"`
	Pinned       bool                `json:"pinned"`
	CommunityUID string              `json:"communityUid,omitempty"`
	CreatedTs    int64               `json:"createdTs"`
	UpdatedTs    int64               `json:"updatedTs"`
}

// RelatedNote pairs a note with its similarity to the source note.
type RelatedNote struct {
	Note  *Note   `json:"note"`
	Score float64 `json:"score"`
}

type CreateNoteRequest struct {
	Content      string `json:"content"`
	Visibility   string `json:"visibility"`
	CommunityUID string `json:"communityUid"`
	Pinned       bool   `json:"pinned"`
}

type UpdateNoteRequest struct {
	Content      *string `json:"content"`
	Visibility   *string `json:"visibility"`
	CommunityUID *string `json:"communityUid"`
	Pinned       *bool   `json:"pinned"`
}

func (s *APIV1Service) convertNoteFromStore(ctx context.Context, note *store.Note, includeContent bool) (*Note, error) {
	payload := &Note{
		UID:        note.UID,
		Title:      note.Title,
		Visibility: string(note.Visibility),
		Pinned:     note.Pinned,
		CreatedTs:  note.CreatedTs,
		UpdatedTs:  note.UpdatedTs,
	}

	creator, err := s.Store.GetUser(ctx, &store.FindUser{ID: &note.CreatorID})
	if err != nil {
		return nil, fmt.Errorf("failed to load note creator: %w", err)
	}
	if creator != nil {
		payload.CreatorUID = creator.UID
		payload.CreatorName = creator.Nickname
	}
	if note.CommunityID != nil {
		community, err := s.Store.GetCommunity(ctx, &store.FindCommunity{ID: note.CommunityID})
		if err != nil {
			return nil, fmt.Errorf("failed to load note community: %w", err)
		}
		if community != nil {
			payload.CommunityUID = community.UID
		}
	}

	if note.Content != "" {
		payload.Snippet = notesvc.Snippet(note.Content, snippetRunes)
		payload.Tags = notesvc.ExtractTags(note.Content)
	}
	if includeContent {
		payload.Content = note.Content
	}
	return payload, nil
}

// CreateNote creates a note owned by the caller.
func (s *APIV1Service) CreateNote(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	request := &CreateNoteRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}
	if err := validateNoteContent(request.Content); err != nil {
		return writeError(c, err)
	}

	visibility := store.VisibilityPrivate
	if request.Visibility != "" {
		visibility, err = parseVisibility(request.Visibility)
		if err != nil {
			return writeError(c, err)
		}
	}

	create := &store.Note{
		UID:        shortuuid.New(),
		CreatorID:  user.ID,
		Title:      notesvc.DeriveTitle(request.Content),
		Content:    request.Content,
		Visibility: visibility,
		Pinned:     request.Pinned,
	}
	if request.CommunityUID != "" {
		communityID, err := s.resolveCommunityForNote(ctx, request.CommunityUID, user)
		if err != nil {
			return writeError(c, err)
		}
		create.CommunityID = communityID
	}
	if visibility == store.VisibilityCommunity && create.CommunityID == nil {
		return writeError(c, apierrors.InvalidArgument("community visibility requires a communityUid"))
	}

	note, err := s.Store.CreateNote(ctx, create)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to create note", err))
	}
	payload, err := s.convertNoteFromStore(ctx, note, true)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to convert note", err))
	}
	return c.JSON(http.StatusCreated, payload)
}

// ListNotes lists notes visible to the caller. Views:
//
//	view=mine       the caller's own notes, any visibility (default)
//	view=explore    public notes from everyone
//	communityUid=X  notes shared into a community
//
// A filter expression narrows results further, for example
// `"物理" in tags && pinned`.
func (s *APIV1Service) ListNotes(c echo.Context) error {
	ctx := c.Request().Context()
	user := userFrom(c)

	limit, offset := parsePagination(c, 50, 100)
	normal := store.Normal
	find := &store.FindNote{
		RowStatus: &normal,
		Limit:     &limit,
		Offset:    &offset,
	}

	view := c.QueryParam("view")
	if view == "" {
		if user != nil {
			view = "mine"
		} else {
			view = "explore"
		}
	}
	switch {
	case c.QueryParam("communityUid") != "":
		uid := c.QueryParam("communityUid")
		community, err := s.Store.GetCommunity(ctx, &store.FindCommunity{UID: &uid})
		if err != nil {
			return writeError(c, apierrors.Internal("failed to find community", err))
		}
		if community == nil {
			return writeError(c, apierrors.NotFoundf("community %q not found", uid))
		}
		find.CommunityID = &community.ID
		find.VisibilityList = []store.Visibility{store.VisibilityPublic}
		if user != nil {
			member, err := s.Store.GetCommunityMember(ctx, &store.FindCommunityMember{
				CommunityID: &community.ID,
				UserID:      &user.ID,
			})
			if err != nil {
				return writeError(c, apierrors.Internal("failed to check membership", err))
			}
			if member != nil {
				find.VisibilityList = []store.Visibility{store.VisibilityCommunity, store.VisibilityPublic}
			}
		}
	case view == "mine":
		if user == nil {
			return writeError(c, apierrors.Unauthorized("sign in required"))
		}
		find.CreatorID = &user.ID
	case view == "explore":
		find.VisibilityList = []store.Visibility{store.VisibilityPublic}
	default:
		return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("unknown view %q", view)))
	}

	var searchTokens []string
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		find.ContentSearch = strings.Fields(q)
		searchTokens = notesvc.SearchTokens(q)
	}
	if c.QueryParam("pinned") == "true" {
		pinned := true
		find.Pinned = &pinned
	}
	if c.QueryParam("excludeContent") == "true" {
		find.ExcludeContent = true
	}

	// Compile the filter up front so a bad expression fails the request
	// before any rows are read.
	var filter *notesvc.Filter
	if expression := c.QueryParam("filter"); expression != "" {
		compiled, err := notesvc.CompileFilter(expression)
		if err != nil {
			return writeError(c, apierrors.InvalidArgument(err.Error()))
		}
		filter = compiled
	}

	notes, err := s.Store.ListNotes(ctx, find)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to list notes", err))
	}

	payload := make([]*Note, 0, len(notes))
	for _, note := range notes {
		if filter != nil {
			match, err := filter.Match(note, notesvc.ExtractTags(note.Content))
			if err != nil {
				return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("filter evaluation failed: %v", err)))
			}
			if !match {
				continue
			}
		}
		converted, err := s.convertNoteFromStore(ctx, note, false)
		if err != nil {
			return writeError(c, apierrors.Internal("failed to convert note", err))
		}
		// Searches get a snippet centered on the first match instead of
		// the head of the note.
		if len(searchTokens) > 0 && note.Content != "" {
			plain := notesvc.PlainText(note.Content)
			matches := notesvc.FindMatches(plain, searchTokens)
			converted.Snippet, converted.Highlights = notesvc.SearchSnippet(plain, matches, snippetRunes/2)
		}
		payload = append(payload, converted)
	}
	return c.JSON(http.StatusOK, payload)
}

// GetNote returns a single note with its full content.
func (s *APIV1Service) GetNote(c echo.Context) error {
	ctx := c.Request().Context()

	note, err := s.findNoteByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.requireNoteReadable(ctx, note, userFrom(c)); err != nil {
		return writeError(c, err)
	}

	payload, err := s.convertNoteFromStore(ctx, note, true)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to convert note", err))
	}
	return c.JSON(http.StatusOK, payload)
}

// UpdateNote edits a note. Only the creator can edit.
func (s *APIV1Service) UpdateNote(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	note, err := s.findNoteByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if note.CreatorID != user.ID {
		return writeError(c, apierrors.Forbidden("only the creator can edit a note"))
	}

	request := &UpdateNoteRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body"))
	}

	now := time.Now().Unix()
	update := &store.UpdateNote{ID: note.ID, UpdatedTs: &now}
	if request.Content != nil {
		if err := validateNoteContent(*request.Content); err != nil {
			return writeError(c, err)
		}
		update.Content = request.Content
		title := notesvc.DeriveTitle(*request.Content)
		update.Title = &title
	}

	visibility := note.Visibility
	if request.Visibility != nil {
		visibility, err = parseVisibility(*request.Visibility)
		if err != nil {
			return writeError(c, err)
		}
		update.Visibility = &visibility
	}

	communityID := note.CommunityID
	if request.CommunityUID != nil {
		if *request.CommunityUID == "" {
			update.ClearCommunity = true
			communityID = nil
		} else {
			resolved, err := s.resolveCommunityForNote(ctx, *request.CommunityUID, user)
			if err != nil {
				return writeError(c, err)
			}
			update.CommunityID = resolved
			communityID = resolved
		}
	}
	if visibility == store.VisibilityCommunity && communityID == nil {
		return writeError(c, apierrors.InvalidArgument("community visibility requires a communityUid"))
	}
	if request.Pinned != nil {
		update.Pinned = request.Pinned
	}

	if err := s.Store.UpdateNote(ctx, update); err != nil {
		return writeError(c, apierrors.Internal("failed to update note", err))
	}
	updated, err := s.Store.GetNote(ctx, &store.FindNote{ID: &note.ID})
	if err != nil || updated == nil {
		return writeError(c, apierrors.Internal("failed to reload note", err))
	}
	payload, err := s.convertNoteFromStore(ctx, updated, true)
	if err != nil {
		return writeError(c, apierrors.Internal("failed to convert note", err))
	}
	return c.JSON(http.StatusOK, payload)
}

// DeleteNote removes a note together with its quizzes and embedding. Only
// the creator or the host can delete.
func (s *APIV1Service) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	note, err := s.findNoteByUID(c)
	if err != nil {
		return writeError(c, err)
	}
	if note.CreatorID != user.ID && user.Role != store.RoleHost {
		return writeError(c, apierrors.Forbidden("only the creator can delete a note"))
	}

	if err := s.Store.DeleteNote(ctx, &store.DeleteNote{ID: note.ID}); err != nil {
		return writeError(c, apierrors.Internal("failed to delete note", err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// ListRelatedNotes returns notes similar to the given one, nearest first.
// With AI enabled on postgres the vector index is searched; otherwise the
// creator's other notes are ranked by keyword and tag overlap.
func (s *APIV1Service) ListRelatedNotes(c echo.Context) error {
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

	limit, _ := parsePagination(c, 5, 20)

	if s.AIProvider != nil {
		payload, err := s.relatedByVector(ctx, note, user, limit)
		if err == nil {
			return c.JSON(http.StatusOK, payload)
		}
		if !errors.Is(err, store.ErrVectorUnsupported) {
			return writeError(c, err)
		}
		// No vector index on this driver, fall back to keyword overlap.
	}

	payload, err := s.relatedByKeywords(ctx, note, user, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *APIV1Service) relatedByVector(ctx context.Context, note *store.Note, user *store.User, limit int) ([]*RelatedNote, error) {
	vector, err := s.AIProvider.Embedding(ctx, notesvc.EmbeddingText(note))
	if err != nil {
		return nil, apierrors.AIUnavailable("failed to embed note", err)
	}

	memberships, err := s.Store.ListCommunityMembers(ctx, &store.FindCommunityMember{UserID: &user.ID})
	if err != nil {
		return nil, apierrors.Internal("failed to list memberships", err)
	}
	communityIDs := make([]int32, 0, len(memberships))
	for _, member := range memberships {
		communityIDs = append(communityIDs, member.CommunityID)
	}

	results, err := s.Store.SearchNotesByVector(ctx, &store.VectorSearchOptions{
		Vector:        vector,
		Model:         s.AIProvider.EmbeddingModel(),
		Limit:         limit,
		ExcludeNoteID: &note.ID,
		UserID:        user.ID,
		CommunityIDs:  communityIDs,
	})
	if err != nil {
		if errors.Is(err, store.ErrVectorUnsupported) {
			return nil, err
		}
		return nil, apierrors.Internal("failed to search related notes", err)
	}

	payload := make([]*RelatedNote, 0, len(results))
	for _, result := range results {
		converted, err := s.convertNoteFromStore(ctx, result.Note, false)
		if err != nil {
			return nil, apierrors.Internal("failed to convert note", err)
		}
		payload = append(payload, &RelatedNote{Note: converted, Score: result.Score})
	}
	return payload, nil
}

// relatedByKeywords ranks the creator's other notes against the source note.
// Readers other than the creator only get candidates they could open anyway.
func (s *APIV1Service) relatedByKeywords(ctx context.Context, note *store.Note, user *store.User, limit int) ([]*RelatedNote, error) {
	candidateLimit := limit * 10
	if candidateLimit > 100 {
		candidateLimit = 100
	}
	normal := store.Normal
	find := &store.FindNote{
		CreatorID: &note.CreatorID,
		RowStatus: &normal,
		Limit:     &candidateLimit,
	}
	if user.ID != note.CreatorID && user.Role != store.RoleHost {
		find.VisibilityList = []store.Visibility{store.VisibilityPublic}
	}

	candidates, err := s.Store.ListNotes(ctx, find)
	if err != nil {
		return nil, apierrors.Internal("failed to list candidate notes", err)
	}

	scored := notesvc.ScoreRelated(note, candidates, limit)
	payload := make([]*RelatedNote, 0, len(scored))
	for _, item := range scored {
		converted, err := s.convertNoteFromStore(ctx, item.Note, false)
		if err != nil {
			return nil, apierrors.Internal("failed to convert note", err)
		}
		payload = append(payload, &RelatedNote{Note: converted, Score: float64(item.Score)})
	}
	return payload, nil
}

// GetWebMeta unfurls a URL into its page metadata for link previews.
func (s *APIV1Service) GetWebMeta(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := requireUser(c); err != nil {
		return writeError(c, err)
	}
	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return writeError(c, apierrors.InvalidArgument("url is required"))
	}

	meta, err := webmeta.Fetch(ctx, rawURL)
	if err != nil {
		return writeError(c, apierrors.InvalidArgument(fmt.Sprintf("failed to fetch metadata: %v", err)))
	}
	return c.JSON(http.StatusOK, meta)
}

func (s *APIV1Service) findNoteByUID(c echo.Context) (*store.Note, error) {
	uid := c.Param("uid")
	normal := store.Normal
	note, err := s.Store.GetNote(c.Request().Context(), &store.FindNote{UID: &uid, RowStatus: &normal})
	if err != nil {
		return nil, apierrors.Internal("failed to find note", err)
	}
	if note == nil {
		return nil, apierrors.NotFoundf("note %q not found", uid)
	}
	return note, nil
}

// requireNoteReadable enforces the visibility rules: public notes are open,
// private notes are creator-only, community notes need membership.
func (s *APIV1Service) requireNoteReadable(ctx context.Context, note *store.Note, user *store.User) error {
	if note.Visibility == store.VisibilityPublic {
		return nil
	}
	if user == nil {
		return apierrors.Unauthorized("sign in required")
	}
	if note.CreatorID == user.ID || user.Role == store.RoleHost {
		return nil
	}
	if note.Visibility == store.VisibilityCommunity && note.CommunityID != nil {
		member, err := s.Store.GetCommunityMember(ctx, &store.FindCommunityMember{
			CommunityID: note.CommunityID,
			UserID:      &user.ID,
		})
		if err != nil {
			return apierrors.Internal("failed to check membership", err)
		}
		if member != nil {
			return nil
		}
	}
	return apierrors.Forbidden("you cannot read this note")
}

// resolveCommunityForNote validates that the caller can share notes into the
// community and returns its ID.
func (s *APIV1Service) resolveCommunityForNote(ctx context.Context, communityUID string, user *store.User) (*int32, error) {
	community, err := s.Store.GetCommunity(ctx, &store.FindCommunity{UID: &communityUID})
	if err != nil {
		return nil, apierrors.Internal("failed to find community", err)
	}
	if community == nil {
		return nil, apierrors.NotFoundf("community %q not found", communityUID)
	}
	member, err := s.Store.GetCommunityMember(ctx, &store.FindCommunityMember{
		CommunityID: &community.ID,
		UserID:      &user.ID,
	})
	if err != nil {
		return nil, apierrors.Internal("failed to check membership", err)
	}
	if member == nil {
		return nil, apierrors.Forbidden("join the community before sharing notes into it")
	}
	return &community.ID, nil
}

func parseVisibility(v string) (store.Visibility, error) {
	visibility := store.Visibility(strings.ToUpper(v))
	switch visibility {
	case store.VisibilityPrivate, store.VisibilityCommunity, store.VisibilityPublic:
		return visibility, nil
	default:
		return "", apierrors.InvalidArgument(fmt.Sprintf("unknown visibility %q", v))
	}
}

func validateNoteContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apierrors.InvalidArgument("content must not be empty")
	}
	if len(content) > maxNoteContentBytes {
		return apierrors.InvalidArgument(fmt.Sprintf("content must be at most %d bytes", maxNoteContentBytes))
	}
	return nil
}
