package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/internal/base"
)

type Note struct {
	// ID is the system generated unique identifier for the note.
	ID int32
	// UID is the user facing unique identifier for the note.
	UID string

	// Standard fields
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64
	RowStatus RowStatus

	// Domain specific fields
	Title      string
	Content    string
	Visibility Visibility
	Pinned     bool
	// CommunityID is set when the note is shared into a community.
	CommunityID *int32
}

type FindNote struct {
	ID          *int32
	UID         *string
	CreatorID   *int32
	CommunityID *int32
	RowStatus   *RowStatus
	// VisibilityList restricts results to the given visibilities.
	VisibilityList []Visibility
	// ContentSearch keywords are matched with LIKE against title and content.
	ContentSearch []string
	Pinned        *bool
	// ExcludeContent skips loading note bodies for listing endpoints.
	ExcludeContent bool
	Limit          *int
	Offset         *int
}

type UpdateNote struct {
	ID int32

	UpdatedTs   *int64
	RowStatus   *RowStatus
	Title       *string
	Content     *string
	Visibility  *Visibility
	Pinned      *bool
	CommunityID *int32
	// ClearCommunity moves the note back out of its community.
	ClearCommunity bool
}

type DeleteNote struct {
	ID int32
}

func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if !base.UIDMatcher.MatchString(create.UID) {
		return nil, errors.New("invalid uid")
	}
	if create.Visibility == "" {
		create.Visibility = VisibilityPrivate
	}
	return s.driver.CreateNote(ctx, create)
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	// Default to a reasonable page size to avoid loading whole tables.
	if find.Limit == nil {
		defaultLimit := 100
		find.Limit = &defaultLimit
	}
	return s.driver.ListNotes(ctx, find)
}

func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	notes, err := s.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes[0], nil
}

func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	return s.driver.UpdateNote(ctx, update)
}

func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	note, err := s.GetNote(ctx, &FindNote{ID: &delete.ID})
	if err != nil {
		return errors.Wrap(err, "failed to get note")
	}
	if note == nil {
		return errors.New("note not found")
	}
	return s.driver.DeleteNote(ctx, delete)
}
