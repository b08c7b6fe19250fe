package store

// RowStatus is the status for a row.
type RowStatus string

const (
	// Normal is the status for a normal row.
	Normal RowStatus = "NORMAL"
	// Archived is the status for an archived row.
	Archived RowStatus = "ARCHIVED"
)

func (r RowStatus) String() string {
	return string(r)
}

// Visibility is the visibility of a note.
type Visibility string

const (
	// VisibilityPrivate means the note is visible only to its creator.
	VisibilityPrivate Visibility = "PRIVATE"
	// VisibilityCommunity means the note is visible to members of its community.
	VisibilityCommunity Visibility = "COMMUNITY"
	// VisibilityPublic means the note is visible to everyone.
	VisibilityPublic Visibility = "PUBLIC"
)

func (v Visibility) String() string {
	return string(v)
}
