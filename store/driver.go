package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)
	DeleteUser(ctx context.Context, delete *DeleteUser) error

	// Community model related methods.
	CreateCommunity(ctx context.Context, create *Community) (*Community, error)
	ListCommunities(ctx context.Context, find *FindCommunity) ([]*Community, error)
	UpdateCommunity(ctx context.Context, update *UpdateCommunity) (*Community, error)
	DeleteCommunity(ctx context.Context, delete *DeleteCommunity) error

	// CommunityMember model related methods.
	UpsertCommunityMember(ctx context.Context, upsert *CommunityMember) (*CommunityMember, error)
	ListCommunityMembers(ctx context.Context, find *FindCommunityMember) ([]*CommunityMember, error)
	DeleteCommunityMember(ctx context.Context, delete *DeleteCommunityMember) error

	// Note model related methods.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) error
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// Quiz model related methods.
	CreateQuiz(ctx context.Context, create *Quiz) (*Quiz, error)
	ListQuizzes(ctx context.Context, find *FindQuiz) ([]*Quiz, error)
	UpdateQuiz(ctx context.Context, update *UpdateQuiz) (*Quiz, error)
	DeleteQuiz(ctx context.Context, delete *DeleteQuiz) error

	// NoteEmbedding model related methods. Only the PostgreSQL driver
	// implements these; SQLite returns a typed unsupported error.
	UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error)
	ListNoteEmbeddings(ctx context.Context, find *FindNoteEmbedding) ([]*NoteEmbedding, error)
	DeleteNoteEmbedding(ctx context.Context, noteID int32) error
	FindNotesWithoutEmbedding(ctx context.Context, find *FindNotesWithoutEmbedding) ([]*Note, error)
	SearchNotesByVector(ctx context.Context, opts *VectorSearchOptions) ([]*NoteWithScore, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)
}
