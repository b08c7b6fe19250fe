package db

import (
	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/internal/profile"
	"github.com/ayakoji/noteshare/store"
	"github.com/ayakoji/noteshare/store/db/postgres"
	"github.com/ayakoji/noteshare/store/db/sqlite"
)

// Supported databases:
//
//	PostgreSQL: full support, including note embeddings via pgvector.
//	SQLite: development and demo use; vector search is unavailable.
//
// MySQL is not supported.

// NewDBDriver creates a new db driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
