package store

import (
	"time"

	"github.com/ayakoji/noteshare/internal/profile"
	"github.com/ayakoji/noteshare/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	settingCache   *cache.Cache // cache for system settings
	userCache      *cache.Cache // cache for users
	communityCache *cache.Cache // cache for communities
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:         driver,
		profile:        profile,
		cacheConfig:    cacheConfig,
		settingCache:   cache.New(cacheConfig),
		userCache:      cache.New(cacheConfig),
		communityCache: cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.settingCache.Close()
	s.userCache.Close()
	s.communityCache.Close()

	return s.driver.Close()
}
