package uritemplate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cached storage defaults
const (
	DefaultStorageCacheTTL         = 5 * time.Minute
	DefaultStorageNegativeCacheTTL = 30 * time.Second
	DefaultStorageCacheCleanup     = 10 * time.Minute
)

// CachedStorage wraps a TemplateStorage and caches latest-version lookups
// by name. Writes through the wrapper invalidate the affected name; writes
// that bypass it become visible after the TTL.
type CachedStorage struct {
	storage TemplateStorage
	cache   *gocache.Cache
	config  CacheConfig
}

// CacheConfig configures CachedStorage.
type CacheConfig struct {
	// TTL is how long found templates stay cached.
	// Default: 5 minutes
	TTL time.Duration

	// NegativeCacheTTL is how long a not-found result is remembered.
	// Zero disables negative caching.
	// Default: 30 seconds
	NegativeCacheTTL time.Duration

	// CleanupInterval is how often expired entries are purged.
	// Default: 10 minutes
	CleanupInterval time.Duration
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultStorageCacheTTL,
		NegativeCacheTTL: DefaultStorageNegativeCacheTTL,
		CleanupInterval:  DefaultStorageCacheCleanup,
	}
}

// CacheStats reports cache occupancy.
type CacheStats struct {
	Entries         int
	NegativeEntries int
}

// notFoundEntry marks a cached miss.
type notFoundEntry struct{}

const cacheKeyName = "name:"

// NewCachedStorage wraps storage with a lookup cache.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	if config.TTL <= 0 {
		config.TTL = DefaultStorageCacheTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultStorageCacheCleanup
	}
	return &CachedStorage{
		storage: storage,
		cache:   gocache.New(config.TTL, config.CleanupInterval),
		config:  config,
	}
}

// Get returns the latest version of name, from cache when possible.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	key := cacheKeyName + name
	if cached, ok := s.cache.Get(key); ok {
		if _, miss := cached.(notFoundEntry); miss {
			return nil, NewTemplateNotFoundError(name)
		}
		return copyStoredTemplate(cached.(*StoredTemplate)), nil
	}

	tmpl, err := s.storage.Get(ctx, name)
	if err != nil {
		if IsNotFound(err) && s.config.NegativeCacheTTL > 0 {
			s.cache.Set(key, notFoundEntry{}, s.config.NegativeCacheTTL)
		}
		return nil, err
	}
	s.cache.Set(key, copyStoredTemplate(tmpl), gocache.DefaultExpiration)
	return tmpl, nil
}

// GetByID delegates to the wrapped storage.
func (s *CachedStorage) GetByID(ctx context.Context, id TemplateID) (*StoredTemplate, error) {
	return s.storage.GetByID(ctx, id)
}

// GetVersion delegates to the wrapped storage.
func (s *CachedStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	return s.storage.GetVersion(ctx, name, version)
}

// Save stores tmpl and invalidates its name.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.Invalidate(tmpl.Name)
	return nil
}

// Delete removes name and invalidates it.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	defer s.Invalidate(name)
	return s.storage.Delete(ctx, name)
}

// DeleteVersion removes one version and invalidates its name.
func (s *CachedStorage) DeleteVersion(ctx context.Context, name string, version int) error {
	defer s.Invalidate(name)
	return s.storage.DeleteVersion(ctx, name, version)
}

// List delegates to the wrapped storage.
func (s *CachedStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return s.storage.List(ctx, query)
}

// Exists answers from cache when the name has been looked up.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	if cached, ok := s.cache.Get(cacheKeyName + name); ok {
		_, miss := cached.(notFoundEntry)
		return !miss, nil
	}
	return s.storage.Exists(ctx, name)
}

// ListVersions delegates to the wrapped storage.
func (s *CachedStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	return s.storage.ListVersions(ctx, name)
}

// Close flushes the cache and closes the wrapped storage.
func (s *CachedStorage) Close() error {
	s.cache.Flush()
	return s.storage.Close()
}

// Invalidate drops the cached entry for name.
func (s *CachedStorage) Invalidate(name string) {
	s.cache.Delete(cacheKeyName + name)
}

// InvalidateAll drops every cached entry.
func (s *CachedStorage) InvalidateAll() {
	s.cache.Flush()
}

// Stats reports current cache occupancy.
func (s *CachedStorage) Stats() CacheStats {
	stats := CacheStats{}
	for _, item := range s.cache.Items() {
		stats.Entries++
		if _, miss := item.Object.(notFoundEntry); miss {
			stats.NegativeEntries++
		}
	}
	return stats
}
