package uritemplate

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStorage keeps template versions in process memory. It suits tests
// and single-process services; nothing survives a restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	versions map[string][]*StoredTemplate // newest first
	byID     map[TemplateID]*StoredTemplate
	closed   bool
}

// MemoryStorageDriver opens MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open returns a fresh MemoryStorage. The connection string is ignored.
func (d *MemoryStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty in-memory template storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		versions: make(map[string][]*StoredTemplate),
		byID:     make(map[TemplateID]*StoredTemplate),
	}
}

// ready must be called with s.mu held.
func (s *MemoryStorage) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return NewStorageClosedError()
	}
	return nil
}

// Get retrieves the latest version of a template by name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	versions := s.versions[name]
	if len(versions) == 0 {
		return nil, NewTemplateNotFoundError(name)
	}
	return copyStoredTemplate(versions[0]), nil
}

// GetByID retrieves a specific template version by ID.
func (s *MemoryStorage) GetByID(ctx context.Context, id TemplateID) (*StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	tmpl, ok := s.byID[id]
	if !ok {
		return nil, NewTemplateNotFoundError(string(id))
	}
	return copyStoredTemplate(tmpl), nil
}

// GetVersion retrieves a specific version of a template.
func (s *MemoryStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if i := s.indexOf(name, version); i >= 0 {
		return copyStoredTemplate(s.versions[name][i]), nil
	}
	return nil, NewStorageVersionNotFoundError(name, version)
}

// Save validates tmpl and stores it as the next version of its name. The
// generated ID, Version and timestamps are written back to tmpl.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := validateStoredTemplate(tmpl); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return err
	}

	existing := s.versions[tmpl.Name]
	next := 1
	if len(existing) > 0 {
		next = existing[0].Version + 1
	}

	now := time.Now().UTC()
	tmpl.ID = generateTemplateID()
	tmpl.Version = next
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	stored := copyStoredTemplate(tmpl)
	s.versions[tmpl.Name] = append([]*StoredTemplate{stored}, existing...)
	s.byID[stored.ID] = stored
	return nil
}

// Delete removes all versions of a template by name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return err
	}
	versions, ok := s.versions[name]
	if !ok {
		return NewTemplateNotFoundError(name)
	}
	for _, tmpl := range versions {
		delete(s.byID, tmpl.ID)
	}
	delete(s.versions, name)
	return nil
}

// DeleteVersion removes a specific version of a template. Removing the last
// version removes the name.
func (s *MemoryStorage) DeleteVersion(ctx context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return err
	}
	i := s.indexOf(name, version)
	if i < 0 {
		return NewStorageVersionNotFoundError(name, version)
	}

	versions := s.versions[name]
	delete(s.byID, versions[i].ID)
	versions = slices.Delete(versions, i, i+1)
	if len(versions) == 0 {
		delete(s.versions, name)
	} else {
		s.versions[name] = versions
	}
	return nil
}

// indexOf must be called with s.mu held. Returns -1 when absent.
func (s *MemoryStorage) indexOf(name string, version int) int {
	for i, tmpl := range s.versions[name] {
		if tmpl.Version == version {
			return i
		}
	}
	return -1
}

// List returns templates matching the query, ordered by name then newest
// version first.
func (s *MemoryStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if query == nil {
		query = &TemplateQuery{}
	}

	results := []*StoredTemplate{}
	for name, versions := range s.versions {
		if !query.matchesName(name) {
			continue
		}
		candidates := versions
		if !query.IncludeAllVersions {
			candidates = versions[:1]
		}
		for _, tmpl := range candidates {
			if query.matches(tmpl) {
				results = append(results, copyStoredTemplate(tmpl))
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Version > results[j].Version
	})
	return query.page(results), nil
}

// Exists checks if a template with the given name exists.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return false, err
	}
	return len(s.versions[name]) > 0, nil
}

// ListVersions returns all version numbers for a template, newest first.
func (s *MemoryStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	versions := s.versions[name]
	result := make([]int, len(versions))
	for i, tmpl := range versions {
		result[i] = tmpl.Version
	}
	return result, nil
}

// Close drops all templates. Later calls fail with a closed-storage error.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.versions = nil
	s.byID = nil
	return nil
}

func (q *TemplateQuery) matchesName(name string) bool {
	if q.NamePrefix != "" && !strings.HasPrefix(name, q.NamePrefix) {
		return false
	}
	return q.NameContains == "" || strings.Contains(name, q.NameContains)
}

func (q *TemplateQuery) matches(tmpl *StoredTemplate) bool {
	if q.CreatedBy != "" && tmpl.CreatedBy != q.CreatedBy {
		return false
	}
	for _, tag := range q.Tags {
		if !slices.Contains(tmpl.Tags, tag) {
			return false
		}
	}
	return true
}

// page applies Offset and Limit.
func (q *TemplateQuery) page(results []*StoredTemplate) []*StoredTemplate {
	if q.Offset > 0 {
		if q.Offset >= len(results) {
			return []*StoredTemplate{}
		}
		results = results[q.Offset:]
	}
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}
