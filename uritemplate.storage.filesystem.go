package uritemplate

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Filesystem storage constants
const (
	StorageDriverNameFilesystem = "filesystem"
	FilesystemDirPermissions    = 0o755
	FilesystemFilePermissions   = 0o644
	FilesystemVersionPrefix     = "v"
	FilesystemVersionSuffix     = ".yaml"
)

// Filesystem storage error messages
const (
	ErrMsgInvalidStorageRoot    = "storage root directory is empty"
	ErrMsgCreateStorageDir      = "failed to create storage directory"
	ErrMsgPathTraversalDetected = "template name escapes the storage root"
	ErrMsgReadTemplate          = "failed to read template file"
	ErrMsgWriteTemplate         = "failed to write template file"
	ErrMsgMarshalTemplate       = "failed to marshal template"
	ErrMsgUnmarshalTemplate     = "failed to unmarshal template"
)

// FilesystemStorage keeps one YAML file per template version, which makes a
// directory of endpoint templates reviewable in version control.
//
//	<root>/
//	  users.get/
//	    v1.yaml
//	    v2.yaml
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// FilesystemStorageDriver opens FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open uses the connection string as the root directory.
func (d *FilesystemStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewFilesystemStorage(connectionString)
}

// NewFilesystemStorage creates a filesystem storage rooted at root,
// creating the directory if needed.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgInvalidStorageRoot}
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgCreateStorageDir, Name: root, Cause: err}
	}
	return &FilesystemStorage{root: root}, nil
}

func (s *FilesystemStorage) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return NewStorageClosedError()
	}
	return nil
}

func (s *FilesystemStorage) versionPath(name string, version int) string {
	return filepath.Join(s.root, name, FilesystemVersionPrefix+strconv.Itoa(version)+FilesystemVersionSuffix)
}

// Get retrieves the latest version of a template by name.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := validateFilesystemName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	versions, err := s.versions(name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, NewTemplateNotFoundError(name)
	}
	return s.load(name, versions[0])
}

// GetByID scans every stored version for id.
func (s *FilesystemStorage) GetByID(ctx context.Context, id TemplateID) (*StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	all, err := s.loadAll(true)
	if err != nil {
		return nil, err
	}
	for _, tmpl := range all {
		if tmpl.ID == id {
			return tmpl, nil
		}
	}
	return nil, NewTemplateNotFoundError(string(id))
}

// GetVersion retrieves a specific version of a template.
func (s *FilesystemStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if err := validateFilesystemName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.load(name, version)
}

// Save validates tmpl and writes it as the next version file.
func (s *FilesystemStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := validateStoredTemplate(tmpl); err != nil {
		return err
	}
	if err := validateFilesystemName(tmpl.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return err
	}

	dir := filepath.Join(s.root, tmpl.Name)
	if err := os.MkdirAll(dir, FilesystemDirPermissions); err != nil {
		return &StorageError{Message: ErrMsgCreateStorageDir, Name: dir, Cause: err}
	}
	versions, err := s.versions(tmpl.Name)
	if err != nil {
		return err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[0] + 1
	}

	now := time.Now().UTC()
	stored := copyStoredTemplate(tmpl)
	stored.ID = generateTemplateID()
	stored.Version = next
	stored.CreatedAt = now
	stored.UpdatedAt = now

	data, err := yaml.Marshal(stored)
	if err != nil {
		return &StorageError{Message: ErrMsgMarshalTemplate, Name: tmpl.Name, Cause: err}
	}
	path := s.versionPath(tmpl.Name, next)
	if err := os.WriteFile(path, data, FilesystemFilePermissions); err != nil {
		return &StorageError{Message: ErrMsgWriteTemplate, Name: path, Cause: err}
	}

	tmpl.ID = stored.ID
	tmpl.Version = stored.Version
	tmpl.CreatedAt = stored.CreatedAt
	tmpl.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes the template directory.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	if err := validateFilesystemName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return err
	}
	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return NewTemplateNotFoundError(name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return &StorageError{Message: ErrMsgWriteTemplate, Name: dir, Cause: err}
	}
	return nil
}

// DeleteVersion removes one version file, and the directory once empty.
func (s *FilesystemStorage) DeleteVersion(ctx context.Context, name string, version int) error {
	if err := validateFilesystemName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return err
	}
	path := s.versionPath(name, version)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewStorageVersionNotFoundError(name, version)
		}
		return &StorageError{Message: ErrMsgWriteTemplate, Name: path, Cause: err}
	}
	if remaining, err := s.versions(name); err == nil && len(remaining) == 0 {
		_ = os.Remove(filepath.Join(s.root, name))
	}
	return nil
}

// List returns templates matching the query, ordered by name then newest
// version first.
func (s *FilesystemStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if query == nil {
		query = &TemplateQuery{}
	}

	all, err := s.loadAll(query.IncludeAllVersions)
	if err != nil {
		return nil, err
	}
	results := []*StoredTemplate{}
	for _, tmpl := range all {
		if query.matchesName(tmpl.Name) && query.matches(tmpl) {
			results = append(results, tmpl)
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
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := validateFilesystemName(name); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return false, err
	}
	versions, err := s.versions(name)
	if err != nil {
		return false, err
	}
	return len(versions) > 0, nil
}

// ListVersions returns all version numbers for a template, newest first.
func (s *FilesystemStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	if err := validateFilesystemName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.versions(name)
}

// Close marks the storage as closed. Files are left in place.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// versions lists version numbers found on disk, newest first.
func (s *FilesystemStorage) versions(name string) ([]int, error) {
	dir := filepath.Join(s.root, name)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadTemplate, Name: dir, Cause: err}
	}

	versions := []int{}
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() ||
			!strings.HasPrefix(filename, FilesystemVersionPrefix) ||
			!strings.HasSuffix(filename, FilesystemVersionSuffix) {
			continue
		}
		digits := strings.TrimSuffix(strings.TrimPrefix(filename, FilesystemVersionPrefix), FilesystemVersionSuffix)
		if v, err := strconv.Atoi(digits); err == nil && v > 0 {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

func (s *FilesystemStorage) load(name string, version int) (*StoredTemplate, error) {
	path := s.versionPath(name, version)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, NewStorageVersionNotFoundError(name, version)
	}
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadTemplate, Name: path, Cause: err}
	}

	var tmpl StoredTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, &StorageError{Message: ErrMsgUnmarshalTemplate, Name: path, Cause: err}
	}
	return &tmpl, nil
}

// loadAll reads the latest version of every template, or every version.
func (s *FilesystemStorage) loadAll(allVersions bool) ([]*StoredTemplate, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadTemplate, Name: s.root, Cause: err}
	}

	var result []*StoredTemplate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		versions, err := s.versions(entry.Name())
		if err != nil {
			return nil, err
		}
		if !allVersions && len(versions) > 1 {
			versions = versions[:1]
		}
		for _, v := range versions {
			tmpl, err := s.load(entry.Name(), v)
			if err != nil {
				return nil, err
			}
			result = append(result, tmpl)
		}
	}
	return result, nil
}

// validateFilesystemName rejects names that would leave the root directory
// or are not valid directory names.
func validateFilesystemName(name string) error {
	if name == "" {
		return &StorageError{Message: ErrMsgInvalidTemplateName}
	}
	if strings.Contains(name, "..") {
		return &StorageError{Message: ErrMsgPathTraversalDetected, Name: name}
	}
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return &StorageError{Message: ErrMsgInvalidTemplateName, Name: name}
	}
	// "." resolves to the root itself
	if name == "." || filepath.Clean(name) != name || filepath.Base(name) != name {
		return &StorageError{Message: ErrMsgPathTraversalDetected, Name: name}
	}
	return nil
}
