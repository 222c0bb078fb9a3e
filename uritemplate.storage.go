package uritemplate

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-uritemplate/internal"
)

// TemplateID is a unique identifier for a stored template version.
// Format: "tmpl_" followed by a UUID.
type TemplateID string

// templateIDPrefix prefixes generated template IDs
const templateIDPrefix = "tmpl_"

// StoredTemplate is a named URI template version held by a storage backend.
type StoredTemplate struct {
	// ID is the unique identifier for this template version.
	ID TemplateID `json:"id" yaml:"id"`

	// Name is the template name used for lookups, e.g. "users.get".
	Name string `json:"name" yaml:"name"`

	// Source is the URI template text.
	Source string `json:"source" yaml:"source"`

	// Version is the version number (1, 2, 3, ...). Higher versions are newer.
	Version int `json:"version" yaml:"version"`

	// Description is an optional human readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Metadata contains arbitrary key-value pairs for user-defined data.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// CreatedAt is when this version was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when this version was last modified.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// CreatedBy identifies who created this version (optional).
	CreatedBy string `json:"created_by,omitempty" yaml:"created_by,omitempty"`

	// Tags for categorization and querying.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// TemplateQuery defines filters for listing templates.
type TemplateQuery struct {
	// Tags filters to templates having ALL specified tags.
	Tags []string

	// CreatedBy filters by creator.
	CreatedBy string

	// NamePrefix filters to names starting with this prefix.
	NamePrefix string

	// NameContains filters to names containing this substring.
	NameContains string

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip (for pagination).
	Offset int

	// IncludeAllVersions includes all versions, not just latest.
	IncludeAllVersions bool
}

// TemplateStorage is the interface for pluggable storage backends.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get retrieves the latest version of a template by name.
	// Returns an error matching ErrTemplateNotFound if the template doesn't exist.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// GetByID retrieves a specific template version by ID.
	GetByID(ctx context.Context, id TemplateID) (*StoredTemplate, error)

	// GetVersion retrieves a specific version of a template.
	GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error)

	// Save stores a template as a new version. The source must parse as a
	// URI template. ID, Version, CreatedAt and UpdatedAt are set by the
	// storage implementation.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes all versions of a template by name.
	Delete(ctx context.Context, name string) error

	// DeleteVersion removes a specific version of a template.
	DeleteVersion(ctx context.Context, name string, version int) error

	// List returns templates matching the query, ordered by name, then by
	// version (descending).
	List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error)

	// Exists checks if a template with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// ListVersions returns all version numbers for a template, newest first.
	// Returns an empty slice if the template doesn't exist.
	ListVersions(ctx context.Context, name string) ([]int, error)

	// Close releases any resources held by the storage.
	Close() error
}

// StorageDriver is a factory for creating storage instances.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a new storage instance with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (TemplateStorage, error)
}

// Storage driver names
const (
	StorageDriverNameMemory   = "memory"
	StorageDriverNamePostgres = "postgres"
)

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if the driver is nil or a driver with the same name exists.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage connection using the named driver.
//
//	storage, err := uritemplate.OpenStorage("memory", "")
//	storage, err := uritemplate.OpenStorage("postgres", "postgres://localhost/api?sslmode=disable")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the names of all registered storage drivers
// in sorted order.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgInvalidTemplateName     = "invalid template name"
	ErrMsgInvalidTemplateSource   = "template source is not a valid uri template"
	ErrMsgVersionNotFound         = "template version not found"
	ErrMsgNilTemplate             = "template is nil"
)

// ErrTemplateNotFound is matched (errors.Is) by every not-found error
// returned from storage backends and named template lookups.
var ErrTemplateNotFound = errors.New(ErrMsgTemplateNotFound)

// NewTemplateNotFoundError creates an error for a missing named template.
func NewTemplateNotFoundError(name string) error {
	return cuserr.WrapStdError(ErrTemplateNotFound, ErrCodeStorage, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyKind, string(KindStorage)).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewStorageDriverNotFoundError creates an error for a missing storage driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{
		Message: ErrMsgStorageDriverNotFound,
		Name:    name,
	}
}

// NewStorageVersionNotFoundError creates an error for a missing version.
func NewStorageVersionNotFoundError(name string, version int) error {
	return &StorageError{
		Message: ErrMsgVersionNotFound,
		Name:    name,
		Version: version,
		Cause:   ErrTemplateNotFound,
	}
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return &StorageError{
		Message: ErrMsgStorageClosed,
	}
}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" {
		msg += ": " + e.Name
		if e.Version > 0 {
			msg += " v" + strconv.Itoa(e.Version)
		}
	}
	if e.Cause != nil && !errors.Is(e.Cause, ErrTemplateNotFound) {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a template or version not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// validateStoredTemplate checks the name and that the source parses.
func validateStoredTemplate(tmpl *StoredTemplate) error {
	if tmpl == nil {
		return &StorageError{Message: ErrMsgNilTemplate}
	}
	if tmpl.Name == "" {
		return &StorageError{Message: ErrMsgInvalidTemplateName}
	}
	if _, err := internal.ParseTemplate(tmpl.Source, nil); err != nil {
		return &StorageError{
			Message: ErrMsgInvalidTemplateSource,
			Name:    tmpl.Name,
			Cause:   wrapTemplateError(err, ErrMsgParseFailed),
		}
	}
	return nil
}

// generateTemplateID returns a new unique template ID.
func generateTemplateID() TemplateID {
	return TemplateID(templateIDPrefix + uuid.NewString())
}

// copyStoredTemplate creates a deep copy of a StoredTemplate.
func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	if tmpl == nil {
		return nil
	}
	cp := *tmpl
	cp.Metadata = copyStringMap(tmpl.Metadata)
	cp.Tags = copyStringSlice(tmpl.Tags)
	return &cp
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func copyStringSlice(s []string) []string {
	if s == nil {
		return nil
	}
	result := make([]string, len(s))
	copy(result, s)
	return result
}
