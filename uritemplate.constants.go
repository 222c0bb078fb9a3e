package uritemplate

import "time"

// Engine defaults
const (
	// DefaultCacheTTL is how long a parsed template stays in the engine cache
	DefaultCacheTTL = 10 * time.Minute
	// DefaultCacheCleanup is the interval for purging expired cache entries
	DefaultCacheCleanup = 15 * time.Minute
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyKind         = "kind"
	MetaKeyOffset       = "offset"
	MetaKeyExpression   = "expression"
	MetaKeyVariable     = "variable"
	MetaKeyExpander     = "expander"
	MetaKeyLimit        = "limit"
	MetaKeyTemplateName = "template_name"
	MetaKeyVersion      = "version"
	MetaKeyURI          = "uri"
)

// Log message constants
const (
	LogMsgEngineCreated      = "uri template engine created"
	LogMsgTemplateParsed     = "template parsed"
	LogMsgTemplateCacheHit   = "template cache hit"
	LogMsgTemplateCacheMiss  = "template cache miss"
	LogMsgExpandFailed       = "template expansion failed"
	LogMsgTemplateRegistered = "named template registered"
	LogMsgCatalogLoad        = "loading template from storage"
)

// Log field names
const (
	LogFieldSource   = "source"
	LogFieldName     = "name"
	LogFieldVersion  = "version"
	LogFieldParams   = "param_count"
	LogFieldDuration = "duration"
	LogFieldError    = "error"
)

// Reserved template text
const (
	reservedNamespacePrefix = "uritemplate."
)
