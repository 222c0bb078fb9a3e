package internal

// Delimiter characters
const (
	CharOpenBrace  = '{'
	CharCloseBrace = '}'
	CharComma      = ','
	CharColon      = ':'
	CharExplode    = '*'
	CharPercent    = '%'
	CharDot        = '.'
)

// String constants used while rendering
const (
	StrEmpty       = ""
	StrComma       = ","
	StrEquals      = "="
	StrPathSep     = "."
	StrHexUpper    = "0123456789ABCDEF"
	StrOperators   = "+#./;?&"
	StrReservedOps = "=,!@|"
)

// Character classes from RFC 3986 section 2
const (
	CharsGenDelims       = ":/?#[]@"
	CharsSubDelims       = "!$&'()*+,;="
	CharsUnreservedPunct = "-._~"
	CharsVarNamePunct    = "_*.-[]%$"
)

// Prefix modifier limits
const (
	NoPrefix        = -1
	MinPrefixLength = 0
	MaxPrefixLength = 10000
)

// MaxCompositeDepth bounds nested PropertySource flattening.
const MaxCompositeDepth = 32

// Log message constants
const (
	LogMsgTokenizerStart     = "starting tokenization"
	LogMsgTokenizerEnd       = "tokenization complete"
	LogMsgParserStart        = "starting template parse"
	LogMsgParserEnd          = "template parse complete"
	LogMsgExpressionParsed   = "expression parsed"
	LogMsgRendererCreated    = "renderer created"
	LogMsgRenderFailed       = "expression expansion failed"
	LogMsgRegistryCreated    = "expander registry created"
	LogMsgExpanderRegistered = "expander registered"
	LogMsgExpanderCollision  = "expander registration collision - first-come-wins"
	LogMsgExpanderResolved   = "expander instantiated from factory"
	LogMsgShapeCached        = "value shape cached"
)

// Log field names
const (
	LogFieldSource     = "source_length"
	LogFieldTokens     = "token_count"
	LogFieldChunks     = "chunk_count"
	LogFieldExpression = "expression"
	LogFieldOperator   = "operator"
	LogFieldVarCount   = "var_count"
	LogFieldExpander   = "expander"
	LogFieldType       = "type"
	LogFieldShape      = "shape"
	LogFieldError      = "error"
)

// Error message constants
const (
	ErrMsgUnterminatedExpr   = "unterminated expression"
	ErrMsgEmptyExpression    = "empty expression"
	ErrMsgReservedOperator   = "operator reserved for future extension"
	ErrMsgEmptyVarSpec       = "empty variable specification"
	ErrMsgInvalidVarName     = "invalid character in variable name"
	ErrMsgExplodeWithPrefix  = "explode and prefix modifiers are mutually exclusive"
	ErrMsgInvalidPrefix      = "prefix modifier must be an integer"
	ErrMsgPrefixOutOfRange   = "prefix modifier out of range"
	ErrMsgPrefixOnComposite  = "prefix modifier cannot be applied to a composite value"
	ErrMsgCompositeTooDeep   = "composite value nesting too deep"
	ErrMsgExpanderNotFound   = "no expander registered under name"
	ErrMsgExpanderFactory    = "expander factory failed"
	ErrMsgExpanderNil        = "expander cannot be nil"
	ErrMsgExpanderNameEmpty  = "expander name cannot be empty"
	ErrMsgExpanderExists     = "expander already registered under name"
	ErrMsgCustomExpandFailed = "custom expander failed"
)
