package uritemplate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-uritemplate/internal"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	ErrMsgParseFailed        = "uri template parsing failed"
	ErrMsgExpandFailed       = "uri template expansion failed"
	ErrMsgInvalidURI         = "expansion is not a valid uri reference"
	ErrMsgParameterUnnamed   = "template parameter has no variable name"
	ErrMsgParameterEmpty     = "template parameter has neither expander nor expander name"
	ErrMsgUnknownVariable    = "template parameter names an unknown variable"
	ErrMsgExpanderInvalid    = "invalid expander registration"
	ErrMsgTemplateExists     = "template already registered"
	ErrMsgTemplateNotFound   = "template not found"
	ErrMsgTemplateNameEmpty  = "template name cannot be empty"
	ErrMsgTemplateNameReserv = "template name uses reserved namespace"
)

// Error code constants for categorization
const (
	ErrCodeSyntax     = "URITEMPLATE_SYNTAX"
	ErrCodeRange      = "URITEMPLATE_RANGE"
	ErrCodeLookup     = "URITEMPLATE_LOOKUP"
	ErrCodeExpansion  = "URITEMPLATE_EXPANSION"
	ErrCodeRegistry   = "URITEMPLATE_REGISTRY"
	ErrCodeValidation = "URITEMPLATE_VALIDATION"
	ErrCodeStorage    = "URITEMPLATE_STORAGE"
)

// ErrorKind classifies errors returned by this package
type ErrorKind string

// Error kinds
const (
	KindNone      ErrorKind = ""
	KindSyntax    ErrorKind = ErrorKind(internal.KindSyntax)
	KindRange     ErrorKind = ErrorKind(internal.KindRange)
	KindLookup    ErrorKind = ErrorKind(internal.KindLookup)
	KindExpansion ErrorKind = ErrorKind(internal.KindExpansion)
	KindStorage   ErrorKind = "storage"
)

var kindCodes = map[internal.ErrorKind]string{
	internal.KindSyntax:    ErrCodeSyntax,
	internal.KindRange:     ErrCodeRange,
	internal.KindLookup:    ErrCodeLookup,
	internal.KindExpansion: ErrCodeExpansion,
}

// wrapTemplateError converts an internal template error into a
// *cuserr.CustomError carrying its kind and location as metadata. Other
// errors are returned unchanged.
func wrapTemplateError(err error, msg string) error {
	if err == nil {
		return nil
	}
	te, ok := internal.AsTemplateError(err)
	if !ok {
		return err
	}

	customErr := cuserr.WrapStdError(err, kindCodes[te.Kind], msg).
		WithMetadata(MetaKeyKind, string(te.Kind))
	if te.Offset >= 0 {
		customErr = customErr.WithMetadata(MetaKeyOffset, strconv.Itoa(te.Offset))
	}
	if te.Expression != "" {
		customErr = customErr.WithMetadata(MetaKeyExpression, te.Expression)
	}
	if te.Variable != "" {
		customErr = customErr.WithMetadata(MetaKeyVariable, te.Variable)
	}
	if te.Expander != "" {
		customErr = customErr.WithMetadata(MetaKeyExpander, te.Expander)
	}
	if te.Kind == internal.KindRange {
		customErr = customErr.WithMetadata(MetaKeyLimit, strconv.Itoa(internal.MaxPrefixLength))
	}
	return customErr
}

// NewInvalidURIError reports an expansion that is not a valid URI reference
func NewInvalidURIError(uri string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeExpansion, ErrMsgInvalidURI)
	} else {
		err = cuserr.NewValidationError(ErrCodeExpansion, ErrMsgInvalidURI)
	}
	return err.
		WithMetadata(MetaKeyKind, string(KindExpansion)).
		WithMetadata(MetaKeyURI, uri)
}

// NewParameterError reports a malformed template parameter
func NewParameterError(msg, variable string) error {
	return cuserr.NewValidationError(ErrCodeValidation, msg).
		WithMetadata(MetaKeyVariable, variable)
}

// NewExpanderRegistrationError reports a rejected expander registration
func NewExpanderRegistrationError(name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeRegistry, ErrMsgExpanderInvalid).
		WithMetadata(MetaKeyExpander, name)
}

// NewTemplateExistsError reports a named template collision
func NewTemplateExistsError(name string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgTemplateExists).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewTemplateNameError reports an empty or reserved template name
func NewTemplateNameError(msg, name string) error {
	return cuserr.NewValidationError(ErrCodeValidation, msg).
		WithMetadata(MetaKeyTemplateName, name)
}

// KindOf returns the kind recorded on err, or KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	// storage failures win over any template error they wrap
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return KindStorage
	}
	var customErr *cuserr.CustomError
	if errors.As(err, &customErr) {
		if v, ok := customErr.GetMetadata(MetaKeyKind); ok {
			return ErrorKind(fmt.Sprint(v))
		}
	}
	if te, ok := internal.AsTemplateError(err); ok {
		return ErrorKind(te.Kind)
	}
	return KindNone
}

// IsSyntaxError reports whether err is a template syntax error
func IsSyntaxError(err error) bool { return KindOf(err) == KindSyntax }

// IsRangeError reports whether err is a prefix range error
func IsRangeError(err error) bool { return KindOf(err) == KindRange }

// IsLookupError reports whether err is a custom expander lookup error
func IsLookupError(err error) bool { return KindOf(err) == KindLookup }

// IsExpansionError reports whether err is a value rendering error
func IsExpansionError(err error) bool { return KindOf(err) == KindExpansion }

// ErrorOffset returns the source offset recorded on err, or -1
func ErrorOffset(err error) int {
	if te, ok := internal.AsTemplateError(err); ok {
		return te.Offset
	}
	return -1
}
