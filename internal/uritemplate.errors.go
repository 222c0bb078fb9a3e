package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies template errors.
type ErrorKind string

// Error kinds
const (
	KindSyntax    ErrorKind = "syntax"
	KindRange     ErrorKind = "range"
	KindLookup    ErrorKind = "lookup"
	KindExpansion ErrorKind = "expansion"
)

// TemplateError is returned by the tokenizer, parser, registry and renderer.
// Offset is -1 when the error is not tied to a source position.
type TemplateError struct {
	Kind       ErrorKind
	Message    string
	Offset     int
	Expression string
	Variable   string
	Expander   string
	Cause      error
}

func (e *TemplateError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Expression != "" {
		fmt.Fprintf(&sb, " [%s]", e.Expression)
	}
	if e.Variable != "" {
		fmt.Fprintf(&sb, " variable %q", e.Variable)
	}
	if e.Expander != "" {
		fmt.Fprintf(&sb, " expander %q", e.Expander)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " at offset %d", e.Offset)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// AsTemplateError extracts a *TemplateError from an error chain.
func AsTemplateError(err error) (*TemplateError, bool) {
	var te *TemplateError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func newSyntaxError(message, expression string, offset int) *TemplateError {
	return &TemplateError{Kind: KindSyntax, Message: message, Expression: expression, Offset: offset}
}

func newRangeError(message, expression string, offset int) *TemplateError {
	return &TemplateError{Kind: KindRange, Message: message, Expression: expression, Offset: offset}
}

func newPrefixOnCompositeError(variable string) *TemplateError {
	return &TemplateError{Kind: KindRange, Message: ErrMsgPrefixOnComposite, Variable: variable, Offset: -1}
}

func newLookupError(message, expander string, cause error) *TemplateError {
	return &TemplateError{Kind: KindLookup, Message: message, Expander: expander, Offset: -1, Cause: cause}
}

func newExpansionError(message, variable string, cause error) *TemplateError {
	return &TemplateError{Kind: KindExpansion, Message: message, Variable: variable, Offset: -1, Cause: cause}
}
