package internal

import (
	"fmt"
	"strings"
)

// VarSpec is a single variable reference inside an expression.
type VarSpec struct {
	Name    string
	Explode bool
	Prefix  int // NoPrefix when absent
}

// HasPrefix reports whether a :N modifier was given
func (v VarSpec) HasPrefix() bool {
	return v.Prefix != NoPrefix
}

// String renders the varspec in template syntax
func (v VarSpec) String() string {
	switch {
	case v.Explode:
		return v.Name + string(CharExplode)
	case v.HasPrefix():
		return fmt.Sprintf("%s%c%d", v.Name, CharColon, v.Prefix)
	default:
		return v.Name
	}
}

// Chunk is one element of a parsed template.
type Chunk interface {
	// Source returns the original template text of the chunk
	Source() string
	chunk()
}

// Literal is template text outside any expression.
type Literal struct {
	text    string
	encoded string
}

// NewLiteral creates a literal chunk, pre-computing its encoded form
func NewLiteral(text string) *Literal {
	return &Literal{text: text, encoded: EncodeLiteral(text)}
}

// Source returns the literal text as written
func (l *Literal) Source() string { return l.text }

// Encoded returns the text as it appears in an expansion
func (l *Literal) Encoded() string { return l.encoded }

func (l *Literal) chunk() {}

// Expression is a parsed {...} chunk. It is immutable once parsed.
type Expression struct {
	Operator Operator
	Policy   *Policy
	VarSpecs []VarSpec
	Raw      string
	Offset   int
}

// Source returns the expression text, braces included
func (e *Expression) Source() string { return e.Raw }

func (e *Expression) chunk() {}

// Names returns the variable names in declaration order
func (e *Expression) Names() []string {
	names := make([]string, len(e.VarSpecs))
	for i, vs := range e.VarSpecs {
		names[i] = vs.Name
	}
	return names
}

// String renders the expression in canonical template syntax
func (e *Expression) String() string {
	specs := make([]string, len(e.VarSpecs))
	for i, vs := range e.VarSpecs {
		specs[i] = vs.String()
	}
	return string(CharOpenBrace) + e.Operator.String() + strings.Join(specs, StrComma) + string(CharCloseBrace)
}
