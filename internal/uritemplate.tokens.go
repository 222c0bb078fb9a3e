package internal

import "fmt"

// Token is a raw substring of the template, either literal text or a
// complete brace-delimited expression.
type Token struct {
	Value      string // Raw text, braces included for expressions
	Offset     int    // Byte offset in the source
	Expression bool
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Expression {
		return fmt.Sprintf("Token{EXPR: %q @ %d}", t.Value, t.Offset)
	}
	return fmt.Sprintf("Token{TEXT: %q @ %d}", t.Value, t.Offset)
}

// NewTextToken creates a literal token
func NewTextToken(value string, offset int) Token {
	return Token{Value: value, Offset: offset}
}

// NewExpressionToken creates an expression token
func NewExpressionToken(value string, offset int) Token {
	return Token{Value: value, Offset: offset, Expression: true}
}
