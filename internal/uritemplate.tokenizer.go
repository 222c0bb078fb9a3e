package internal

import (
	"go.uber.org/zap"
)

// Tokenizer splits a template source into literal and expression tokens.
//
// A '{' outside an expression starts a new expression and flushes pending
// literal text. A '{' inside an expression only raises the nesting level, so
// nested braces are kept verbatim inside the expression token (the parser
// rejects them later). A '}' lowers the nesting level or, at level zero,
// closes the expression. There is no escape syntax.
type Tokenizer struct {
	source string
	logger *zap.Logger
}

// NewTokenizer creates a tokenizer for the given source
func NewTokenizer(source string, logger *zap.Logger) *Tokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tokenizer{
		source: source,
		logger: logger,
	}
}

// Tokenize performs a single left-to-right scan of the source.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	t.logger.Debug(LogMsgTokenizerStart, zap.Int(LogFieldSource, len(t.source)))

	var tokens []Token
	inside := false
	level := 0
	start := 0

	for i := 0; i < len(t.source); i++ {
		switch t.source[i] {
		case CharOpenBrace:
			if inside {
				level++
				continue
			}
			if start < i {
				tokens = append(tokens, NewTextToken(t.source[start:i], start))
			}
			start = i
			inside = true
		case CharCloseBrace:
			if !inside {
				continue
			}
			if level > 0 {
				level--
				continue
			}
			tokens = append(tokens, NewExpressionToken(t.source[start:i+1], start))
			start = i + 1
			inside = false
		}
	}

	if inside {
		return nil, newSyntaxError(ErrMsgUnterminatedExpr, t.source[start:], start)
	}
	if start < len(t.source) {
		tokens = append(tokens, NewTextToken(t.source[start:], start))
	}

	t.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}
