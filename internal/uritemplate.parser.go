package internal

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Parser turns tokens into chunks.
type Parser struct {
	tokens []Token
	logger *zap.Logger
}

// NewParser creates a parser over tokenizer output
func NewParser(tokens []Token, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		tokens: tokens,
		logger: logger,
	}
}

// Parse converts every token. The first error aborts the parse and no
// chunks are returned.
func (p *Parser) Parse() ([]Chunk, error) {
	p.logger.Debug(LogMsgParserStart, zap.Int(LogFieldTokens, len(p.tokens)))

	chunks := make([]Chunk, 0, len(p.tokens))
	for _, tok := range p.tokens {
		if !tok.Expression {
			chunks = append(chunks, NewLiteral(tok.Value))
			continue
		}
		expr, err := ParseExpression(tok.Value, tok.Offset)
		if err != nil {
			return nil, err
		}
		p.logger.Debug(LogMsgExpressionParsed,
			zap.String(LogFieldExpression, expr.Raw),
			zap.String(LogFieldOperator, expr.Operator.Name()),
			zap.Int(LogFieldVarCount, len(expr.VarSpecs)))
		chunks = append(chunks, expr)
	}

	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldChunks, len(chunks)))
	return chunks, nil
}

// ParseTemplate tokenizes and parses a template source
func ParseTemplate(source string, logger *zap.Logger) ([]Chunk, error) {
	tokens, err := NewTokenizer(source, logger).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, logger).Parse()
}

// ParseExpression parses a single brace-delimited expression found at
// offset in the template source.
func ParseExpression(raw string, offset int) (*Expression, error) {
	if len(raw) < 2 || raw[0] != CharOpenBrace || raw[len(raw)-1] != CharCloseBrace {
		return nil, newSyntaxError(ErrMsgUnterminatedExpr, raw, offset)
	}
	body := raw[1 : len(raw)-1]
	if body == StrEmpty {
		return nil, newSyntaxError(ErrMsgEmptyExpression, raw, offset)
	}

	op := OperatorNone
	pos := 1
	switch first := body[0]; {
	case strings.IndexByte(StrOperators, first) >= 0:
		op = Operator(first)
		body = body[1:]
		pos++
	case strings.IndexByte(StrReservedOps, first) >= 0:
		return nil, newSyntaxError(ErrMsgReservedOperator, raw, offset+1)
	}

	parts := strings.Split(body, StrComma)
	specs := make([]VarSpec, 0, len(parts))
	for _, part := range parts {
		spec, err := parseVarSpec(part, raw, offset+pos)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
		pos += len(part) + 1
	}

	return &Expression{
		Operator: op,
		Policy:   PolicyFor(op),
		VarSpecs: specs,
		Raw:      raw,
		Offset:   offset,
	}, nil
}

// parseVarSpec handles name, name* and name:N. offset points at the
// first byte of part in the template source.
func parseVarSpec(part, raw string, offset int) (VarSpec, error) {
	spec := VarSpec{Name: part, Prefix: NoPrefix}
	if part == StrEmpty {
		return spec, newSyntaxError(ErrMsgEmptyVarSpec, raw, offset)
	}

	if colon := strings.IndexByte(part, CharColon); colon >= 0 {
		spec.Name = part[:colon]
		digits := part[colon+1:]
		if strings.HasSuffix(spec.Name, string(CharExplode)) {
			return spec, newSyntaxError(ErrMsgExplodeWithPrefix, raw, offset+colon-1)
		}
		if strings.HasSuffix(digits, string(CharExplode)) {
			return spec, newSyntaxError(ErrMsgExplodeWithPrefix, raw, offset+len(part)-1)
		}
		prefix, err := parsePrefix(digits, raw, offset+colon+1)
		if err != nil {
			return spec, err
		}
		spec.Prefix = prefix
	} else if strings.HasSuffix(part, string(CharExplode)) {
		spec.Name = part[:len(part)-1]
		spec.Explode = true
	}

	if spec.Name == StrEmpty {
		return spec, newSyntaxError(ErrMsgEmptyVarSpec, raw, offset)
	}
	for i := 0; i < len(spec.Name); i++ {
		if !isVarNameChar(spec.Name[i]) {
			return spec, newSyntaxError(ErrMsgInvalidVarName, raw, offset+i)
		}
	}
	return spec, nil
}

func parsePrefix(digits, raw string, offset int) (int, error) {
	if digits == StrEmpty {
		return NoPrefix, newSyntaxError(ErrMsgInvalidPrefix, raw, offset)
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return NoPrefix, newSyntaxError(ErrMsgInvalidPrefix, raw, offset+i)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < MinPrefixLength || n > MaxPrefixLength {
		return NoPrefix, newRangeError(ErrMsgPrefixOutOfRange, raw, offset)
	}
	return n, nil
}

func isVarNameChar(b byte) bool {
	return isAlpha(b) || isDigit(b) || strings.IndexByte(CharsVarNamePunct, b) >= 0
}
