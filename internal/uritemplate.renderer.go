package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Bindings maps variable names to custom expanders that replace the
// built-in shape dispatch for that variable.
type Bindings map[string]Expander

// Renderer expands parsed chunks against a variable map. It holds no
// per-call state and may be shared.
type Renderer struct {
	registry *Registry
	logger   *zap.Logger
}

// NewRenderer creates a renderer backed by registry
func NewRenderer(registry *Registry, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	logger.Debug(LogMsgRendererCreated)
	return &Renderer{
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the registry used for shape dispatch
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Render expands chunks in order. An error aborts this call only.
func (r *Renderer) Render(chunks []Chunk, vars map[string]any, bindings Bindings) (string, error) {
	var sb strings.Builder
	for _, c := range chunks {
		switch chunk := c.(type) {
		case *Literal:
			sb.WriteString(chunk.Encoded())
		case *Expression:
			out, err := r.RenderExpression(chunk, vars, bindings)
			if err != nil {
				r.logger.Debug(LogMsgRenderFailed,
					zap.String(LogFieldExpression, chunk.Raw),
					zap.Error(err))
				return StrEmpty, err
			}
			sb.WriteString(out)
		}
	}
	return sb.String(), nil
}

// RenderExpression expands one expression. Undefined varspecs are elided;
// if every varspec is undefined, or the joined result is empty, the
// expression contributes nothing, not even its prefix.
func (r *Renderer) RenderExpression(expr *Expression, vars map[string]any, bindings Bindings) (string, error) {
	parts := make([]string, 0, len(expr.VarSpecs))
	for _, spec := range expr.VarSpecs {
		frag, err := r.expandSpec(expr, spec, vars, bindings)
		if err != nil {
			return StrEmpty, err
		}
		if frag.IsUndefined() {
			continue
		}
		parts = append(parts, frag.String())
	}
	if len(parts) == 0 {
		return StrEmpty, nil
	}

	joined := strings.Join(parts, expr.Policy.Delimiter())
	if joined == StrEmpty {
		return StrEmpty, nil
	}
	return expr.Policy.Prefix() + joined, nil
}

func (r *Renderer) expandSpec(expr *Expression, spec VarSpec, vars map[string]any, bindings Bindings) (Fragment, error) {
	value := vars[spec.Name]
	v := NewVariable(spec, expr.Policy, r.registry)

	if custom, ok := bindings[spec.Name]; ok {
		frag, err := custom.Expand(v, value)
		if err != nil {
			return UndefinedFragment(), attachExpression(asExpansionError(err, spec.Name), expr)
		}
		return frag, nil
	}

	frag, err := r.registry.ForValue(value).Expand(v, value)
	if err != nil {
		return UndefinedFragment(), attachExpression(asExpansionError(err, spec.Name), expr)
	}
	return frag, nil
}

// asExpansionError keeps typed template errors and wraps anything else.
func asExpansionError(err error, variable string) *TemplateError {
	if te, ok := AsTemplateError(err); ok {
		return te
	}
	return newExpansionError(ErrMsgCustomExpandFailed, variable, err)
}

// attachExpression returns a copy of te located at expr.
func attachExpression(te *TemplateError, expr *Expression) *TemplateError {
	if te.Expression != StrEmpty {
		return te
	}
	located := *te
	located.Expression = expr.Raw
	located.Offset = expr.Offset
	return &located
}
