package uritemplate

import (
	"context"
	"net/url"
	"slices"
	"time"

	"github.com/itsatony/go-uritemplate/internal"
	"go.uber.org/zap"
)

// Template is a parsed URI template. It is immutable and safe for
// concurrent use; Expand may be called any number of times.
type Template struct {
	source   string
	chunks   []internal.Chunk
	bindings internal.Bindings
	renderer *internal.Renderer
	metrics  MetricsRecorder
	logger   *zap.Logger
}

// VarSpecInfo describes one variable reference of an expression
type VarSpecInfo struct {
	Name    string `json:"name"`
	Explode bool   `json:"explode,omitempty"`
	Prefix  int    `json:"prefix"`
}

// ExpressionInfo describes one parsed expression
type ExpressionInfo struct {
	Source    string        `json:"source"`
	Operator  string        `json:"operator"`
	Style     string        `json:"style"`
	Offset    int           `json:"offset"`
	Variables []VarSpecInfo `json:"variables"`
}

func newTemplate(source string, chunks []internal.Chunk, bindings internal.Bindings, renderer *internal.Renderer, metrics MetricsRecorder, logger *zap.Logger) *Template {
	return &Template{
		source:   source,
		chunks:   chunks,
		bindings: bindings,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Parse parses a URI template with a dedicated, uncached engine.
func Parse(source string, opts ...Option) (*Template, error) {
	engine, err := New(append(slices.Clone(opts), WithCacheDisabled())...)
	if err != nil {
		return nil, err
	}
	return engine.Parse(source)
}

// MustParse is like Parse but panics on error.
func MustParse(source string, opts ...Option) *Template {
	tmpl, err := Parse(source, opts...)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// String returns the template source exactly as given to Parse
func (t *Template) String() string {
	return t.source
}

// Expand expands the template with the given variables. Missing and nil
// variables are undefined and elided. An error aborts this call only.
func (t *Template) Expand(vars map[string]any) (string, error) {
	return t.ExpandContext(context.Background(), vars)
}

// ExpandContext is Expand with a context for metrics attribution.
func (t *Template) ExpandContext(ctx context.Context, vars map[string]any) (string, error) {
	start := time.Now()
	out, err := t.expand(vars)
	t.metrics.RecordExpand(ctx, time.Since(start), err)
	if err != nil {
		t.logger.Debug(LogMsgExpandFailed, zap.String(LogFieldSource, t.source), zap.Error(err))
		return "", err
	}
	return out, nil
}

func (t *Template) expand(vars map[string]any) (string, error) {
	out, err := t.renderer.Render(t.chunks, vars, t.bindings)
	if err != nil {
		return "", wrapTemplateError(err, ErrMsgExpandFailed)
	}
	if !internal.IsURISafe(out) {
		return "", NewInvalidURIError(out, nil)
	}
	return out, nil
}

// ExpandURL expands the template and parses the result as a URI reference.
func (t *Template) ExpandURL(vars map[string]any) (*url.URL, error) {
	out, err := t.Expand(vars)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(out)
	if err != nil {
		return nil, NewInvalidURIError(out, err)
	}
	return u, nil
}

// Expressions describes the parsed expressions in source order
func (t *Template) Expressions() []ExpressionInfo {
	var infos []ExpressionInfo
	for _, c := range t.chunks {
		expr, ok := c.(*internal.Expression)
		if !ok {
			continue
		}
		info := ExpressionInfo{
			Source:    expr.Raw,
			Operator:  expr.Operator.String(),
			Style:     expr.Operator.Name(),
			Offset:    expr.Offset,
			Variables: make([]VarSpecInfo, len(expr.VarSpecs)),
		}
		for i, vs := range expr.VarSpecs {
			info.Variables[i] = VarSpecInfo{Name: vs.Name, Explode: vs.Explode, Prefix: vs.Prefix}
		}
		infos = append(infos, info)
	}
	return infos
}

// VariableNames returns each variable name once, in order of first use
func (t *Template) VariableNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range t.chunks {
		expr, ok := c.(*internal.Expression)
		if !ok {
			continue
		}
		for _, name := range expr.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// HasVariable reports whether the template references name
func (t *Template) HasVariable(name string) bool {
	for _, n := range t.VariableNames() {
		if n == name {
			return true
		}
	}
	return false
}
