package uritemplate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itsatony/go-uritemplate/internal"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Engine is the main entry point for parsing and expanding URI templates.
// It owns the expander registry, the parsed-template cache and the named
// template set. An Engine is safe for concurrent use.
type Engine struct {
	registry  *internal.Registry
	renderer  *internal.Renderer
	cache     *gocache.Cache // nil when disabled
	templates map[string]*Template
	tmplMu    sync.RWMutex
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := internal.NewRegistry(logger)
	e := &Engine{
		registry:  registry,
		renderer:  internal.NewRenderer(registry, logger),
		templates: make(map[string]*Template),
		metrics:   config.metrics,
		logger:    logger,
	}
	if !config.cacheDisabled {
		ttl := config.cacheTTL
		if ttl <= 0 {
			ttl = gocache.NoExpiration
		}
		e.cache = gocache.New(ttl, config.cacheCleanup)
	}

	for _, ne := range config.expanders {
		if err := e.RegisterExpander(ne.name, ne.expander); err != nil {
			return nil, err
		}
	}
	for _, nf := range config.factories {
		if err := e.RegisterExpanderFactory(nf.name, nf.factory); err != nil {
			return nil, err
		}
	}

	logger.Debug(LogMsgEngineCreated)
	return e, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Parse parses a template source. Templates without parameters are served
// from the engine cache. Named expanders in params are resolved now; a
// missing expander fails the parse.
func (e *Engine) Parse(source string, params ...Parameter) (*Template, error) {
	if len(params) == 0 && e.cache != nil {
		if cached, ok := e.cache.Get(source); ok {
			e.logger.Debug(LogMsgTemplateCacheHit, zap.String(LogFieldSource, source))
			return cached.(*Template), nil
		}
		e.logger.Debug(LogMsgTemplateCacheMiss, zap.String(LogFieldSource, source))
	}

	start := time.Now()
	tmpl, err := e.parse(source, params)
	e.metrics.RecordParse(context.Background(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if len(params) == 0 && e.cache != nil {
		e.cache.Set(source, tmpl, gocache.DefaultExpiration)
	}
	e.logger.Debug(LogMsgTemplateParsed,
		zap.String(LogFieldSource, source),
		zap.Int(LogFieldParams, len(params)))
	return tmpl, nil
}

func (e *Engine) parse(source string, params []Parameter) (*Template, error) {
	chunks, err := internal.ParseTemplate(source, e.logger)
	if err != nil {
		return nil, wrapTemplateError(err, ErrMsgParseFailed)
	}

	var bindings internal.Bindings
	if len(params) > 0 {
		bindings, err = e.bind(chunks, params)
		if err != nil {
			return nil, err
		}
	}
	return newTemplate(source, chunks, bindings, e.renderer, e.metrics, e.logger), nil
}

// bind resolves parameters to internal expanders.
func (e *Engine) bind(chunks []internal.Chunk, params []Parameter) (internal.Bindings, error) {
	known := make(map[string]bool)
	for _, c := range chunks {
		if expr, ok := c.(*internal.Expression); ok {
			for _, name := range expr.Names() {
				known[name] = true
			}
		}
	}

	bindings := make(internal.Bindings, len(params))
	for _, p := range params {
		if p.Variable == "" {
			return nil, NewParameterError(ErrMsgParameterUnnamed, p.Variable)
		}
		if !known[p.Variable] {
			return nil, NewParameterError(ErrMsgUnknownVariable, p.Variable)
		}
		switch {
		case p.Expander != nil:
			bindings[p.Variable] = adaptExpander(p.Expander)
		case p.ExpanderName != "":
			expander, err := e.registry.Lookup(p.ExpanderName)
			if err != nil {
				return nil, wrapTemplateError(err, ErrMsgParseFailed)
			}
			bindings[p.Variable] = expander
		default:
			return nil, NewParameterError(ErrMsgParameterEmpty, p.Variable)
		}
	}
	return bindings, nil
}

// Expand is a convenience method that parses and expands in one step.
// Parsed templates are cached, so repeated calls with the same source
// parse once.
func (e *Engine) Expand(source string, vars map[string]any) (string, error) {
	tmpl, err := e.Parse(source)
	if err != nil {
		return "", err
	}
	return tmpl.Expand(vars)
}

// RegisterExpander adds a named expander. First registration wins; a
// collision returns an error and keeps the existing expander.
func (e *Engine) RegisterExpander(name string, expander Expander) error {
	if err := e.registry.Register(name, adaptExpander(expander)); err != nil {
		return NewExpanderRegistrationError(name, err)
	}
	return nil
}

// RegisterExpanderFactory adds a named expander created on first use.
func (e *Engine) RegisterExpanderFactory(name string, factory ExpanderFactory) error {
	if err := e.registry.RegisterFactory(name, adaptFactory(factory)); err != nil {
		return NewExpanderRegistrationError(name, err)
	}
	return nil
}

// MustRegisterExpander adds a named expander and panics if registration fails.
func (e *Engine) MustRegisterExpander(name string, expander Expander) {
	if err := e.RegisterExpander(name, expander); err != nil {
		panic(err)
	}
}

// HasExpander reports whether a named expander is registered
func (e *Engine) HasExpander(name string) bool {
	return e.registry.Has(name)
}

// ListExpanders returns all registered expander names in sorted order
func (e *Engine) ListExpanders() []string {
	return e.registry.Names()
}

// CacheSize returns the number of cached parsed templates
func (e *Engine) CacheSize() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.ItemCount()
}

// FlushCache removes all cached parsed templates
func (e *Engine) FlushCache() {
	if e.cache != nil {
		e.cache.Flush()
	}
}

// RegisterTemplate parses source and stores it under name for ExpandNamed.
// Names cannot be empty or use the reserved "uritemplate." prefix.
func (e *Engine) RegisterTemplate(name, source string, params ...Parameter) error {
	if name == "" {
		return NewTemplateNameError(ErrMsgTemplateNameEmpty, name)
	}
	if strings.HasPrefix(name, reservedNamespacePrefix) {
		return NewTemplateNameError(ErrMsgTemplateNameReserv, name)
	}

	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()

	if _, exists := e.templates[name]; exists {
		return NewTemplateExistsError(name)
	}

	tmpl, err := e.Parse(source, params...)
	if err != nil {
		return err
	}

	e.templates[name] = tmpl
	e.logger.Debug(LogMsgTemplateRegistered, zap.String(LogFieldName, name))
	return nil
}

// MustRegisterTemplate registers a template and panics on error.
func (e *Engine) MustRegisterTemplate(name, source string, params ...Parameter) {
	if err := e.RegisterTemplate(name, source, params...); err != nil {
		panic(err)
	}
}

// UnregisterTemplate removes a registered template by name.
// Returns true if the template existed and was removed, false otherwise.
func (e *Engine) UnregisterTemplate(name string) bool {
	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()

	if _, exists := e.templates[name]; exists {
		delete(e.templates, name)
		return true
	}
	return false
}

// GetTemplate retrieves a registered template by name.
func (e *Engine) GetTemplate(name string) (*Template, bool) {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()

	tmpl, ok := e.templates[name]
	return tmpl, ok
}

// HasTemplate checks if a template is registered with the given name.
func (e *Engine) HasTemplate(name string) bool {
	_, ok := e.GetTemplate(name)
	return ok
}

// ListTemplates returns all registered template names in sorted order.
func (e *Engine) ListTemplates() []string {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()

	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateCount returns the number of registered templates.
func (e *Engine) TemplateCount() int {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()

	return len(e.templates)
}

// ExpandNamed expands a template registered with RegisterTemplate.
func (e *Engine) ExpandNamed(name string, vars map[string]any) (string, error) {
	tmpl, ok := e.GetTemplate(name)
	if !ok {
		return "", NewTemplateNotFoundError(name)
	}
	return tmpl.Expand(vars)
}
