package internal

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ExpanderFactory creates a named expander on first use.
type ExpanderFactory func() (Expander, error)

// Registry maps value shapes to built-in expanders and names to custom
// expanders. The shape cache is append-only and keyed by exact runtime
// type; named registration is first-come-wins. Safe for concurrent use.
type Registry struct {
	shapes     sync.Map // reflect.Type -> Expander
	shapeCount atomic.Int64

	mu        sync.RWMutex
	named     map[string]Expander
	factories map[string]ExpanderFactory
	logger    *zap.Logger
}

var builtinExpanders = map[Shape]Expander{
	ShapeUndefined: undefinedExpander{},
	ShapeScalar:    scalarExpander{},
	ShapeList:      listExpander{},
	ShapeMap:       mapExpander{},
	ShapeComposite: compositeExpander{},
	ShapePointer:   pointerExpander{},
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry{
		named:     make(map[string]Expander),
		factories: make(map[string]ExpanderFactory),
		logger:    logger,
	}
}

// ForValue returns the built-in expander for the shape of value. Nil values
// (typed or untyped) get the undefined expander.
func (r *Registry) ForValue(value any) Expander {
	if isNil(value) {
		return builtinExpanders[ShapeUndefined]
	}
	t := reflect.TypeOf(value)
	if cached, ok := r.shapes.Load(t); ok {
		return cached.(Expander)
	}

	shape := shapeOf(t)
	actual, loaded := r.shapes.LoadOrStore(t, builtinExpanders[shape])
	if !loaded {
		r.shapeCount.Add(1)
		r.logger.Debug(LogMsgShapeCached,
			zap.String(LogFieldType, t.String()),
			zap.String(LogFieldShape, shape.String()))
	}
	return actual.(Expander)
}

// ShapeCount returns the number of distinct runtime types cached so far
func (r *Registry) ShapeCount() int {
	return int(r.shapeCount.Load())
}

// Register adds a named expander. A second registration under the same
// name is rejected and the first one is kept.
func (r *Registry) Register(name string, expander Expander) error {
	if expander == nil {
		return NewRegistryError(ErrMsgExpanderNil, name)
	}
	return r.add(name, func() { r.named[name] = expander })
}

// RegisterFactory adds a named expander that is instantiated on first lookup.
func (r *Registry) RegisterFactory(name string, factory ExpanderFactory) error {
	if factory == nil {
		return NewRegistryError(ErrMsgExpanderNil, name)
	}
	return r.add(name, func() { r.factories[name] = factory })
}

func (r *Registry) add(name string, store func()) error {
	if name == StrEmpty {
		return NewRegistryError(ErrMsgExpanderNameEmpty, StrEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasLocked(name) {
		r.logger.Warn(LogMsgExpanderCollision, zap.String(LogFieldExpander, name))
		return NewRegistryError(ErrMsgExpanderExists, name)
	}
	store()
	r.logger.Debug(LogMsgExpanderRegistered, zap.String(LogFieldExpander, name))
	return nil
}

func (r *Registry) hasLocked(name string) bool {
	if _, ok := r.named[name]; ok {
		return true
	}
	_, ok := r.factories[name]
	return ok
}

// Lookup resolves a named expander, running its factory on first use. The
// factory result is memoized; a failing factory is retried on the next
// lookup.
func (r *Registry) Lookup(name string) (Expander, error) {
	r.mu.RLock()
	expander, ok := r.named[name]
	r.mu.RUnlock()
	if ok {
		return expander, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if expander, ok := r.named[name]; ok {
		return expander, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, newLookupError(ErrMsgExpanderNotFound, name, nil)
	}
	expander, err := factory()
	if err != nil {
		return nil, newLookupError(ErrMsgExpanderFactory, name, err)
	}
	if expander == nil {
		return nil, newLookupError(ErrMsgExpanderFactory, name, NewRegistryError(ErrMsgExpanderNil, name))
	}

	r.named[name] = expander
	delete(r.factories, name)
	r.logger.Debug(LogMsgExpanderResolved, zap.String(LogFieldExpander, name))
	return expander, nil
}

// Has reports whether a named expander or factory is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasLocked(name)
}

// Names returns all registered expander names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.named)+len(r.factories))
	for name := range r.named {
		names = append(names, name)
	}
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered named expanders
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.named) + len(r.factories)
}

// RegistryError is returned when a registration is rejected
type RegistryError struct {
	Message string
	Name    string
}

// NewRegistryError creates a new registry error
func NewRegistryError(message, name string) *RegistryError {
	return &RegistryError{
		Message: message,
		Name:    name,
	}
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.Name != StrEmpty {
		return fmt.Sprintf("%s: %s", e.Message, e.Name)
	}
	return e.Message
}
