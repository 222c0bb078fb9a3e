package uritemplate

import (
	"github.com/itsatony/go-uritemplate/internal"
)

// Expander renders a variable value. It replaces the built-in shape based
// expansion for the variables it is bound to with a Parameter.
//
// Implementations must be safe for concurrent use. The returned fragment
// text is inserted without further encoding; use Variable.Render or
// Variable.Encode to produce correctly encoded output.
type Expander interface {
	Expand(v Variable, value any) (Fragment, error)
}

// ExpanderFunc adapts a function to the Expander interface
type ExpanderFunc func(v Variable, value any) (Fragment, error)

// Expand calls f
func (f ExpanderFunc) Expand(v Variable, value any) (Fragment, error) {
	return f(v, value)
}

// ExpanderFactory lazily creates a named expander. It runs at most once
// successfully per engine.
type ExpanderFactory func() (Expander, error)

// Variable describes the variable being expanded.
type Variable struct {
	inner *internal.Variable
}

// Name returns the variable name
func (v Variable) Name() string { return v.inner.Spec.Name }

// Explode reports whether the * modifier was given
func (v Variable) Explode() bool { return v.inner.Spec.Explode }

// Prefix returns the :N modifier, or -1 when absent
func (v Variable) Prefix() int { return v.inner.Spec.Prefix }

// Operator returns the expression operator, "" for simple expressions
func (v Variable) Operator() string { return v.inner.Policy.Operator().String() }

// Named reports whether the operator renders name=value pairs
func (v Variable) Named() bool { return v.inner.Policy.Named() }

// Render expands value with the built-in expander for its shape. Custom
// expanders typically convert their value and delegate here.
func (v Variable) Render(value any) (Fragment, error) {
	return v.inner.Render(value)
}

// Encode percent-encodes s using the operator's reserved-character rule
func (v Variable) Encode(s string) string {
	return internal.Encode(s, v.inner.Policy.AllowReserved())
}

// Parameter binds a template variable to a custom expander, given either
// directly or by the name it was registered under with the engine.
type Parameter struct {
	Variable     string
	Expander     Expander
	ExpanderName string
}

// Param binds variable to expander
func Param(variable string, expander Expander) Parameter {
	return Parameter{Variable: variable, Expander: expander}
}

// NamedParam binds variable to the engine expander registered as name
func NamedParam(variable, name string) Parameter {
	return Parameter{Variable: variable, ExpanderName: name}
}

// expanderAdapter wraps a public Expander to implement internal.Expander
type expanderAdapter struct {
	expander Expander
}

func (a *expanderAdapter) Expand(v *internal.Variable, value any) (Fragment, error) {
	return a.expander.Expand(Variable{inner: v}, value)
}

func adaptExpander(e Expander) internal.Expander {
	if e == nil {
		return nil
	}
	return &expanderAdapter{expander: e}
}

func adaptFactory(f ExpanderFactory) internal.ExpanderFactory {
	if f == nil {
		return nil
	}
	return func() (internal.Expander, error) {
		e, err := f()
		if err != nil || e == nil {
			return nil, err
		}
		return adaptExpander(e), nil
	}
}
