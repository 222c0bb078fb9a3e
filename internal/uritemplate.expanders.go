package internal

import (
	"reflect"
	"strings"
)

// Expander renders one runtime value for one varspec. Implementations must
// be stateless and safe for concurrent use.
type Expander interface {
	Expand(v *Variable, value any) (Fragment, error)
}

// ExpanderFunc adapts a function to the Expander interface
type ExpanderFunc func(v *Variable, value any) (Fragment, error)

// Expand calls f
func (f ExpanderFunc) Expand(v *Variable, value any) (Fragment, error) {
	return f(v, value)
}

// Variable is the context an expander works in: the varspec being expanded
// and the policy of the enclosing expression.
type Variable struct {
	Spec     VarSpec
	Policy   *Policy
	registry *Registry
	depth    int
}

// NewVariable creates an expansion context backed by registry
func NewVariable(spec VarSpec, policy *Policy, registry *Registry) *Variable {
	return &Variable{Spec: spec, Policy: policy, registry: registry}
}

// Render expands value with the built-in expander for its shape.
func (v *Variable) Render(value any) (Fragment, error) {
	return v.registry.ForValue(value).Expand(v, value)
}

// nested returns a one-level-deeper context with the given spec.
func (v *Variable) nested(spec VarSpec) *Variable {
	return &Variable{Spec: spec, Policy: v.Policy, registry: v.registry, depth: v.depth + 1}
}

func (v *Variable) encode(s string) string {
	return Encode(s, v.Policy.AllowReserved())
}

// named renders name=text, or name plus the empty-pair separator when text
// is empty.
func (v *Variable) named(name, text string) string {
	if text == StrEmpty {
		return name + v.Policy.EmptyPairSeparator()
	}
	return name + StrEquals + text
}

// memberText renders a list member or map value as encoded text. The second
// result is false for undefined members.
func (v *Variable) memberText(value any) (string, bool) {
	if isNil(value) {
		return StrEmpty, false
	}
	text, encoded := scalarString(value)
	if encoded {
		return text, true
	}
	return v.encode(text), true
}

type undefinedExpander struct{}

func (undefinedExpander) Expand(*Variable, any) (Fragment, error) {
	return UndefinedFragment(), nil
}

type scalarExpander struct{}

func (scalarExpander) Expand(v *Variable, value any) (Fragment, error) {
	if isNil(value) {
		return UndefinedFragment(), nil
	}
	text, encoded := scalarString(value)
	if !encoded {
		if v.Spec.HasPrefix() {
			text = Truncate(text, v.Spec.Prefix)
		}
		text = v.encode(text)
	}
	if v.Policy.Named() {
		return TextFragment(v.named(v.Spec.Name, text)), nil
	}
	return TextFragment(text), nil
}

type listExpander struct{}

func (listExpander) Expand(v *Variable, value any) (Fragment, error) {
	if v.Spec.HasPrefix() {
		return UndefinedFragment(), newPrefixOnCompositeError(v.Spec.Name)
	}

	items := listItems(value)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		text, ok := v.memberText(item)
		if !ok {
			continue
		}
		if v.Spec.Explode && v.Policy.Named() {
			text = v.named(v.Spec.Name, text)
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return UndefinedFragment(), nil
	}

	if v.Spec.Explode {
		return TextFragment(strings.Join(parts, v.Policy.Delimiter())), nil
	}
	joined := strings.Join(parts, StrComma)
	if v.Policy.Named() {
		return TextFragment(v.named(v.Spec.Name, joined)), nil
	}
	return TextFragment(joined), nil
}

type mapExpander struct{}

func (mapExpander) Expand(v *Variable, value any) (Fragment, error) {
	if v.Spec.HasPrefix() {
		return UndefinedFragment(), newPrefixOnCompositeError(v.Spec.Name)
	}
	return expandPairs(v, mapPairs(value))
}

func expandPairs(v *Variable, pairs []Pair) (Fragment, error) {
	parts := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		text, ok := v.memberText(pair.Value)
		if !ok {
			continue
		}
		key := v.encode(pair.Key)
		switch {
		case !v.Spec.Explode:
			parts = append(parts, key, text)
		case v.Policy.Named():
			parts = append(parts, v.named(key, text))
		default:
			parts = append(parts, key+StrEquals+text)
		}
	}
	if len(parts) == 0 {
		return UndefinedFragment(), nil
	}

	if v.Spec.Explode {
		return TextFragment(strings.Join(parts, v.Policy.Delimiter())), nil
	}
	joined := strings.Join(parts, StrComma)
	if v.Policy.Named() {
		return TextFragment(v.named(v.Spec.Name, joined)), nil
	}
	return TextFragment(joined), nil
}

type compositeExpander struct{}

func (compositeExpander) Expand(v *Variable, value any) (Fragment, error) {
	if v.Spec.HasPrefix() {
		return UndefinedFragment(), newPrefixOnCompositeError(v.Spec.Name)
	}
	source, ok := value.(PropertySource)
	if !ok || isNil(value) {
		return UndefinedFragment(), nil
	}

	var pairs []Pair
	if err := flatten(v, source, StrEmpty, 0, &pairs); err != nil {
		return UndefinedFragment(), err
	}
	return expandPairs(v, pairs)
}

// flatten appends the properties of source to pairs, qualifying nested
// names with their parent. List and map leaves are rendered with a simple
// unexploded context and inserted as Encoded text.
func flatten(v *Variable, source PropertySource, prefix string, depth int, pairs *[]Pair) error {
	if v.depth+depth >= MaxCompositeDepth {
		return newExpansionError(ErrMsgCompositeTooDeep, v.Spec.Name, nil)
	}
	for _, prop := range source.URIProperties() {
		name := prop.Name
		if prefix != StrEmpty {
			name = prefix + StrPathSep + prop.Name
		}
		if isNil(prop.Value) {
			continue
		}

		switch shapeOf(reflect.TypeOf(prop.Value)) {
		case ShapeComposite:
			if err := flatten(v, prop.Value.(PropertySource), name, depth+1, pairs); err != nil {
				return err
			}
		case ShapeList, ShapeMap, ShapePointer:
			leaf := v.nested(VarSpec{Name: name, Prefix: NoPrefix})
			leaf.Policy = policySimple
			if v.Policy.AllowReserved() {
				leaf.Policy = policyReserved
			}
			frag, err := leaf.Render(prop.Value)
			if err != nil {
				return err
			}
			if frag.IsUndefined() {
				continue
			}
			*pairs = append(*pairs, Pair{Key: name, Value: Encoded(frag.String())})
		default:
			*pairs = append(*pairs, Pair{Key: name, Value: prop.Value})
		}
	}
	return nil
}

type pointerExpander struct{}

func (pointerExpander) Expand(v *Variable, value any) (Fragment, error) {
	if isNil(value) {
		return UndefinedFragment(), nil
	}
	if v.depth >= MaxCompositeDepth {
		return UndefinedFragment(), newExpansionError(ErrMsgCompositeTooDeep, v.Spec.Name, nil)
	}
	elem := reflect.ValueOf(value).Elem().Interface()
	return v.nested(v.Spec).Render(elem)
}
