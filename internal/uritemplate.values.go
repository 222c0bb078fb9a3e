package internal

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Encoded is a value that is already percent-encoded. It is never truncated
// and never encoded again.
type Encoded string

// List is an ordered sequence of values.
type List []any

// Pair is one map entry.
type Pair struct {
	Key   string
	Value any
}

// Map is an ordered set of map entries. Keys are expected to be unique.
type Map []Pair

// Property is a named value exposed by a PropertySource.
type Property struct {
	Name  string
	Value any
}

// PropertySource is implemented by composite values. Nested sources are
// flattened to dotted keys.
type PropertySource interface {
	URIProperties() []Property
}

// FragmentState is the tri-state outcome of expanding one value.
type FragmentState uint8

// Fragment states
const (
	FragmentUndefined FragmentState = iota
	FragmentEmpty
	FragmentText
)

// Fragment is the result of expanding one varspec.
type Fragment struct {
	state FragmentState
	text  string
}

// UndefinedFragment contributes nothing to the expansion
func UndefinedFragment() Fragment { return Fragment{state: FragmentUndefined} }

// EmptyFragment is a defined value that rendered to the empty string
func EmptyFragment() Fragment { return Fragment{state: FragmentEmpty} }

// TextFragment holds rendered text; an empty string yields an EmptyFragment
func TextFragment(s string) Fragment {
	if s == StrEmpty {
		return EmptyFragment()
	}
	return Fragment{state: FragmentText, text: s}
}

// State returns the fragment state
func (f Fragment) State() FragmentState { return f.state }

// IsUndefined reports whether the fragment is undefined
func (f Fragment) IsUndefined() bool { return f.state == FragmentUndefined }

// String returns the rendered text, "" unless the state is FragmentText
func (f Fragment) String() string { return f.text }

// Shape is the structural kind of a runtime value.
type Shape uint8

// Value shapes
const (
	ShapeUndefined Shape = iota
	ShapeScalar
	ShapeList
	ShapeMap
	ShapeComposite
	ShapePointer
)

var shapeNames = [...]string{
	ShapeUndefined: "undefined",
	ShapeScalar:    "scalar",
	ShapeList:      "list",
	ShapeMap:       "map",
	ShapeComposite: "composite",
	ShapePointer:   "pointer",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return shapeNames[ShapeUndefined]
}

var (
	typeEncoded        = reflect.TypeOf(Encoded(""))
	typeBytes          = reflect.TypeOf([]byte(nil))
	typeStringer       = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	typePropertySource = reflect.TypeOf((*PropertySource)(nil)).Elem()
)

// shapeOf classifies a type. Composite and Stringer take precedence over
// the underlying kind.
func shapeOf(t reflect.Type) Shape {
	if t == nil {
		return ShapeUndefined
	}
	if t.Implements(typePropertySource) {
		return ShapeComposite
	}
	if t == typeEncoded || t == typeBytes || t.Implements(typeStringer) {
		return ShapeScalar
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t == reflect.TypeOf(Map(nil)) {
			return ShapeMap
		}
		return ShapeList
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return ShapeMap
		}
		return ShapeScalar
	case reflect.Pointer, reflect.Interface:
		return ShapePointer
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return ShapeUndefined
	default:
		return ShapeScalar
	}
}

// isNil reports whether value is nil or a typed nil.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// scalarString converts a scalar value to its unencoded text. The second
// result reports whether the text is already encoded.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case Encoded:
		return string(v), true
	case string:
		return v, false
	case []byte:
		return string(v), false
	case bool:
		return strconv.FormatBool(v), false
	case int:
		return strconv.Itoa(v), false
	case int64:
		return strconv.FormatInt(v, 10), false
	case uint64:
		return strconv.FormatUint(v, 10), false
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), false
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), false
	case fmt.Stringer:
		return v.String(), false
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), false
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), false
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), false
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), false
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), false
	}
	return fmt.Sprint(value), false
}

// listItems returns the members of a list-shaped value.
func listItems(value any) []any {
	switch v := value.(type) {
	case List:
		return v
	case []any:
		return v
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items
	}
	rv := reflect.ValueOf(value)
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// mapPairs returns the entries of a map-shaped value. Go maps are sorted by
// key, Map keeps its declared order.
func mapPairs(value any) []Pair {
	switch v := value.(type) {
	case Map:
		return v
	case map[string]string:
		pairs := make([]Pair, 0, len(v))
		for k, val := range v {
			pairs = append(pairs, Pair{Key: k, Value: val})
		}
		sortPairs(pairs)
		return pairs
	case map[string]any:
		pairs := make([]Pair, 0, len(v))
		for k, val := range v {
			pairs = append(pairs, Pair{Key: k, Value: val})
		}
		sortPairs(pairs)
		return pairs
	}
	rv := reflect.ValueOf(value)
	pairs := make([]Pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, Pair{Key: iter.Key().String(), Value: iter.Value().Interface()})
	}
	sortPairs(pairs)
	return pairs
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
}
