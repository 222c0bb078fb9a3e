package uritemplate

import "github.com/itsatony/go-uritemplate/internal"

// Encoded is a string that is already percent-encoded. It is inserted as is:
// never truncated by a prefix modifier and never encoded again.
type Encoded = internal.Encoded

// List is an ordered sequence of values. Any Go slice or array works as a
// list; List is a convenience for mixed member types.
type List = internal.List

// Pair is one entry of an ordered Map.
type Pair = internal.Pair

// Map is an ordered set of entries. Go maps with string keys are accepted
// as well and expand in sorted key order.
type Map = internal.Map

// Property is one named value of a PropertySource.
type Property = internal.Property

// PropertySource is implemented by composite values. Properties are expanded
// as map entries; nested sources flatten to "parent.child" keys.
//
//	type Address struct{ City, Zip string }
//
//	func (a Address) URIProperties() []uritemplate.Property {
//	    return []uritemplate.Property{{Name: "city", Value: a.City}, {Name: "zip", Value: a.Zip}}
//	}
type PropertySource = internal.PropertySource

// Fragment is the tri-state result of expanding one variable: undefined
// (elided from the output), empty, or text.
type Fragment = internal.Fragment

// Undefined returns a fragment that contributes nothing to the expansion
func Undefined() Fragment { return internal.UndefinedFragment() }

// Empty returns a defined fragment with no text
func Empty() Fragment { return internal.EmptyFragment() }

// Text returns a fragment holding already encoded text. Text("") is Empty.
func Text(s string) Fragment { return internal.TextFragment(s) }

// Pairs builds an ordered Map from alternating keys and values.
// A trailing key without a value is ignored.
func Pairs(kv ...any) Map {
	m := make(Map, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		m = append(m, Pair{Key: key, Value: kv[i+1]})
	}
	return m
}
