// Package uritemplate implements RFC 6570 URI Templates, levels 1 through 4,
// for building request URIs from declarative endpoint contracts.
//
// A template mixes literal text with expressions in braces:
//
//	https://api.example.com/users/{id}{?fields,limit}
//
// # Basic Usage
//
// Parse once, expand many times:
//
//	tmpl := uritemplate.MustParse("/search{?q,lang}")
//	uri, err := tmpl.Expand(map[string]any{"q": "hello world", "lang": "en"})
//	// uri: "/search?q=hello%20world&lang=en"
//
// # Operators
//
// The first character of an expression selects how values are joined and
// encoded:
//
//	{var}    simple string expansion
//	{+var}   reserved expansion, reserved characters pass through
//	{#var}   fragment expansion
//	{.var}   label expansion
//	{/var}   path segments
//	{;var}   path-style parameters
//	{?var}   form-style query
//	{&var}   query continuation
//
// Each variable may carry a prefix modifier ({var:3}) or the explode
// modifier ({list*}).
//
// # Values
//
// Strings, numbers, booleans and fmt.Stringer values are scalars. Slices are
// lists, maps with string keys are associative arrays (expanded in sorted key
// order), and Map keeps insertion order. Types implementing PropertySource
// expand as composites whose nested properties flatten to "parent.child"
// keys. Missing and nil values are undefined and elided.
//
// # Custom Expanders
//
// Bind a variable to an Expander to control how its value is rendered:
//
//	upper := uritemplate.ExpanderFunc(func(v uritemplate.Variable, value any) (uritemplate.Fragment, error) {
//	    return v.Render(strings.ToUpper(fmt.Sprint(value)))
//	})
//
//	engine := uritemplate.MustNew(uritemplate.WithExpander("upper", upper))
//	tmpl, _ := engine.Parse("/tags/{tag}", uritemplate.NamedParam("tag", "upper"))
//
// # Error Handling
//
// Errors are *cuserr.CustomError values carrying the error kind and the
// source offset as metadata:
//
//	_, err := uritemplate.Parse("/x{list:abc}")
//	if uritemplate.IsSyntaxError(err) {
//	    offset := uritemplate.ErrorOffset(err)
//	}
//
// # Configuration
//
// Customize the engine with functional options:
//
//	engine, _ := uritemplate.New(
//	    uritemplate.WithLogger(logger),
//	    uritemplate.WithCacheTTL(time.Hour),
//	    uritemplate.WithMetrics(uritemplate.NewMetricsRecorder()),
//	)
package uritemplate
