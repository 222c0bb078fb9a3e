package internal

// Operator is the leading character of an expression. OperatorNone marks a
// simple (level 1) expression.
type Operator byte

// Operator constants
const (
	OperatorNone              Operator = 0
	OperatorReserved          Operator = '+'
	OperatorFragment          Operator = '#'
	OperatorLabel             Operator = '.'
	OperatorPathSegment       Operator = '/'
	OperatorPathParameter     Operator = ';'
	OperatorQuery             Operator = '?'
	OperatorQueryContinuation Operator = '&'
)

// Operator names for debugging and introspection
const (
	OperatorNameNone              = "simple"
	OperatorNameReserved          = "reserved"
	OperatorNameFragment          = "fragment"
	OperatorNameLabel             = "label"
	OperatorNamePathSegment       = "path"
	OperatorNamePathParameter     = "path-parameter"
	OperatorNameQuery             = "query"
	OperatorNameQueryContinuation = "query-continuation"
)

// String returns the operator character, or "" for a simple expression
func (o Operator) String() string {
	if o == OperatorNone {
		return StrEmpty
	}
	return string(rune(o))
}

// Name returns a descriptive operator name
func (o Operator) Name() string {
	switch o {
	case OperatorReserved:
		return OperatorNameReserved
	case OperatorFragment:
		return OperatorNameFragment
	case OperatorLabel:
		return OperatorNameLabel
	case OperatorPathSegment:
		return OperatorNamePathSegment
	case OperatorPathParameter:
		return OperatorNamePathParameter
	case OperatorQuery:
		return OperatorNameQuery
	case OperatorQueryContinuation:
		return OperatorNameQueryContinuation
	default:
		return OperatorNameNone
	}
}

// Policy is the immutable rule set an operator applies during expansion.
type Policy struct {
	operator           Operator
	prefix             string
	delimiter          string
	emptyPairSeparator string
	named              bool
	allowReserved      bool
}

// Operator returns the operator this policy belongs to
func (p *Policy) Operator() Operator { return p.operator }

// Prefix is prepended once to a non-empty expansion.
func (p *Policy) Prefix() string { return p.prefix }

// Delimiter joins exploded members and separate varspecs.
func (p *Policy) Delimiter() string { return p.delimiter }

// EmptyPairSeparator follows a bare name when a named value is empty.
func (p *Policy) EmptyPairSeparator() string { return p.emptyPairSeparator }

// Named reports whether values render as name=value pairs.
func (p *Policy) Named() bool { return p.named }

// AllowReserved reports whether reserved characters pass through unescaped.
func (p *Policy) AllowReserved() bool { return p.allowReserved }

var (
	policySimple = &Policy{
		operator:  OperatorNone,
		delimiter: StrComma,
	}
	policyReserved = &Policy{
		operator:      OperatorReserved,
		delimiter:     StrComma,
		allowReserved: true,
	}
	policyFragment = &Policy{
		operator:      OperatorFragment,
		prefix:        "#",
		delimiter:     StrComma,
		allowReserved: true,
	}
	policyLabel = &Policy{
		operator:  OperatorLabel,
		prefix:    ".",
		delimiter: ".",
	}
	policyPathSegment = &Policy{
		operator:  OperatorPathSegment,
		prefix:    "/",
		delimiter: "/",
	}
	policyPathParameter = &Policy{
		operator:  OperatorPathParameter,
		prefix:    ";",
		delimiter: ";",
		named:     true,
	}
	policyQuery = &Policy{
		operator:           OperatorQuery,
		prefix:             "?",
		delimiter:          "&",
		emptyPairSeparator: StrEquals,
		named:              true,
	}
	policyQueryContinuation = &Policy{
		operator:           OperatorQueryContinuation,
		prefix:             "&",
		delimiter:          "&",
		emptyPairSeparator: StrEquals,
		named:              true,
	}
)

// PolicyFor returns the shared policy for an operator. Unknown operators
// get the simple policy; the parser never produces them.
func PolicyFor(op Operator) *Policy {
	switch op {
	case OperatorReserved:
		return policyReserved
	case OperatorFragment:
		return policyFragment
	case OperatorLabel:
		return policyLabel
	case OperatorPathSegment:
		return policyPathSegment
	case OperatorPathParameter:
		return policyPathParameter
	case OperatorQuery:
		return policyQuery
	case OperatorQueryContinuation:
		return policyQueryContinuation
	default:
		return policySimple
	}
}

// Policies returns every policy, simple first.
func Policies() []*Policy {
	return []*Policy{
		policySimple,
		policyReserved,
		policyFragment,
		policyLabel,
		policyPathSegment,
		policyPathParameter,
		policyQuery,
		policyQueryContinuation,
	}
}
