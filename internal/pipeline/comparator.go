package pipeline

import "strconv"

// Comparator decides whether an assertion's actual value satisfies its
// expected value or threshold.
type Comparator string

const (
	Equals         Comparator = "eq"
	GreaterOrEqual Comparator = "ge"
	LessOrEqual    Comparator = "le"
)

func (c Comparator) Valid() bool {
	switch c {
	case Equals, GreaterOrEqual, LessOrEqual:
		return true
	}
	return false
}

func (c Comparator) Compare(actual, expected float64) bool {
	switch c {
	case Equals:
		return actual == expected
	case GreaterOrEqual:
		return actual >= expected
	case LessOrEqual:
		return actual <= expected
	}
	return false
}

func (c Comparator) String() string {
	switch c {
	case GreaterOrEqual:
		return ">="
	case LessOrEqual:
		return "<="
	}
	return "=="
}

// Describe renders the expectation for failure reasons: "0" for an exact
// match, ">= 95" for a threshold.
func (c Comparator) Describe(expected float64) string {
	if c == Equals {
		return formatNumber(expected)
	}
	return c.String() + " " + formatNumber(expected)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
