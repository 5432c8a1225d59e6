// Package depfilter compiles textual dependency search filters like
// "Newtonsoft.Json", "Newtonsoft.Json:12.0", or "Foo:>=4" into
// structured match predicates.
package depfilter

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Operator is the range comparison a filter applies to the target's
// version.
type Operator int

const (
	// OpUnspecified means no recognized range operator: an absent version
	// matches anything, a present one matches by prefix.
	OpUnspecified Operator = iota
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
)

func (o Operator) String() string {
	switch o {
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	default:
		return ""
	}
}

// Filter is one parsed dependency filter. If Version is empty, Op is
// always OpUnspecified.
type Filter struct {
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Op      Operator `json:"op"`
}

// operatorPrefix captures a leading non-word run of the version
// expression; the remainder is the version literal.
var operatorPrefix = regexp.MustCompile(`^(\W+)(.*)$`)

var operators = map[string]Operator{
	">":  OpGreaterThan,
	">=": OpGreaterOrEqual,
	"<":  OpLessThan,
	"<=": OpLessOrEqual,
}

// Parse compiles one textual filter. The grammar is
// <name>[:<version-expr>] where <version-expr> optionally begins with a
// range operator (>, >=, <, <=).
//
// An unrecognized operator prefix is not rejected: it stays part of the
// version literal and the filter degrades to a prefix match that will
// simply never fire. That mirrors long-standing observed behavior; see
// TestParseKeepsUnrecognizedOperatorPrefix before changing it.
func Parse(input string) Filter {
	name, expr, hasVersion := strings.Cut(input, ":")
	f := Filter{Name: name}
	if !hasVersion || expr == "" {
		return f
	}

	if m := operatorPrefix.FindStringSubmatch(expr); m != nil {
		if op, ok := operators[m[1]]; ok {
			f.Op = op
			f.Version = m[2]
			return f
		}
	}

	f.Version = expr
	return f
}

// ParseAll compiles each filter string; multiple filters combine with
// AND semantics at the search layer.
func ParseAll(inputs []string) []Filter {
	filters := make([]Filter, 0, len(inputs))
	for _, in := range inputs {
		filters = append(filters, Parse(in))
	}
	return filters
}

// Matches reports whether a dependency with the given name and version
// satisfies the filter. Name comparison is case-insensitive, matching
// how package ecosystems treat identifiers.
func (f Filter) Matches(name, version string) bool {
	if !strings.EqualFold(f.Name, name) {
		return false
	}
	return f.MatchesVersion(version)
}

// MatchesVersion applies only the version predicate.
func (f Filter) MatchesVersion(version string) bool {
	if f.Version == "" {
		return true
	}

	if f.Op == OpUnspecified {
		// Prefix match: "4.6" matches "4.6.0" and "4.6.2" but not
		// "4.7.0". Exact equality is the degenerate case of the same
		// rule.
		return strings.HasPrefix(version, f.Version)
	}

	want, err := semver.NewVersion(f.Version)
	if err != nil {
		return false
	}
	have, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	switch f.Op {
	case OpGreaterThan:
		return have.GreaterThan(want)
	case OpGreaterOrEqual:
		return have.GreaterThan(want) || have.Equal(want)
	case OpLessThan:
		return have.LessThan(want)
	case OpLessOrEqual:
		return have.LessThan(want) || have.Equal(want)
	default:
		return false
	}
}
