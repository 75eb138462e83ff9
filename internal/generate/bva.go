package generate

import (
	"regexp"
	"strconv"
	"strings"
)

// Java integer bounds, as the generated tests will express them.
const (
	javaIntMax = 2147483647
	javaIntMin = -2147483648
)

var constraintNumRe = regexp.MustCompile(`\b\d+\b`)

// BoundaryValues produces boundary-value-analysis hint values for a single
// parameter, aware of Java types and common argument roles. The values are
// rendered as Java literals and attached to coverage generation requests so
// new tests probe the interesting edges.
func BoundaryValues(paramName, paramType, functionName, constraints string) []string {
	// Fallback/default parameters only vary near zero.
	if strings.Contains(strings.ToLower(paramName), "default") {
		return []string{"0", "1", "-1"}
	}

	fn := strings.ToLower(functionName)

	var values []string
	switch {
	case paramType == "String" && (strings.Contains(fn, "toint") || strings.Contains(fn, "parse")):
		// Strings destined for numeric parsing get overflow and junk inputs.
		return []string{
			"null", `""`, `" "`,
			`"0"`, `"1"`, `"-1"`,
			`"` + strconv.Itoa(javaIntMax) + `"`,
			`"` + strconv.Itoa(javaIntMin) + `"`,
			`"` + strconv.FormatInt(int64(javaIntMax)+1, 10) + `"`,
			`"` + strconv.FormatInt(int64(javaIntMin)-1, 10) + `"`,
			`"abc"`,
		}
	case paramType == "int" || paramType == "long":
		values = append(values, "0", "1", "-1",
			strconv.Itoa(javaIntMax), strconv.Itoa(javaIntMin))
	case paramType == "String":
		values = append(values, "null", `""`, `" "`, longStringLiteral(1000))
	case paramType == "boolean":
		return []string{"true", "false"}
	}

	// Constraint-derived neighbors: n-1, n, n+1 for every number mentioned.
	for _, m := range constraintNumRe.FindAllString(strings.ToLower(constraints), -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		values = append(values, strconv.Itoa(n-1), strconv.Itoa(n), strconv.Itoa(n+1))
	}

	return dedup(values)
}

// DefaultBoundaryHints returns a generic hint set covering the common
// numeric and string edges, for coverage requests where no parameter
// signature is available.
func DefaultBoundaryHints() []string {
	return dedup(append(
		BoundaryValues("value", "int", "", ""),
		BoundaryValues("value", "String", "", "")...,
	))
}

func longStringLiteral(n int) string {
	return `"` + strings.Repeat("a", n) + `"`
}

// dedup removes duplicates while preserving first-seen order.
func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
