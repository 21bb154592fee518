package urn

import "strings"

// Escape doubles every single quote in value so it can be embedded in a
// quoted predicate literal.
//
// Example:
//
//	Escape("Sales")   // Sales
//	Escape("O'Brien") // O''Brien
//	Escape("''")      // ''''
func Escape(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// Unescape reverses Escape. A lone quote (one not followed by a second) is
// kept as is.
//
// Example:
//
//	Unescape("O''Brien") // O'Brien
//	Unescape("''''")     // ''
//	Unescape("it's")     // it's
func Unescape(value string) string {
	if !strings.Contains(value, "''") {
		return value
	}

	var sb strings.Builder
	sb.Grow(len(value))

	skip := false
	for _, c := range value {
		if c == '\'' {
			if skip {
				skip = false
				continue
			}
			skip = true
		} else {
			skip = false
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// FormatPredicates renders predicates as the body of a segment filter, e.g.
// @Schema='dbo' and @Name='Orders'. Values are always quoted and escaped.
func FormatPredicates(preds []Predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = "@" + p.Attribute + "='" + Escape(p.Value) + "'"
	}
	return strings.Join(parts, " and ")
}
