// Package importer parses external event exports, reconciles them against
// the local catalog, deduplicates them against stored events, and commits
// the merged result in one transaction.
package importer

import "strings"

// SplitFields splits one line of delimited text into trimmed fields.
// A double quote toggles quoted mode so commas inside quoted fields are not
// separators. Embedded quote escaping is not supported: the producing
// exporter substitutes commas and newlines out of free-text fields instead
// of quoting them, so it never emits embedded quotes. Unmatched quotes are
// accepted as toggled-but-unmatched. Never fails; an empty line yields nil.
func SplitFields(line string) []string {
	if line == "" {
		return nil
	}

	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}
