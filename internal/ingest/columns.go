package ingest

import (
	"slices"

	"github.com/pscheid92/textpulse/internal/domain"
)

// DefaultTextColumns are the preferred names of the text column, in priority order.
var DefaultTextColumns = []string{"text", "Text", "content", "Content", "tweet", "Tweet", "review", "Review", "message", "Message"}

// Table is decoded tabular input: the declared field names in order and one
// map per row keyed by field name.
type Table struct {
	Fields []string
	Rows   []map[string]string
}

// DetectTextColumn returns the first candidate present in fields (exact,
// case-sensitive match). Without a match it falls back to the first field,
// unless that field has no name.
func DetectTextColumn(fields, candidates []string) (string, error) {
	for _, c := range candidates {
		if slices.Contains(fields, c) {
			return c, nil
		}
	}
	if len(fields) > 0 && fields[0] != "" {
		return fields[0], nil
	}
	return "", domain.ErrNoTextColumn
}
