package normalize

import (
	"strings"

	"opportunity-finder/models"
)

// sourceFields maps each source type to the raw payload fields that carry
// usable text, in the order they are concatenated. Unknown source types fall
// back to the common field names.
var sourceFields = map[string][]string{
	"reddit":     {"title", "selftext"},
	"hackernews": {"title", "text"},
	"g2":         {"review_text"},
	"linkedin":   {"title", "description"},
	"newsletter": {"title", "summary", "content"},
}

var fallbackFields = []string{"title", "text", "content", "body", "description"}

// ExtractTextContent assembles the text blob for one raw item based on its
// source type.
func ExtractTextContent(item *models.RawItem) string {
	fields, ok := sourceFields[item.SourceType]
	if !ok {
		fields = fallbackFields
	}

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if v, ok := item.RawData[field].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
