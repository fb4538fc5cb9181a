package parse

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const snippetLimit = 100

var stripPolicy = bluemonday.StrictPolicy()

// Snippet strips markup from a description or summary, collapses
// whitespace, and truncates to 100 runes with an ellipsis marker.
func Snippet(content string) string {
	text := stripPolicy.Sanitize(content)
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= snippetLimit {
		return text
	}
	return string(runes[:snippetLimit]) + "…"
}
