package store

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const excerptWords = 40

var (
	bodyPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// sanitizeBody keeps the safe subset of HTML a seller description may
// carry and drops everything else.
func sanitizeBody(description string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(description))
}

// excerpt reduces a description to plain text truncated at 40 words.
func excerpt(description string) string {
	plain := html.UnescapeString(plainPolicy.Sanitize(description))
	words := strings.Fields(plain)

	if len(words) <= excerptWords {
		return strings.Join(words, " ")
	}

	return strings.Join(words[:excerptWords], " ") + "…"
}

// plainText strips all markup from a string, used for display names.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}
