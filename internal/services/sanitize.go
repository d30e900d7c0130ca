package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer policies for user-submitted text. Plain fields (names,
// titles, reasons) are stripped to text; story bodies keep basic
// formatting.
var (
	plainPolicy = bluemonday.StrictPolicy()
	bodyPolicy  = newBodyPolicy()
)

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("h2", "h3", "h4")
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// SanitizePlain strips all markup from a single-line field.
func SanitizePlain(s string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// SanitizeBody keeps basic formatting in long-form content.
func SanitizeBody(s string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(s))
}
