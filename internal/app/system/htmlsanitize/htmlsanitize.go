// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Post bodies and community descriptions arrive from clients as HTML-ish
// text. Everything user-supplied passes through here before it is stored.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ugc allows the usual formatting for user-generated content (paragraphs,
// emphasis, lists, links with forced rel=nofollow) and strips scripts,
// event handlers, and unsafe protocols.
var ugc = bluemonday.UGCPolicy()

// strict strips all markup. Used for single-line fields such as display
// names, community names, and event titles.
var strict = bluemonday.StrictPolicy()

// Sanitize cleans rich text, keeping safe formatting.
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}

// StripTags removes all markup and trims surrounding whitespace.
func StripTags(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
