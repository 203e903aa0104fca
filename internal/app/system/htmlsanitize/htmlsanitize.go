// Package htmlsanitize cleans user-supplied rich text (ticket descriptions,
// announcement content, business descriptions) before it is stored.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func get() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "p", "span")
		p.AllowElements("u", "s", "mark")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, unsafe URLs and disallowed
// elements, keeping ordinary formatting.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return get().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for html/template.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all markup, for plain-text fields like titles.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(s))
}

// IsPlainText reports whether s has no tag-like content ("5 < 10" is plain).
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and turns newlines into <br> inside one <p>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	esc := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return "<p>" + strings.ReplaceAll(esc, "\n", "<br>") + "</p>"
}

// Prepare sanitizes markup and converts plain text, so stored content is
// always safe HTML.
func Prepare(s string) string {
	if IsPlainText(s) {
		return PlainTextToHTML(strings.TrimSpace(s))
	}
	return Sanitize(s)
}
