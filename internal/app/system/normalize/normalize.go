// Package normalize trims and case-folds user-supplied values before they are
// stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding space and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LoginID trims a login id. Comparison uses LoginIDCI.
func LoginID(s string) string {
	return strings.TrimSpace(s)
}

// LoginIDCI is the folded form stored in login_id_ci.
func LoginIDCI(s string) string {
	return text.Fold(LoginID(s))
}

// Status lowercases and trims a status value. Unknown values pass through;
// callers validate.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value and drops the literal "undefined"
// some clients send for empty fields.
func QueryParam(s string) string {
	s = strings.TrimSpace(s)
	if s == "undefined" || s == "null" {
		return ""
	}
	return s
}
