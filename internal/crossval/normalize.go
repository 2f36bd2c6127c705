// Package crossval compares claim records against one another and the
// authenticity result, producing the discrete issues that drive the
// final decision.
package crossval

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// titles are honorifics stripped from names before comparison
var titles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true,
	"dr": true, "prof": true, "eng": true,
	"m": true, "mme": true, "mlle": true, "si": true,
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName case-folds a person name, strips diacritics and
// honorific titles, and collapses whitespace, so that spelling-level
// similarity is measured on comparable strings.
func NormalizeName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var kept []string
	for _, token := range strings.Fields(folded) {
		token = strings.Trim(token, ".,")
		if token == "" || titles[token] {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
