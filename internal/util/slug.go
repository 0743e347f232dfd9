// Package util provides text normalisation helpers shared by the store, search and services.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of characters that are not lowercase ASCII letters or digits.
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)

	// Strips combining marks after NFKD decomposition ("Sérénité" -> "Serenite").
	stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify converts a category or emotion label to the keyword used for exact
// matching in the search index.
//
//	"Personal Growth" -> "personal-growth"
//	"Gratitude"       -> "gratitude"
//	"Sérénité"        -> "serenite"
//	"  --Mindset!! "  -> "mindset"
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	// Drop anything still outside ASCII.
	folded = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)

	folded = strings.ToLower(folded)
	folded = nonAlphanumericRe.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// NormalizeEmail lower-cases and trims an email address. Emails are the
// user key, so every comparison goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAllOrEmpty reports whether a list filter value means "no filter".
// The web client sends "All" for an unselected dropdown.
func IsAllOrEmpty(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}
