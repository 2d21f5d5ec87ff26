// Package normalize provides canonical forms for user-supplied names.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of non-alphanumeric characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Tag converts user input to the canonical tag name.
// The normalized form is the source of truth for tag identity: at most one
// tag row exists per (user, normalized name).
//
// Rules:
//  1. Unicode-decompose and strip non-ASCII
//  2. Trim and lowercase
//  3. Replace non-alphanumeric runs with hyphens
//  4. Collapse and trim hyphens
//
// Examples:
//
//	"Cooking"      → "cooking"
//	" Slow Burn "  → "slow-burn"
//	"Café Vibes"   → "cafe-vibes"
//	"🎬 Film!"     → "film"
func Tag(input string) string {
	s := norm.NFKD.String(input)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	return s
}

// Collection trims a collection name without changing its case.
// Collection names are verbatim labels: "Recipes" and "recipes" are distinct
// rows, unlike tags which share a normalized namespace.
func Collection(input string) string {
	return strings.TrimSpace(input)
}
