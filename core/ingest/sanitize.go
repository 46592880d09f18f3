package ingest

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	invalidKeyChars    = regexp.MustCompile(`[^A-Za-z0-9.\-_]`)
	underscoreRuns     = regexp.MustCompile(`_+`)
)

// Sanitize turns an arbitrary title into a storage-key-safe name: diacritics
// are stripped, anything outside [A-Za-z0-9.-_] becomes an underscore, and
// runs of underscores collapse into one. The function is idempotent and is
// the single rule applied wherever a title becomes a storage key.
func Sanitize(name string) string {
	clean, _, err := transform.String(diacriticsStripper, name)
	if err != nil {
		clean = name
	}
	clean = invalidKeyChars.ReplaceAllString(clean, "_")
	return underscoreRuns.ReplaceAllString(clean, "_")
}
