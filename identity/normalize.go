// Package identity derives the canonical dedup key for a listing.
//
// The three sources abbreviate street types and directionals
// inconsistently ("100 Elm St" vs "100 Elm Street"), so raw address
// strings cannot be compared directly. Every address is reduced to a
// single canonical form before it is used as a store key.
package identity

import (
	"regexp"
	"strings"

	"github.com/gvsturm-ai/rental-hunter/models"
)

var (
	// Whole-token expansions to one canonical long form per suffix
	// and directional. Applied token-wise, never as substrings.
	tokenExpansions = map[string]string{
		"st":   "street",
		"str":  "street",
		"ave":  "avenue",
		"av":   "avenue",
		"blvd": "boulevard",
		"dr":   "drive",
		"rd":   "road",
		"ln":   "lane",
		"ct":   "court",
		"cir":  "circle",
		"pl":   "place",
		"pkwy": "parkway",
		"pky":  "parkway",
		"hwy":  "highway",
		"ter":  "terrace",
		"terr": "terrace",
		"sq":   "square",
		"cres": "crescent",
		"n":    "north",
		"no":   "north",
		"s":    "south",
		"e":    "east",
		"w":    "west",
		"ne":   "northeast",
		"nw":   "northwest",
		"se":   "southeast",
		"sw":   "southwest",
	}

	// Unit designators. The first one encountered in a street line,
	// and every token after it, is dropped: two units in the same
	// building dedup to the same key.
	unitTokens = map[string]bool{
		"apt":       true,
		"apartment": true,
		"unit":      true,
		"ste":       true,
		"suite":     true,
		"fl":        true,
		"floor":     true,
		"bldg":      true,
		"building":  true,
	}

	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeAddress maps a raw street line to its canonical form.
// Deterministic and total: malformed input still yields a key.
// Idempotent, since the output is already canonical.
func NormalizeAddress(addr string) string {
	return normalizeTokens(addr)
}

// CanonicalKey builds the dedup identity for a listing: the normalized
// street line plus a city/state tail. The tail is a place name, not a
// street, so suffix expansions and unit dropping never run on it:
// "St. Petersburg" must not become "street petersburg", and the state
// code "FL" must not be eaten as a floor designator. The zip is left
// out of the key; the markup fallbacks cannot always recover one, and
// a missing zip on one side must not split the identity.
func CanonicalKey(l *models.Listing) string {
	street := normalizeTokens(l.Address)
	locale := normalizeLocale(l.City + " " + l.State)
	return strings.TrimSpace(street + " " + locale)
}

func normalizeTokens(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// "#4" marks a unit; make it a token before punctuation is stripped
	s = strings.ReplaceAll(s, "#", " unit ")
	s = nonAlnumRegex.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if unitTokens[tok] {
			break
		}
		if full, ok := tokenExpansions[tok]; ok {
			tok = full
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// normalizeLocale reduces a city/state tail: lowercase, punctuation to
// spaces, collapsed whitespace. The one spelling the sources disagree
// on, "Saint" vs "St", collapses to the short form.
func normalizeLocale(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRegex.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if tok == "saint" {
			tokens[i] = "st"
		}
	}
	return strings.Join(tokens, " ")
}
