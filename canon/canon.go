// Package canon normalizes free-text track names into their single canonical
// spelling, and derives slugs and display names from it.
package canon

import "strings"

// aliases maps known spelling variants to one canonical form. Unmapped names
// pass through unchanged, so new games/tracks need no entry here.
var aliases = map[string]string{
	"bowser castle":     "bowser's castle",
	"bowsers castle":    "bowser's castle",
	"bowser castle 1":   "bowser's castle",
	"bowser castle 2":   "bowser's castle",
	"bowser castle 3":   "bowser's castle",
	"bowser castle 4":   "bowser's castle",
	"bowser's castle 1": "bowser's castle",
	"bowser's castle 2": "bowser's castle",
	"bowser's castle 3": "bowser's castle",
	"bowser's castle 4": "bowser's castle",
	"bc":                "bowser's castle",
}

// Canonicalize returns the canonical form of a raw track name: trimmed,
// lower-cased, curly apostrophes straightened, internal whitespace collapsed,
// then mapped through the alias table. Empty or whitespace-only input yields
// "" and must be rejected by the caller.
func Canonicalize(raw string) string {
	name := strings.ToLower(strings.ReplaceAll(raw, "’", "'"))
	name = strings.Join(strings.Fields(name), " ")
	if c, ok := aliases[name]; ok {
		return c
	}
	return name
}

// SlugFor derives the URL-safe identifier for a canonical name: runs of
// non-alphanumeric characters become a single hyphen, trimmed at both ends.
func SlugFor(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	return b.String()
}

// DisplayName renders a canonical name for humans: title case with possessive
// endings kept lower-case ("bowser's castle" -> "Bowser's Castle").
func DisplayName(name string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range name {
		isLetter := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		if !prevLetter && r >= 'a' && r <= 'z' {
			b.WriteRune(r - 'a' + 'A')
		} else {
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	dn := b.String()
	dn = strings.ReplaceAll(dn, "'S ", "'s ")
	dn = strings.ReplaceAll(dn, "S' ", "s' ")
	if strings.HasSuffix(dn, "'S") {
		dn = strings.TrimSuffix(dn, "'S") + "'s"
	}
	return dn
}
