package usecase

import (
	"regexp"
	"strings"
)

// Identity document labels used in export bundle filenames.
const (
	labelNIE      = "NIE"
	labelPassport = "Pasaporte"
)

var (
	// Spanish NIE: X/Y/Z prefix, seven digits, control letter.
	nieRegex = regexp.MustCompile(`^[XYZxyz]\d{7}[A-Za-z]$`)

	nameSeparatorRegex = regexp.MustCompile(`\s+`)
	nameAllowedRegex   = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// sanitizeName normalizes a client name into a filesystem- and object-key-safe
// slug: spaces collapse to underscores, anything outside [a-zA-Z0-9_-] is
// dropped, and the result is lowercased.
func sanitizeName(name string) string {
	s := nameSeparatorRegex.ReplaceAllString(strings.TrimSpace(name), "_")
	s = nameAllowedRegex.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	if s == "" {
		return "cliente"
	}
	return s
}

// identityLabel classifies an identity document number as NIE or passport.
func identityLabel(passportOrNIE string) string {
	if nieRegex.MatchString(passportOrNIE) {
		return labelNIE
	}
	return labelPassport
}

// shortID returns the leading segment of an identifier, used as a collision
// suffix in per-client folders.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// trimNote normalizes a review note for emptiness checks.
func trimNote(note string) string {
	return strings.TrimSpace(note)
}
