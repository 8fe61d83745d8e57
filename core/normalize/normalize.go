// Package normalize canonicalizes user-supplied contact and name values so that equivalent inputs
// collide when compared or stored.
package normalize

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 11

	countryCode = '1'
)

var (
	notePolicy = bluemonday.StrictPolicy()
	folder     = cases.Fold()
)

// Email trims and lowercases an email address.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Phone reduces raw to its digit sequence.
// An 11-digit number starting with the country code is reduced to its 10-digit national form.
// It returns "" when the result is not a plausible national number.
func Phone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == MaxPhoneDigits && digits[0] == countryCode {
		digits = digits[1:]
	}
	if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return ""
	}
	return digits
}

// Name composes raw to NFC, trims it and collapses inner whitespace. Case is preserved.
func Name(raw string) string {
	return strings.Join(strings.FieldsFunc(norm.NFC.String(raw), unicode.IsSpace), " ")
}

// NameCI folds Name(raw) for case-insensitive comparison.
func NameCI(raw string) string {
	return folder.String(Name(raw))
}

// Note strips any markup from a free-text note.
func Note(raw string) string {
	return strings.TrimSpace(notePolicy.Sanitize(raw))
}

// ID returns the canonical form of an identifier. Any UUID encoding, such as braced, urn:uuid: or
// unhyphenated, becomes the lowercase hyphenated form. Other values are trimmed and lowercased.
func ID(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := uuid.Parse(raw); err == nil {
		return u.String()
	}
	return strings.ToLower(raw)
}
