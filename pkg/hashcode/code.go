package hashcode

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// codeAlphabet is the character set for the random tail of a hash code.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tailLength is the number of random characters following the prefix.
const tailLength = 12

// shortLength is the length of a derived short code.
const shortLength = 6

var (
	// fullCodePattern matches a normalized full hash code: two uppercase
	// letters, a dash, and twelve uppercase alphanumerics.
	fullCodePattern = regexp.MustCompile(`^[A-Z]{2}-[A-Z0-9]{12}$`)

	// shortCodePattern matches a normalized short code.
	shortCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// ErrMalformedCode indicates a hash code string that does not conform to the
// PP-CCCCCCCCCCCC shape. Seeing this on a stored value indicates store
// corruption rather than bad user input.
var ErrMalformedCode = errors.New("malformed hash code")

// HashCode is the primary identifier of a registered document.
// Format: "PP-CCCCCCCCCCCC" (e.g., "CM-A1B2C3D4E5F6").
//
// HashCodes are immutable once assigned and globally unique across all
// owner namespaces (enforced by the registration service on write).
type HashCode struct {
	value string
}

// Generate produces a new random hash code for the given two-letter
// document-type prefix. The tail is drawn uniformly from [A-Z0-9] using
// crypto/rand; at expected registry sizes the collision probability is
// negligible, and the registration service enforces uniqueness on write.
func Generate(prefix string) (HashCode, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if !isLetterPrefix(prefix) {
		return HashCode{}, fmt.Errorf("prefix must be exactly 2 ASCII letters, got %q", prefix)
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('-')
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < tailLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return HashCode{}, fmt.Errorf("reading random source: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}

	return HashCode{value: sb.String()}, nil
}

// MustParse parses a hash code from string, panicking on error.
// This is useful for test fixtures where the code is known valid.
func MustParse(s string) HashCode {
	c, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("invalid hash code: %s: %v", s, err))
	}
	return c
}

// Parse parses a hash code from string. Input is normalized (surrounding
// whitespace stripped, uppercased) before validation, so "cm-a1b2c3d4e5f6"
// parses to "CM-A1B2C3D4E5F6". Returns ErrMalformedCode for any input that
// does not match the full-code shape after normalization.
func Parse(s string) (HashCode, error) {
	normalized := Normalize(s)
	if !fullCodePattern.MatchString(normalized) {
		return HashCode{}, fmt.Errorf("%w: %q (expected format XX-XXXXXXXXXXXX)", ErrMalformedCode, s)
	}
	return HashCode{value: normalized}, nil
}

// Normalize uppercases a code string and strips surrounding whitespace.
// It performs no validation.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsFullCode reports whether s has the full-code shape after normalization.
func IsFullCode(s string) bool {
	return fullCodePattern.MatchString(Normalize(s))
}

// String returns the canonical uppercase representation.
func (c HashCode) String() string {
	return c.value
}

// IsZero returns true if this is a zero HashCode.
func (c HashCode) IsZero() bool {
	return c.value == ""
}

// Equal returns true if two HashCodes are equal.
func (c HashCode) Equal(other HashCode) bool {
	return c.value == other.value
}

// Prefix returns the two-letter document-type prefix.
func (c HashCode) Prefix() string {
	if c.IsZero() {
		return ""
	}
	return c.value[:2]
}

// Tail returns the twelve-character random portion after the separator.
func (c HashCode) Tail() string {
	if c.IsZero() {
		return ""
	}
	return c.value[3:]
}

// ShortCode derives the six-character short code: the characters at even
// zero-based positions (0,2,4,6,8,10) of the tail. The derivation is pure
// and deterministic; recomputing it from a stored HashCode must always
// reproduce the persisted short code.
func (c HashCode) ShortCode() ShortCode {
	if c.IsZero() {
		return ShortCode{}
	}
	tail := c.Tail()
	b := make([]byte, 0, shortLength)
	for i := 0; i < tailLength; i += 2 {
		b = append(b, tail[i])
	}
	return ShortCode{value: string(b)}
}

// MarshalJSON implements json.Marshaler. Zero codes serialize as null.
func (c HashCode) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *HashCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hash code must be a string: %w", err)
	}
	if s == "" {
		*c = HashCode{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DeriveShortCode derives the short code from a full hash code string.
// Returns ErrMalformedCode if s does not have the full-code shape.
func DeriveShortCode(s string) (ShortCode, error) {
	code, err := Parse(s)
	if err != nil {
		return ShortCode{}, err
	}
	return code.ShortCode(), nil
}

// ShortCode is the six-character identifier derived from a HashCode.
//
// Short codes are not guaranteed globally unique: the derivation discards
// half of the random tail, so distinct full codes can share a short code.
type ShortCode struct {
	value string
}

// ParseShortCode parses a short code from string, normalizing first.
func ParseShortCode(s string) (ShortCode, error) {
	normalized := Normalize(s)
	if !shortCodePattern.MatchString(normalized) {
		return ShortCode{}, fmt.Errorf("%w: %q (expected 6 alphanumeric characters)", ErrMalformedCode, s)
	}
	return ShortCode{value: normalized}, nil
}

// IsShortCode reports whether s has the short-code shape after normalization.
func IsShortCode(s string) bool {
	return shortCodePattern.MatchString(Normalize(s))
}

// String returns the canonical uppercase representation.
func (s ShortCode) String() string {
	return s.value
}

// IsZero returns true if this is a zero ShortCode.
func (s ShortCode) IsZero() bool {
	return s.value == ""
}

// Equal returns true if two ShortCodes are equal.
func (s ShortCode) Equal(other ShortCode) bool {
	return s.value == other.value
}

// MarshalJSON implements json.Marshaler. Zero codes serialize as null.
func (s ShortCode) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ShortCode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("short code must be a string: %w", err)
	}
	if str == "" {
		*s = ShortCode{}
		return nil
	}
	parsed, err := ParseShortCode(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// isLetterPrefix reports whether p is exactly two ASCII letters.
func isLetterPrefix(p string) bool {
	if len(p) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if p[i] < 'A' || p[i] > 'Z' {
			return false
		}
	}
	return true
}
