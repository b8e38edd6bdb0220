package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"

	"github.com/docuhash/docuhash/pkg/hashcode"
)

// SchemaVersion is the version stamped into every persisted record unit.
const SchemaVersion = "1.0"

// HashAlgorithm identifies the digest used for content and combined hashes.
const HashAlgorithm = "SHA-256"

// TimestampLayout is the display timestamp format carried in records.
// Kept alongside the ISO timestamp for rendering in printed footers.
const TimestampLayout = "02/01/2006 15:04:05"

// Record is the unit of truth for one registered document. One record is
// persisted per document, grouped under its owner namespace. Records are
// created atomically, replaced wholesale on explicit overwrite, and never
// mutated in place.
type Record struct {
	// Version is the persisted schema version.
	Version string `json:"version"`

	// TraceID is an opaque identifier assigned at registration. It is
	// embedded in the persisted unit name so transient temp names from
	// concurrent writers never collide.
	TraceID string `json:"trace_id"`

	HashInfo     HashInfo       `json:"hash_info"`
	DocumentInfo DocumentInfo   `json:"document_info"`
	UserInfo     UserInfo       `json:"user_info"`
	FormData     map[string]any `json:"form_data"`
}

// HashInfo groups the identifying and integrity digests of a record.
type HashInfo struct {
	// HashCode is the globally unique full code. Immutable once assigned.
	HashCode hashcode.HashCode `json:"hash_code"`

	// ShortCode is derived from HashCode at registration. Persisted for
	// fast display; recomputing it from HashCode must always reproduce
	// this value, and a mismatch indicates store corruption.
	ShortCode hashcode.ShortCode `json:"short_code"`

	// ContentHash is the hex-encoded SHA-256 of the document's raw bytes.
	ContentHash string `json:"content_hash"`

	// CombinedHash is a secondary digest over the hash code and content
	// hash, giving tamper-evidence for the metadata unit itself.
	CombinedHash string `json:"combined_hash"`

	// Algorithm names the digest algorithm (always "SHA-256").
	Algorithm string `json:"algorithm"`
}

// DocumentInfo groups the descriptive, non-authoritative document fields.
type DocumentInfo struct {
	Type        string `json:"type"`
	TypeDisplay string `json:"type_display"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`

	// CreationTimestamp is the display-format timestamp (DD/MM/YYYY HH:MM:SS).
	CreationTimestamp string `json:"creation_timestamp"`

	// CreationTimestampISO is the same instant in RFC 3339 form, used for
	// ordering in statistics.
	CreationTimestampISO string `json:"creation_timestamp_iso"`
}

// UserInfo identifies the registering application and its client.
type UserInfo struct {
	// UserID is the owner namespace: the registering application or user.
	// It determines the physical grouping of the persisted unit.
	UserID string `json:"user_id"`

	// ClientName is the customer the document was generated for.
	ClientName string `json:"client_name"`
}

// HashCode returns the record's full hash code.
func (r *Record) HashCode() hashcode.HashCode {
	return r.HashInfo.HashCode
}

// OwnerNamespace returns the grouping key the record is stored under.
func (r *Record) OwnerNamespace() string {
	return r.UserInfo.UserID
}

// CreatedAt returns the record's creation instant, parsing leniently since
// legacy units carry the timestamp in more than one format. Returns the zero
// time if no timestamp can be parsed.
func (r *Record) CreatedAt() time.Time {
	for _, raw := range []string{r.DocumentInfo.CreationTimestampISO, r.DocumentInfo.CreationTimestamp} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DecodeFormData decodes the open form-data map into a typed struct using
// weakly-typed conversion, so callers do not have to type-assert scalars.
func (r *Record) DecodeFormData(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("building form data decoder: %w", err)
	}
	if err := decoder.Decode(r.FormData); err != nil {
		return fmt.Errorf("decoding form data: %w", err)
	}
	return nil
}

// Validate checks the internal consistency of a record read from the store.
// A short code that does not re-derive from the hash code means the unit was
// corrupted after write.
func (r *Record) Validate() error {
	if r.HashInfo.HashCode.IsZero() {
		return fmt.Errorf("record has no hash code")
	}
	if r.UserInfo.UserID == "" {
		return fmt.Errorf("record has no owner namespace")
	}
	if derived := r.HashInfo.HashCode.ShortCode(); !derived.Equal(r.HashInfo.ShortCode) {
		return fmt.Errorf("short code %s does not derive from hash code %s (derived %s)",
			r.HashInfo.ShortCode, r.HashInfo.HashCode, derived)
	}
	return nil
}

// CombinedHash computes the tamper-evidence digest over a hash code and
// content hash pair.
func CombinedHash(code hashcode.HashCode, contentHash string) string {
	if contentHash == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(code.String() + ":" + contentHash))
	return hex.EncodeToString(sum[:])
}

// ContentDigest computes the hex-encoded SHA-256 digest of raw document
// bytes, the same digest recorded at registration time.
func ContentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
