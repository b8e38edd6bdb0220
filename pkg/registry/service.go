package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/iancoleman/strcase"

	"github.com/docuhash/docuhash/pkg/hashcode"
)

// DefaultSearchLimit caps partial-hash search results when the caller does
// not supply a limit.
const DefaultSearchLimit = 10

// RecentDocumentCount is how many documents the statistics report lists.
const RecentDocumentCount = 5

var (
	prefixPattern    = regexp.MustCompile(`^[A-Za-z]{2}$`)
	hexDigestPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	namespaceUnsafe  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// Service implements the registry core: registration, code lookup,
// integrity verification, partial search, and statistics. All coordination
// between concurrent requests happens through the Store; the Service itself
// holds no mutable state.
type Service struct {
	store  Store
	logger hclog.Logger
	clock  func() time.Time
}

// NewService creates a registry service on top of a record store.
func NewService(store Store, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		store:  store,
		logger: logger.Named("registry"),
		clock:  time.Now,
	}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// RegisterRequest carries one document registration.
type RegisterRequest struct {
	// HashCode is the full code to register. When empty, a new code is
	// generated from TypePrefix.
	HashCode string `json:"hash_code"`

	// TypePrefix is the two-letter document-type prefix used for code
	// generation. Required when HashCode is empty.
	TypePrefix string `json:"type_prefix"`

	// OwnerNamespace identifies the registering application or user and
	// determines the physical grouping of the record. Required.
	OwnerNamespace string `json:"owner_namespace"`

	// ContentHash is the hex-encoded SHA-256 of the document bytes,
	// computed by the registering client.
	ContentHash string `json:"content_hash"`

	ClientName          string         `json:"client_name"`
	DocumentType        string         `json:"document_type"`
	DocumentTypeDisplay string         `json:"document_type_display"`
	FileName            string         `json:"file_name"`
	FileSize            int64          `json:"file_size"`
	FormData            map[string]any `json:"form_data"`

	// Overwrite replaces an existing record with the same hash code
	// instead of failing with an already-exists result.
	Overwrite bool `json:"overwrite"`
}

// Validate checks the request shape. Failures are user-correctable and are
// surfaced as non-fatal registration results.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OwnerNamespace, validation.Required),
		validation.Field(&r.TypePrefix,
			validation.Required.When(r.HashCode == "").Error("type prefix is required when no hash code is supplied"),
			validation.When(r.TypePrefix != "", validation.Match(prefixPattern).Error("must be exactly 2 letters")),
		),
		validation.Field(&r.ContentHash,
			validation.When(r.ContentHash != "", validation.Match(hexDigestPattern).Error("must be a hex-encoded SHA-256 digest")),
		),
		validation.Field(&r.FileSize, validation.Min(0)),
	)
}

// RegistrationResult is the outcome of a registration attempt. Expected
// failures (bad input, code already registered) are reported here with
// Success false; only store-unavailable conditions surface as errors.
type RegistrationResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Path      string `json:"path,omitempty"`
	HashCode  string `json:"hash_code,omitempty"`
	ShortCode string `json:"short_code,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Register validates and writes one new record. When the request carries no
// hash code, a fresh one is generated from the type prefix. The write is a
// single new persisted unit; no other state is touched.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	if err := req.Validate(); err != nil {
		return &RegistrationResult{
			Success: false,
			Message: fmt.Sprintf("invalid registration request: %v", err),
		}, nil
	}

	namespace := SanitizeNamespace(req.OwnerNamespace)
	if namespace == "" {
		return &RegistrationResult{
			Success: false,
			Message: "owner namespace is required and cannot be empty",
		}, nil
	}

	var code hashcode.HashCode
	var err error
	if req.HashCode != "" {
		code, err = hashcode.Parse(req.HashCode)
		if err != nil {
			return &RegistrationResult{
				Success: false,
				Message: fmt.Sprintf("invalid hash format: %s (expected XX-XXXXXXXXXXXX)", req.HashCode),
			}, nil
		}
	} else {
		code, err = hashcode.Generate(req.TypePrefix)
		if err != nil {
			return &RegistrationResult{
				Success: false,
				Message: fmt.Sprintf("cannot generate hash code: %v", err),
			}, nil
		}
	}

	record := s.buildRecord(code, namespace, req)

	location, err := s.store.Put(ctx, record, req.Overwrite)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			s.logger.Info("registration rejected, hash code already live",
				"hash_code", code, "namespace", namespace)
			return &RegistrationResult{
				Success:  false,
				Message:  fmt.Sprintf("hash %s is already registered", code),
				HashCode: code.String(),
			}, nil
		}
		return nil, &Error{Op: "Register", Err: err, Msg: fmt.Sprintf("writing record %s", code)}
	}

	s.logger.Info("document registered",
		"hash_code", code,
		"short_code", record.HashInfo.ShortCode,
		"namespace", namespace,
		"trace_id", record.TraceID,
	)

	return &RegistrationResult{
		Success:   true,
		Message:   "document registered successfully",
		Path:      location,
		HashCode:  code.String(),
		ShortCode: record.HashInfo.ShortCode.String(),
		TraceID:   record.TraceID,
	}, nil
}

// buildRecord assembles the persisted record for a validated request.
func (s *Service) buildRecord(code hashcode.HashCode, namespace string, req RegisterRequest) *Record {
	docType := req.DocumentType
	docTypeDisplay := req.DocumentTypeDisplay
	if dt, ok := hashcode.TypeForCode(code); ok {
		if docType == "" {
			docType = dt.Code
		}
		if docTypeDisplay == "" {
			docTypeDisplay = dt.Display
		}
	}

	now := s.clock()
	return &Record{
		Version: SchemaVersion,
		TraceID: uuid.New().String(),
		HashInfo: HashInfo{
			HashCode:     code,
			ShortCode:    code.ShortCode(),
			ContentHash:  strings.ToLower(req.ContentHash),
			CombinedHash: CombinedHash(code, strings.ToLower(req.ContentHash)),
			Algorithm:    HashAlgorithm,
		},
		DocumentInfo: DocumentInfo{
			Type:                 docType,
			TypeDisplay:          docTypeDisplay,
			FileName:             req.FileName,
			FileSize:             req.FileSize,
			CreationTimestamp:    now.Format(TimestampLayout),
			CreationTimestampISO: now.Format(time.RFC3339),
		},
		UserInfo: UserInfo{
			UserID:     namespace,
			ClientName: req.ClientName,
		},
		FormData: normalizeFormData(req.FormData),
	}
}

// Resolve finds the record for a full or short identifying code. Input is
// normalized and classified by shape; anything matching neither shape fails
// with ErrInvalidFormat, and a clean miss fails with ErrNotFound.
//
// Both searches are exhaustive scans over the whole store. Short codes are
// not guaranteed unique, so the first match in the store's stable scan order
// wins; ties are not disambiguated further.
func (s *Service) Resolve(ctx context.Context, code string) (*Record, error) {
	normalized := hashcode.Normalize(code)

	switch {
	case hashcode.IsFullCode(normalized):
		full, err := hashcode.Parse(normalized)
		if err != nil {
			return nil, &Error{Op: "Resolve", Err: ErrInvalidFormat, Msg: code}
		}
		record, err := s.store.GetByHashCode(ctx, full)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &Error{Op: "Resolve", Err: ErrNotFound, Msg: normalized}
			}
			return nil, &Error{Op: "Resolve", Err: err, Msg: normalized}
		}
		return record, nil

	case hashcode.IsShortCode(normalized):
		short, err := hashcode.ParseShortCode(normalized)
		if err != nil {
			return nil, &Error{Op: "Resolve", Err: ErrInvalidFormat, Msg: code}
		}
		return s.resolveShort(ctx, short)

	default:
		return nil, &Error{Op: "Resolve", Err: ErrInvalidFormat,
			Msg: fmt.Sprintf("%q matches neither XX-XXXXXXXXXXXX nor a 6-character short code", code)}
	}
}

// resolveShort scans for the first record whose stored short code matches.
// The stored field is compared directly rather than re-derived.
func (s *Service) resolveShort(ctx context.Context, short hashcode.ShortCode) (*Record, error) {
	var found *Record
	err := s.store.IterateAll(ctx, func(r *Record) (bool, error) {
		if r.HashInfo.ShortCode.Equal(short) {
			found = r
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, &Error{Op: "Resolve", Err: err, Msg: short.String()}
	}
	if found == nil {
		return nil, &Error{Op: "Resolve", Err: ErrNotFound, Msg: short.String()}
	}
	return found, nil
}

// IntegrityResult is the verdict of an integrity check. Both digests are
// always disclosed so a mismatch can be audited, never hidden.
type IntegrityResult struct {
	Valid          bool   `json:"valid"`
	HashCode       string `json:"hash_code"`
	CalculatedHash string `json:"calculated_hash,omitempty"`
	StoredHash     string `json:"stored_hash,omitempty"`
	Message        string `json:"message"`
}

// VerifyIntegrity recomputes the content digest of submitted bytes and
// compares it against the digest stored for the given code. The code runs
// through the same normalization and classification as Resolve, so a short
// code works too. Read-only: no state is mutated.
func (s *Service) VerifyIntegrity(ctx context.Context, code string, content []byte) (*IntegrityResult, error) {
	record, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	calculated := ContentDigest(content)
	stored := record.HashInfo.ContentHash
	valid := stored != "" && strings.EqualFold(calculated, stored)

	message := "document has been modified or is not authentic"
	if valid {
		message = "document is authentic and unmodified"
	}

	s.logger.Debug("integrity check",
		"hash_code", record.HashCode(),
		"valid", valid,
		"content_length", len(content),
	)

	return &IntegrityResult{
		Valid:          valid,
		HashCode:       record.HashCode().String(),
		CalculatedHash: calculated,
		StoredHash:     stored,
		Message:        message,
	}, nil
}

// PartialMatch is one row of a partial-hash search result.
type PartialMatch struct {
	HashCode     string `json:"hash_code"`
	DocumentType string `json:"document_type"`
	ClientName   string `json:"client_name"`
	CreationDate string `json:"creation_date"`
}

// SearchPartial finds up to limit records whose full hash code contains the
// query as a substring (case-insensitive). Scan order is the store's stable
// order, so repeated searches page consistently.
func (s *Service) SearchPartial(ctx context.Context, query string, limit int) ([]PartialMatch, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := hashcode.Normalize(query)
	if needle == "" {
		return nil, &Error{Op: "SearchPartial", Err: ErrInvalidFormat, Msg: "empty query"}
	}

	var matches []PartialMatch
	err := s.store.IterateAll(ctx, func(r *Record) (bool, error) {
		if !strings.Contains(r.HashCode().String(), needle) {
			return true, nil
		}
		matches = append(matches, PartialMatch{
			HashCode:     r.HashCode().String(),
			DocumentType: r.DocumentInfo.TypeDisplay,
			ClientName:   r.UserInfo.ClientName,
			CreationDate: r.DocumentInfo.CreationTimestamp,
		})
		return len(matches) < limit, nil
	})
	if err != nil {
		return nil, &Error{Op: "SearchPartial", Err: err, Msg: needle}
	}
	return matches, nil
}

// Stats summarizes the registry contents for display.
type Stats struct {
	TotalDocuments  int              `json:"total_documents"`
	ByType          map[string]int   `json:"by_type"`
	ByUser          map[string]int   `json:"by_user"`
	RecentDocuments []RecentDocument `json:"recent_documents"`
}

// RecentDocument is one row of the recent-documents list.
type RecentDocument struct {
	HashCode     string `json:"hash_code"`
	DocumentType string `json:"document_type"`
	ClientName   string `json:"client_name"`
	CreationDate string `json:"creation_date"`
	UserID       string `json:"user_id"`
}

// Stats aggregates counts by type and owner namespace and lists the most
// recently created documents, newest first.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByType: make(map[string]int),
		ByUser: make(map[string]int),
	}

	type dated struct {
		doc RecentDocument
		at  time.Time
	}
	var all []dated

	err := s.store.IterateAll(ctx, func(r *Record) (bool, error) {
		stats.TotalDocuments++

		typeDisplay := r.DocumentInfo.TypeDisplay
		if typeDisplay == "" {
			typeDisplay = "Unknown"
		}
		stats.ByType[typeDisplay]++
		stats.ByUser[r.OwnerNamespace()]++

		all = append(all, dated{
			doc: RecentDocument{
				HashCode:     r.HashCode().String(),
				DocumentType: typeDisplay,
				ClientName:   r.UserInfo.ClientName,
				CreationDate: r.DocumentInfo.CreationTimestampISO,
				UserID:       r.OwnerNamespace(),
			},
			at: r.CreatedAt(),
		})
		return true, nil
	})
	if err != nil {
		return nil, &Error{Op: "Stats", Err: err}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].at.After(all[j].at)
	})
	for i, d := range all {
		if i >= RecentDocumentCount {
			break
		}
		stats.RecentDocuments = append(stats.RecentDocuments, d.doc)
	}

	return stats, nil
}

// SanitizeNamespace reduces an owner namespace to filesystem- and key-safe
// characters, replacing anything outside [a-zA-Z0-9_-] with underscores.
func SanitizeNamespace(namespace string) string {
	trimmed := strings.TrimSpace(namespace)
	if trimmed == "" {
		return ""
	}
	return namespaceUnsafe.ReplaceAllString(trimmed, "_")
}

// normalizeFormData snake_cases form-data keys so units written by different
// client applications stay queryable under one naming convention.
func normalizeFormData(form map[string]any) map[string]any {
	if form == nil {
		return map[string]any{}
	}
	normalized := make(map[string]any, len(form))
	for k, v := range form {
		normalized[strcase.ToSnake(k)] = v
	}
	return normalized
}
