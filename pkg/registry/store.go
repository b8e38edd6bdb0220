package registry

import (
	"context"

	"github.com/docuhash/docuhash/pkg/hashcode"
)

// IterFunc is invoked for each record during a store scan. Returning false
// stops the scan early; returning an error aborts it and propagates.
type IterFunc func(*Record) (bool, error)

// Store is the durable record store capability set. One discrete unit is
// persisted per record, grouped by owner namespace. Any backend satisfying
// this interface is conformant: the filesystem store, the S3 store, and the
// in-memory store all implement it.
//
// Implementations must guarantee:
//
//   - Put is atomic from the caller's perspective: a concurrent reader
//     observes either no record or the complete record, never a partial one.
//   - Put without overwrite treats uniqueness-check-and-write as a single
//     atomic unit; two concurrent registrations of the same code cannot
//     both succeed.
//   - IterateAll enumerates in a stable order (namespaces, then records
//     within a namespace) and is restartable per call.
//   - A persisted unit that fails to parse is skipped and logged during
//     IterateAll, never surfaced as a scan failure. Only total inability
//     to read the store propagates, as ErrStoreUnavailable.
type Store interface {
	// Put durably writes a record and returns the backend-specific location
	// of the persisted unit. Returns ErrAlreadyExists if a record with the
	// same hash code is live and overwrite is false.
	Put(ctx context.Context, record *Record, overwrite bool) (string, error)

	// GetByHashCode returns the record with the given full code, or
	// ErrNotFound.
	GetByHashCode(ctx context.Context, code hashcode.HashCode) (*Record, error)

	// Exists reports whether a record with the given full code is live.
	Exists(ctx context.Context, code hashcode.HashCode) (bool, error)

	// IterateAll scans every live record in stable order, invoking fn for
	// each until fn stops the scan, fn fails, ctx is done, or the scan is
	// exhausted.
	IterateAll(ctx context.Context, fn IterFunc) error
}
