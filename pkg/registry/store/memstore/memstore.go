// Package memstore provides an in-memory record store, used in tests and as
// an embedded backend when durability is not required.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/docuhash/docuhash/pkg/hashcode"
	"github.com/docuhash/docuhash/pkg/registry"
)

// Store keeps records in process memory, grouped by owner namespace. All
// operations are guarded by a single RWMutex, which also makes the
// uniqueness-check-and-write of Put atomic.
type Store struct {
	mu sync.RWMutex

	// records maps namespace -> hash code string -> record.
	records map[string]map[string]*registry.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]map[string]*registry.Record),
	}
}

// Put stores a copy of the record. Returns registry.ErrAlreadyExists when
// the hash code is live in any namespace and overwrite is false.
func (s *Store) Put(ctx context.Context, record *registry.Record, overwrite bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	code := record.HashCode()
	namespace := record.OwnerNamespace()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !overwrite {
		for _, byCode := range s.records {
			if _, live := byCode[code.String()]; live {
				return "", registry.ErrAlreadyExists
			}
		}
	}

	// Overwrite replaces the record wherever it previously lived, so a
	// namespace change does not leave a stale duplicate behind.
	for ns, byCode := range s.records {
		delete(byCode, code.String())
		if len(byCode) == 0 {
			delete(s.records, ns)
		}
	}

	if s.records[namespace] == nil {
		s.records[namespace] = make(map[string]*registry.Record)
	}
	stored := *record
	s.records[namespace][code.String()] = &stored

	return fmt.Sprintf("mem://%s/%s", namespace, code), nil
}

// GetByHashCode scans all namespaces for the record with the given code.
func (s *Store) GetByHashCode(ctx context.Context, code hashcode.HashCode) (*registry.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, byCode := range s.records {
		if record, ok := byCode[code.String()]; ok {
			copied := *record
			return &copied, nil
		}
	}
	return nil, registry.ErrNotFound
}

// Exists reports whether the code is live in any namespace.
func (s *Store) Exists(ctx context.Context, code hashcode.HashCode) (bool, error) {
	_, err := s.GetByHashCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, registry.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// IterateAll visits every record: namespaces in sorted order, records within
// a namespace in sorted hash-code order. The scan works on a snapshot taken
// under the read lock, so fn may call back into the store.
func (s *Store) IterateAll(ctx context.Context, fn registry.IterFunc) error {
	s.mu.RLock()
	var snapshot []*registry.Record
	namespaces := make([]string, 0, len(s.records))
	for ns := range s.records {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	for _, ns := range namespaces {
		codes := make([]string, 0, len(s.records[ns]))
		for code := range s.records[ns] {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			copied := *s.records[ns][code]
			snapshot = append(snapshot, &copied)
		}
	}
	s.mu.RUnlock()

	for _, record := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		cont, err := fn(record)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Len returns the number of live records. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, byCode := range s.records {
		n += len(byCode)
	}
	return n
}
