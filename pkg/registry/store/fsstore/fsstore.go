// Package fsstore persists document records as one JSON file per record on
// a filesystem, grouped into one directory per owner namespace.
//
// On-disk layout (compatible with units written by client applications):
//
//	{root}/{namespace}/metadata_{HASH_CODE}_{trace8}.json
//
// where HASH_CODE has its dash replaced by an underscore and trace8 is the
// first eight characters of the record's trace ID, guarding transient temp
// names from concurrent writers against collision.
//
// Writes go to a .tmp sibling first and are renamed into place, so a reader
// never observes a partial unit. The store is built on afero so tests run
// against an in-memory filesystem.
package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/docuhash/docuhash/pkg/hashcode"
	"github.com/docuhash/docuhash/pkg/registry"
)

const (
	unitPrefix = "metadata_"
	unitSuffix = ".json"
	tmpSuffix  = ".tmp"
)

// Store is a filesystem-backed record store.
type Store struct {
	fs     afero.Fs
	root   string
	logger hclog.Logger

	// putMu serializes uniqueness-check-and-write. The unit name embeds a
	// trace ID, so exclusive file creation alone cannot detect a second
	// registration of the same hash code.
	putMu sync.Mutex
}

// New creates a filesystem store rooted at root, creating the directory if
// it does not exist.
func New(fs afero.Fs, root string, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := fs.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating registry root %s: %w", root, err)
	}
	return &Store{
		fs:     fs,
		root:   root,
		logger: logger.Named("fsstore"),
	}, nil
}

// Root returns the registry root directory.
func (s *Store) Root() string {
	return s.root
}

// Put writes the record as a new unit under its namespace directory.
// Without overwrite, a live unit for the same hash code anywhere in the
// store fails the call with registry.ErrAlreadyExists; with overwrite, the
// new unit is written first and stale units for the code are then removed.
func (s *Store) Put(ctx context.Context, record *registry.Record, overwrite bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	code := record.HashCode()
	if code.IsZero() {
		return "", fmt.Errorf("record has no hash code")
	}

	s.putMu.Lock()
	defer s.putMu.Unlock()

	existing, err := s.findUnits(code)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 && !overwrite {
		return "", registry.ErrAlreadyExists
	}

	namespace := record.OwnerNamespace()
	dir := path.Join(s.root, namespace)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating namespace directory %s: %w", dir, err)
	}

	unitPath := path.Join(dir, unitName(code, record.TraceID))
	if err := s.writeUnit(unitPath, record); err != nil {
		return "", err
	}

	// The new unit is durable; now retire any unit the overwrite replaced.
	for _, stale := range existing {
		if stale == unitPath {
			continue
		}
		if err := s.fs.Remove(stale); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove replaced record unit", "path", stale, "error", err)
		}
	}

	return unitPath, nil
}

// writeUnit serializes the record to a temp file and renames it into place.
func (s *Store) writeUnit(unitPath string, record *registry.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing record %s: %w", record.HashCode(), err)
	}

	tmpPath := unitPath + tmpSuffix
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o640); err != nil {
		return fmt.Errorf("writing temp unit %s: %w", tmpPath, err)
	}

	if err := s.fs.Rename(tmpPath, unitPath); err != nil {
		if removeErr := s.fs.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			s.logger.Warn("could not clean up temp unit", "path", tmpPath, "error", removeErr)
		}
		return fmt.Errorf("renaming unit into place %s: %w", unitPath, err)
	}

	return nil
}

// GetByHashCode scans every namespace for the unit whose stored hash code
// matches. The stored field is authoritative, not the filename.
func (s *Store) GetByHashCode(ctx context.Context, code hashcode.HashCode) (*registry.Record, error) {
	var found *registry.Record
	err := s.IterateAll(ctx, func(r *registry.Record) (bool, error) {
		if r.HashCode().Equal(code) {
			found = r
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, registry.ErrNotFound
	}
	return found, nil
}

// Exists reports whether a live unit carries the given hash code.
func (s *Store) Exists(ctx context.Context, code hashcode.HashCode) (bool, error) {
	_, err := s.GetByHashCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if registry.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// IterateAll enumerates namespace directories and their units in sorted
// order. A unit that cannot be read or parsed is logged and skipped; one bad
// record must not block lookup of all others. An unreadable root directory
// is fatal and propagates as registry.ErrStoreUnavailable.
func (s *Store) IterateAll(ctx context.Context, fn registry.IterFunc) error {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return fmt.Errorf("%w: reading registry root %s: %v", registry.ErrStoreUnavailable, s.root, err)
	}

	namespaces := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			namespaces = append(namespaces, entry.Name())
		}
	}
	sort.Strings(namespaces)

	for _, namespace := range namespaces {
		dir := path.Join(s.root, namespace)
		units, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			s.logger.Warn("skipping unreadable namespace directory", "dir", dir, "error", err)
			continue
		}

		names := make([]string, 0, len(units))
		for _, unit := range units {
			if unit.IsDir() || !isUnitName(unit.Name()) {
				continue
			}
			names = append(names, unit.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}

			unitPath := path.Join(dir, name)
			record, err := s.readUnit(unitPath)
			if err != nil {
				s.logger.Warn("skipping unreadable record unit", "path", unitPath, "error", err)
				continue
			}

			cont, err := fn(record)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
	}

	return nil
}

// readUnit parses and sanity-checks one persisted unit.
func (s *Store) readUnit(unitPath string) (*registry.Record, error) {
	data, err := afero.ReadFile(s.fs, unitPath)
	if err != nil {
		return nil, fmt.Errorf("reading unit: %w", err)
	}

	var record registry.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing unit: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt unit: %w", err)
	}

	return &record, nil
}

// findUnits returns the paths of all live units carrying the given code,
// matched by stored hash code.
func (s *Store) findUnits(code hashcode.HashCode) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: reading registry root %s: %v", registry.ErrStoreUnavailable, s.root, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := path.Join(s.root, entry.Name())
		units, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			s.logger.Warn("skipping unreadable namespace directory", "dir", dir, "error", err)
			continue
		}
		for _, unit := range units {
			if unit.IsDir() || !isUnitName(unit.Name()) {
				continue
			}
			unitPath := path.Join(dir, unit.Name())
			record, err := s.readUnit(unitPath)
			if err != nil {
				// Corrupt units do not count as live registrations.
				continue
			}
			if record.HashCode().Equal(code) {
				paths = append(paths, unitPath)
			}
		}
	}

	return paths, nil
}

// unitName builds the persisted unit filename for a record.
func unitName(code hashcode.HashCode, traceID string) string {
	trace := traceID
	if len(trace) > 8 {
		trace = trace[:8]
	}
	safeCode := strings.ReplaceAll(code.String(), "-", "_")
	return fmt.Sprintf("%s%s_%s%s", unitPrefix, safeCode, trace, unitSuffix)
}

// isUnitName reports whether a filename looks like a persisted record unit.
func isUnitName(name string) bool {
	return strings.HasPrefix(name, unitPrefix) && strings.HasSuffix(name, unitSuffix)
}
