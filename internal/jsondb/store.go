package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
)

var (
	// ErrCorrupt is wrapped by errors returned when the file exists but its
	// content can't be decoded into valid rows.
	ErrCorrupt = errors.New("corrupt data")
	// ErrUnavailable is wrapped by errors returned when the file can't be read
	// or written for any reason other than not existing.
	ErrUnavailable = errors.New("storage unavailable")
)

// formatVersion is the current version of the document format.
const formatVersion = "1"

// Row is implemented by the types stored in a Store.
type Row[T any] interface {
	// Clone returns a deep copy.
	Clone() T
	// GetID returns the row's unique positive ID.
	GetID() int
	// Validate reports whether the row is well-formed.
	Validate() error
}

// Observer is notified after each successful write.
//
// OnWrite is called from the write queue worker, in commit order, after the
// file has been renamed in place. A returned error is logged and otherwise
// ignored.
type Observer interface {
	OnWrite(path string) error
}

// document is the on-disk representation.
type document[T any] struct {
	Version string `json:"version"`
	LastID  int    `json:"last_id"`
	Rows    []T    `json:"rows"`
}

// Store persists an ordered collection of rows in a single JSON file.
type Store[T Row[T]] struct {
	path  string
	seed  []T
	queue *writeQueue

	mu        sync.Mutex
	observers []Observer
}

// NewStore creates a Store for the file at path.
//
// The file is not read until the first Load; if it doesn't exist at that
// point, it is created with a copy of seed.
func NewStore[T Row[T]](path string, seed []T) (*Store[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := checkRows(seed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	if err := cleanupTmpFiles(path); err != nil {
		return nil, err
	}
	return &Store[T]{
		path:  path,
		seed:  cloneRows(seed),
		queue: newWriteQueue(),
	}, nil
}

// Path returns the path of the backing file.
func (s *Store[T]) Path() string {
	return s.path
}

// Close waits for queued writes to finish and stops the write worker.
//
// Load keeps working after Close; writes return ErrClosed.
func (s *Store[T]) Close() error {
	s.queue.close()
	return nil
}

// Observe registers o to be notified after every successful write.
func (s *Store[T]) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Load returns all rows, in stored order.
//
// The returned rows are owned by the caller. If the file doesn't exist it is
// first created with the seed rows through the write queue.
func (s *Store[T]) Load() ([]T, error) {
	doc, err := s.read()
	if err == nil {
		return doc.Rows, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var rows []T
	err = s.queue.do(func() error {
		doc, err := s.readOrSeed()
		if err != nil {
			return err
		}
		rows = doc.Rows
		return nil
	})
	return rows, err
}

// Save replaces the whole collection with rows.
//
// It blocks until the write queue ran the write. rows are copied before
// queuing so the caller may reuse them once Save returns.
func (s *Store[T]) Save(rows []T) error {
	if err := checkRows(rows); err != nil {
		return err
	}
	rows = cloneRows(rows)
	return s.queue.do(func() error {
		lastID := 0
		if prev, err := s.read(); err == nil {
			lastID = prev.LastID
		}
		return s.write(&document[T]{Version: formatVersion, LastID: max(lastID, maxID(rows)), Rows: rows})
	})
}

// Modify runs a read-modify-write cycle inside the write queue.
//
// fn receives the current rows and the next unused ID and returns the new
// rows. If fn returns an error, nothing is written and the error is returned
// as is.
func (s *Store[T]) Modify(fn func(rows []T, nextID int) ([]T, error)) error {
	return s.queue.do(func() error {
		doc, err := s.readOrSeed()
		if err != nil {
			return err
		}
		rows, err := fn(doc.Rows, doc.LastID+1)
		if err != nil {
			return err
		}
		if err := checkRows(rows); err != nil {
			return err
		}
		return s.write(&document[T]{Version: formatVersion, LastID: max(doc.LastID, maxID(rows)), Rows: rows})
	})
}

// read decodes the file.
//
// The returned error wraps fs.ErrNotExist, ErrCorrupt or ErrUnavailable.
func (s *Store[T]) read() (*document[T], error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrUnavailable, s.path, err)
	}
	doc, err := decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	return doc, nil
}

// readOrSeed is read, but writes the seed first when the file is missing.
//
// Must only be called from the write queue worker.
func (s *Store[T]) readOrSeed() (*document[T], error) {
	doc, err := s.read()
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	doc = &document[T]{Version: formatVersion, LastID: maxID(s.seed), Rows: cloneRows(s.seed)}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	slog.Info("Seeded new data file", "path", s.path, "rows", len(doc.Rows))
	return doc, nil
}

// write atomically replaces the file with doc and notifies observers.
//
// Must only be called from the write queue worker.
func (s *Store[T]) write(doc *document[T]) error {
	if doc.Rows == nil {
		doc.Rows = []T{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.path, err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	observers := s.observers
	s.mu.Unlock()
	for _, o := range observers {
		if err := o.OnWrite(s.path); err != nil {
			slog.Warn("Write observer failed", "path", s.path, "err", err)
		}
	}
	return nil
}

// decode parses data as a document or as a bare array of rows.
func decode[T Row[T]](data []byte) (*document[T], error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	doc := &document[T]{}
	switch data[0] {
	case '{':
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, err
		}
		if doc.Version != formatVersion {
			return nil, fmt.Errorf("unsupported version %q", doc.Version)
		}
		if doc.LastID < 0 {
			return nil, fmt.Errorf("invalid last_id %d", doc.LastID)
		}
	case '[':
		if err := json.Unmarshal(data, &doc.Rows); err != nil {
			return nil, err
		}
		doc.Version = formatVersion
	default:
		return nil, errors.New("expected a JSON object or array")
	}
	if err := checkRows(doc.Rows); err != nil {
		return nil, err
	}
	if doc.Rows == nil {
		doc.Rows = []T{}
	}
	doc.LastID = max(doc.LastID, maxID(doc.Rows))
	return doc, nil
}

// checkRows validates every row and ensures IDs are unique.
func checkRows[T Row[T]](rows []T) error {
	seen := make(map[int]struct{}, len(rows))
	for i, row := range rows {
		if isNil(row) {
			return fmt.Errorf("row %d is null", i)
		}
		if err := row.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		id := row.GetID()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("row %d: duplicate id %d", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func cloneRows[T Row[T]](rows []T) []T {
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

func maxID[T Row[T]](rows []T) int {
	m := 0
	for _, row := range rows {
		m = max(m, row.GetID())
	}
	return m
}
