package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"chalfim/internal/models"
)

// FileStore persists the whole application state as one JSON document.
// Every access runs a read-modify-write cycle over the full document; a
// single mutex serializes those cycles so concurrent requests cannot lose
// each other's writes. The filesystem is abstracted behind afero so tests
// run against an in-memory fs.
type FileStore struct {
	fs   afero.Fs
	path string
	seed models.User
	mu   sync.Mutex
}

// NewFileStore creates a store over the given filesystem and document
// path. seed is the bootstrap admin written when no document exists yet;
// its Password must already be hashed.
func NewFileStore(fs afero.Fs, path string, seed models.User) *FileStore {
	return &FileStore{fs: fs, path: path, seed: seed}
}

// View runs fn with a snapshot of the document. fn must not retain the
// snapshot past the call.
func (s *FileStore) View(fn func(db models.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return err
	}
	return fn(db)
}

// Update runs fn against the document and persists the result. If fn
// returns an error nothing is written.
func (s *FileStore) Update(fn func(db *models.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&db); err != nil {
		return err
	}
	return s.save(db)
}

// load reads and parses the document. A missing file bootstraps the
// seeded document. An unreadable or unparsable file degrades to an empty
// valid store so one corrupt document does not fail every request; the
// next successful mutation rewrites it.
func (s *FileStore) load() (models.Store, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return models.Store{}, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if !exists {
		db := models.EmptyStore()
		db.Users = []models.User{s.seed}
		if err := s.save(db); err != nil {
			return models.Store{}, fmt.Errorf("bootstrap %s: %w", s.path, err)
		}
		log.Printf("storage: bootstrapped %s with admin user %q", s.path, s.seed.Username)
		return db, nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		log.Printf("storage: read %s failed, serving empty store: %v", s.path, err)
		return models.EmptyStore(), nil
	}

	var db models.Store
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&db); err != nil {
		log.Printf("storage: parse %s failed, serving empty store: %v", s.path, err)
		return models.EmptyStore(), nil
	}

	// Documents written before the reset workflow existed lack the key.
	if db.ResetRequests == nil {
		db.ResetRequests = []string{}
		if err := s.save(db); err != nil {
			return models.Store{}, fmt.Errorf("backfill %s: %w", s.path, err)
		}
	}
	if db.Users == nil {
		db.Users = []models.User{}
	}
	if db.Parts == nil {
		db.Parts = []models.Part{}
	}
	return db, nil
}

// save writes the document through a temp file and renames it into place
// so readers never observe a half-written document.
func (s *FileStore) save(db models.Store) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
