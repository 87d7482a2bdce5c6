package repositories

import (
	"fmt"

	"chalfim/internal/models"
	"chalfim/internal/storage"
)

// FilePartRepository implements PartRepository over the flat-file store.
// Ids come from a monotonic counter seeded from the largest id already in
// the document, so legacy documents with millisecond-timestamp ids keep
// working and in-process creates never collide. The counter is only read
// and advanced inside store.Update, which holds the store mutex.
type FilePartRepository struct {
	store  *storage.FileStore
	lastID int64
}

// NewFilePartRepository creates a new FilePartRepository.
func NewFilePartRepository(store *storage.FileStore) *FilePartRepository {
	return &FilePartRepository{store: store}
}

// GetAll returns all parts.
func (r *FilePartRepository) GetAll() ([]models.Part, error) {
	var parts []models.Part
	err := r.store.View(func(db models.Store) error {
		parts = append([]models.Part{}, db.Parts...)
		return nil
	})
	return parts, err
}

// Create assigns the next free id and appends the part.
func (r *FilePartRepository) Create(part *models.Part) error {
	return r.store.Update(func(db *models.Store) error {
		next := r.lastID
		for _, p := range db.Parts {
			if p.ID > next {
				next = p.ID
			}
		}
		next++
		r.lastID = next
		part.ID = next
		db.Parts = append(db.Parts, *part)
		return nil
	})
}

// Update replaces the fields of an existing part, preserving its id.
func (r *FilePartRepository) Update(id int64, fields map[string]interface{}) error {
	return r.store.Update(func(db *models.Store) error {
		for i := range db.Parts {
			if db.Parts[i].ID == id {
				p := models.NewPart(fields)
				p.ID = id
				db.Parts[i] = p
				return nil
			}
		}
		return fmt.Errorf("part %d: %w", id, models.ErrPartNotFound)
	})
}

// Delete removes the part with the given id if present.
func (r *FilePartRepository) Delete(id int64) error {
	return r.store.Update(func(db *models.Store) error {
		kept := db.Parts[:0]
		for _, p := range db.Parts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		db.Parts = kept
		return nil
	})
}
