package repositories

import "chalfim/internal/models"

// PartRepository defines the interface for catalog data access.
type PartRepository interface {
	GetAll() ([]models.Part, error)
	// Create assigns a unique id to the part and stores it.
	Create(part *models.Part) error
	// Update replaces every field of the part with the given id, keeping
	// the id itself.
	Update(id int64, fields map[string]interface{}) error
	// Delete removes the part with the given id; deleting an absent id
	// succeeds.
	Delete(id int64) error
}
