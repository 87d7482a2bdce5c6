package repositories

import "chalfim/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetAll() ([]models.User, error)
	GetByUsername(username string) (*models.User, error)
	Create(user models.User) error
	// Delete removes every user with the given username. Removing a
	// username that does not exist is not an error.
	Delete(username string) error
	// UpdatePassword overwrites the stored hash and clears the
	// must-change flag, returning the updated user.
	UpdatePassword(username, passwordHash string) (*models.User, error)
}
