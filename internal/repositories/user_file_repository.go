package repositories

import (
	"fmt"

	"chalfim/internal/models"
	"chalfim/internal/storage"
)

// FileUserRepository implements UserRepository over the flat-file store.
type FileUserRepository struct {
	store *storage.FileStore
}

// NewFileUserRepository creates a new FileUserRepository.
func NewFileUserRepository(store *storage.FileStore) *FileUserRepository {
	return &FileUserRepository{store: store}
}

// GetAll returns all users.
func (r *FileUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	err := r.store.View(func(db models.Store) error {
		users = append([]models.User{}, db.Users...)
		return nil
	})
	return users, err
}

// GetByUsername returns the user with the given username.
func (r *FileUserRepository) GetByUsername(username string) (*models.User, error) {
	var found *models.User
	err := r.store.View(func(db models.Store) error {
		for i := range db.Users {
			if db.Users[i].Username == username {
				u := db.Users[i]
				found = &u
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", username, models.ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Create appends a new user.
func (r *FileUserRepository) Create(user models.User) error {
	return r.store.Update(func(db *models.Store) error {
		for i := range db.Users {
			if db.Users[i].Username == user.Username {
				return fmt.Errorf("user %q: %w", user.Username, models.ErrDuplicateUser)
			}
		}
		db.Users = append(db.Users, user)
		return nil
	})
}

// Delete removes all users with the given username.
func (r *FileUserRepository) Delete(username string) error {
	return r.store.Update(func(db *models.Store) error {
		kept := db.Users[:0]
		for _, u := range db.Users {
			if u.Username != username {
				kept = append(kept, u)
			}
		}
		db.Users = kept
		return nil
	})
}

// UpdatePassword stores a new password hash and clears the must-change flag.
func (r *FileUserRepository) UpdatePassword(username, passwordHash string) (*models.User, error) {
	var updated *models.User
	err := r.store.Update(func(db *models.Store) error {
		for i := range db.Users {
			if db.Users[i].Username == username {
				db.Users[i].Password = passwordHash
				db.Users[i].MustChangePassword = false
				u := db.Users[i]
				updated = &u
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", username, models.ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
