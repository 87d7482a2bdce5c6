package repositories

import (
	"fmt"

	"chalfim/internal/models"
	"chalfim/internal/storage"
)

// FileResetRepository implements ResetRepository over the flat-file store.
type FileResetRepository struct {
	store *storage.FileStore
}

// NewFileResetRepository creates a new FileResetRepository.
func NewFileResetRepository(store *storage.FileStore) *FileResetRepository {
	return &FileResetRepository{store: store}
}

// Pending returns the usernames with an open reset request.
func (r *FileResetRepository) Pending() ([]string, error) {
	var pending []string
	err := r.store.View(func(db models.Store) error {
		pending = append([]string{}, db.ResetRequests...)
		return nil
	})
	return pending, err
}

// Request queues a reset for an existing user. Already-pending requests
// are left as they are, so a username appears at most once.
func (r *FileResetRepository) Request(username string) error {
	return r.store.Update(func(db *models.Store) error {
		if !hasUser(db.Users, username) {
			return fmt.Errorf("user %q: %w", username, models.ErrUserNotFound)
		}
		for _, pending := range db.ResetRequests {
			if pending == username {
				return nil
			}
		}
		db.ResetRequests = append(db.ResetRequests, username)
		return nil
	})
}

// Handle clears the pending entry unconditionally. Approval additionally
// flags the user for a one-time manual reset; a denial has no further
// effect on the document.
func (r *FileResetRepository) Handle(username string, approve bool) error {
	return r.store.Update(func(db *models.Store) error {
		kept := db.ResetRequests[:0]
		for _, pending := range db.ResetRequests {
			if pending != username {
				kept = append(kept, pending)
			}
		}
		db.ResetRequests = kept

		if approve {
			for i := range db.Users {
				if db.Users[i].Username == username {
					db.Users[i].AllowManualReset = true
					break
				}
			}
		}
		return nil
	})
}

// Complete consumes an approval: the new hash is stored and the one-time
// flag cleared in the same write.
func (r *FileResetRepository) Complete(username, passwordHash string) error {
	return r.store.Update(func(db *models.Store) error {
		for i := range db.Users {
			if db.Users[i].Username == username && db.Users[i].AllowManualReset {
				db.Users[i].Password = passwordHash
				db.Users[i].AllowManualReset = false
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", username, models.ErrResetNotAllowed)
	})
}

func hasUser(users []models.User, username string) bool {
	for _, u := range users {
		if u.Username == username {
			return true
		}
	}
	return false
}
