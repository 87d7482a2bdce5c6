package storage_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"chalfim/internal/models"
	"chalfim/internal/storage"
)

func seedAdmin(t *testing.T) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("0524273202"), bcrypt.MinCost)
	assert.NoError(t, err)
	return models.User{Username: "marten", Password: string(hash), Role: "admin"}
}

func TestFileStore_BootstrapsMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := storage.NewFileStore(fs, "database.json", seedAdmin(t))

	var db models.Store
	err := store.View(func(snapshot models.Store) error {
		db = snapshot
		return nil
	})
	assert.NoError(t, err)

	assert.Len(t, db.Users, 1)
	assert.Equal(t, "marten", db.Users[0].Username)
	assert.Equal(t, "admin", db.Users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(db.Users[0].Password), []byte("0524273202")))
	assert.Empty(t, db.Parts)
	assert.Empty(t, db.ResetRequests)

	// The bootstrap document must have been persisted.
	data, err := afero.ReadFile(fs, "database.json")
	assert.NoError(t, err)
	var onDisk models.Store
	assert.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk.Users, 1)
	assert.NotNil(t, onDisk.ResetRequests)
}

func TestFileStore_CorruptFileDegradesToEmptyStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "database.json", []byte("{not json"), 0o644))

	store := storage.NewFileStore(fs, "database.json", seedAdmin(t))

	err := store.View(func(db models.Store) error {
		assert.Empty(t, db.Users)
		assert.Empty(t, db.Parts)
		assert.Empty(t, db.ResetRequests)
		return nil
	})
	assert.NoError(t, err)

	// The corrupt file is left alone until the next mutation.
	data, err := afero.ReadFile(fs, "database.json")
	assert.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestFileStore_BackfillsResetRequests(t *testing.T) {
	fs := afero.NewMemMapFs()
	legacy := `{"users":[{"username":"old","password":"x","role":"user"}],"parts":[]}`
	assert.NoError(t, afero.WriteFile(fs, "database.json", []byte(legacy), 0o644))

	store := storage.NewFileStore(fs, "database.json", seedAdmin(t))

	err := store.View(func(db models.Store) error {
		assert.NotNil(t, db.ResetRequests)
		assert.Empty(t, db.ResetRequests)
		assert.Len(t, db.Users, 1)
		return nil
	})
	assert.NoError(t, err)

	// The backfill is persisted, so the key now exists on disk.
	data, err := afero.ReadFile(fs, "database.json")
	assert.NoError(t, err)
	var raw map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "resetRequests")
}

func TestFileStore_UpdateRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := storage.NewFileStore(fs, "database.json", seedAdmin(t))

	err := store.Update(func(db *models.Store) error {
		part := models.NewPart(map[string]interface{}{"make": "toyo", "yearFrom": 2010, "yearTo": 2018})
		part.ID = 42
		db.Parts = append(db.Parts, part)
		return nil
	})
	assert.NoError(t, err)

	// A fresh store over the same file sees the written part.
	reopened := storage.NewFileStore(fs, "database.json", seedAdmin(t))
	err = reopened.View(func(db models.Store) error {
		assert.Len(t, db.Parts, 1)
		assert.Equal(t, int64(42), db.Parts[0].ID)
		assert.Equal(t, "toyo", db.Parts[0].Make())
		from, to, ok := db.Parts[0].YearRange()
		assert.True(t, ok)
		assert.Equal(t, 2010, from)
		assert.Equal(t, 2018, to)
		return nil
	})
	assert.NoError(t, err)
}

func TestFileStore_FailedUpdateWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := storage.NewFileStore(fs, "database.json", seedAdmin(t))

	err := store.Update(func(db *models.Store) error {
		db.Users = nil
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	err = store.View(func(db models.Store) error {
		assert.Len(t, db.Users, 1)
		return nil
	})
	assert.NoError(t, err)
}

func TestFileStore_ConcurrentUpdatesAllPersist(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := storage.NewFileStore(fs, "database.json", seedAdmin(t))

	const writers = 2
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Update(func(db *models.Store) error {
				part := models.NewPart(map[string]interface{}{"make": "acme", "yearFrom": 2000 + n, "yearTo": 2010})
				part.ID = int64(n + 1)
				db.Parts = append(db.Parts, part)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	err := store.View(func(db models.Store) error {
		assert.Len(t, db.Parts, writers, "a concurrent write must not be lost")
		return nil
	})
	assert.NoError(t, err)
}
