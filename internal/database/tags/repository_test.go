package tags

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/traxys/bouquineur/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_tags_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Tag{},
		&entities.Book{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func TestRepository_GetOrCreate(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := repo.GetOrCreate("fantasy")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	again, err := repo.GetOrCreate("fantasy")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestRepository_Search(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	for _, name := range []string{"science-fiction", "Fiction", "history"} {
		_, err := repo.GetOrCreate(name)
		require.NoError(t, err)
	}

	t.Run("substring match", func(t *testing.T) {
		tags, err := repo.Search("fic")
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})

	t.Run("case insensitive", func(t *testing.T) {
		tags, err := repo.Search("FICTION")
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})

	t.Run("no match", func(t *testing.T) {
		tags, err := repo.Search("poetry")
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestRepository_DeleteOrphans(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	user := &entities.User{Name: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	kept, err := repo.GetOrCreate("fantasy")
	require.NoError(t, err)
	_, err = repo.GetOrCreate("orphan")
	require.NoError(t, err)

	book := &entities.Book{OwnerID: user.ID, ISBN: "9780552166591", Title: "The Colour of Magic",
		Tags: []entities.Tag{*kept}}
	require.NoError(t, db.Create(book).Error)

	deleted, err := repo.DeleteOrphans()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByID(kept.ID)
	assert.NoError(t, err)
}
