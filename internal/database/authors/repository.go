// Package authors provides database operations for the global author table.
//
// Authors are deduplicated by name and shared across all users; a user only
// ever sees an author through their own books.
package authors

import (
	"errors"

	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/entities"
)

var ErrAuthorNotFound = errors.New("author not found")

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate retrieves an author by exact name, creating it when missing.
func (r *Repository) GetOrCreate(name string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Where("name = ?", name).FirstOrCreate(&author, entities.Author{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// GetByID retrieves an author by ID.
func (r *Repository) GetByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.First(&author, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// BooksByAuthor returns the owner's books written by the author.
func (r *Repository) BooksByAuthor(authorID uint, ownerID string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Authors").
		Joins("JOIN book_authors ON book_authors.book_id = books.id").
		Where("book_authors.author_id = ? AND books.owner_id = ?", authorID, ownerID).
		Find(&books).Error
	return books, err
}

// DeleteOrphans removes authors referenced by no book and no wish.
func (r *Repository) DeleteOrphans() (int64, error) {
	result := r.db.Exec(`
		DELETE FROM authors
		WHERE id NOT IN (SELECT author_id FROM book_authors)
		AND id NOT IN (SELECT author_id FROM wish_authors)
	`)
	return result.RowsAffected, result.Error
}
