// Package tags provides database operations for the global tag table.
package tags

import (
	"errors"

	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/entities"
)

var ErrTagNotFound = errors.New("tag not found")

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate retrieves a tag by exact name, creating it when missing.
func (r *Repository) GetOrCreate(name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.Where("name = ?", name).FirstOrCreate(&tag, entities.Tag{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetByID retrieves a tag by ID.
func (r *Repository) GetByID(id uint) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Search returns tags matching the query, for form autocompletion.
func (r *Repository) Search(query string) ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%").
		Order("name").
		Limit(20).
		Find(&tags).Error
	return tags, err
}

// DeleteOrphans removes tags referenced by no book.
func (r *Repository) DeleteOrphans() (int64, error) {
	result := r.db.Exec(`
		DELETE FROM tags
		WHERE id NOT IN (SELECT tag_id FROM book_tags)
	`)
	return result.RowsAffected, result.Error
}
