// Package wishes provides database operations for wishlist entries.
package wishes

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/entities"
)

var (
	ErrWishNotFound    = errors.New("wish not found")
	ErrSeriesSlotTaken = errors.New("series position already taken")
)

// SeriesSlot reserves a position in a series for a wished book.
type SeriesSlot struct {
	SeriesID string
	Number   int
}

// Repository handles all wishlist database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new wishes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a wish with its author names, deduplicating authors the
// same way books do. A non-nil slot reserves a series position.
func (r *Repository) Create(wish *entities.Wish, authorNames []string, slot *SeriesSlot) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(wish).Error; err != nil {
			return fmt.Errorf("insert wish: %w", err)
		}

		authors := make([]entities.Author, 0, len(authorNames))
		for _, name := range authorNames {
			var author entities.Author
			if err := tx.Where("name = ?", name).FirstOrCreate(&author, entities.Author{Name: name}).Error; err != nil {
				return fmt.Errorf("upsert author %q: %w", name, err)
			}
			authors = append(authors, author)
		}
		if err := tx.Model(wish).Association("Authors").Replace(authors); err != nil {
			return fmt.Errorf("link authors: %w", err)
		}

		if slot != nil {
			link := entities.WishSeries{
				WishID:   wish.ID,
				SeriesID: slot.SeriesID,
				Number:   slot.Number,
			}
			if err := tx.Create(&link).Error; err != nil {
				if strings.Contains(err.Error(), "UNIQUE constraint failed") {
					return ErrSeriesSlotTaken
				}
				return fmt.Errorf("reserve series slot: %w", err)
			}
		}

		return nil
	})
}

// GetByID retrieves one of the owner's wishes with authors loaded.
func (r *Repository) GetByID(id, ownerID string) (*entities.Wish, error) {
	var wish entities.Wish
	err := r.db.Preload("Authors").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&wish).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWishNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wish, nil
}

// List returns all of the owner's wishes ordered by name.
func (r *Repository) List(ownerID string) ([]entities.Wish, error) {
	var wishes []entities.Wish
	err := r.db.Preload("Authors").
		Where("owner_id = ?", ownerID).
		Order("name").
		Find(&wishes).Error
	return wishes, err
}

// Slot returns the wish's reserved series position, or nil when it has none.
func (r *Repository) Slot(wishID string) (*SeriesSlot, error) {
	var link entities.WishSeries
	err := r.db.Where("wish_id = ?", wishID).Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &SeriesSlot{SeriesID: link.SeriesID, Number: link.Number}, nil
}

// Delete removes one of the owner's wishes along with its join rows.
func (r *Repository) Delete(id, ownerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var wish entities.Wish
		err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&wish).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWishNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&wish).Association("Authors").Clear(); err != nil {
			return fmt.Errorf("unlink authors: %w", err)
		}
		if err := tx.Where("wish_id = ?", id).Delete(&entities.WishSeries{}).Error; err != nil {
			return fmt.Errorf("release series slot: %w", err)
		}

		return tx.Delete(&wish).Error
	})
}
