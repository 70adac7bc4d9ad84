// Package books provides database operations for the owned-book catalog.
//
// All reads are scoped to an owner: a user can only ever see their own
// shelf, even though author and tag rows are shared globally.
package books

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/entities"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrDuplicateISBN   = errors.New("book with this ISBN already registered")
	ErrSeriesSlotTaken = errors.New("series position already taken")
)

// SeriesPlacement describes where a book sits inside a series.
type SeriesPlacement struct {
	SeriesID   string
	SeriesName string
	Number     int
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book with its author and tag names in a single
// transaction. Authors and tags are deduplicated by name: an existing row
// is reused, a missing one is created. When placement is non-nil the book
// is attached to the series at the given number.
func (r *Repository) Create(book *entities.Book, authorNames, tagNames []string, placement *SeriesPlacement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateISBN
			}
			return fmt.Errorf("insert book: %w", err)
		}

		if err := r.replaceAssociations(tx, book, authorNames, tagNames); err != nil {
			return err
		}

		if placement != nil {
			if err := attachSeries(tx, book.ID, placement); err != nil {
				return err
			}
		}

		return nil
	})
}

// Update rewrites a book's fields and replaces its author, tag and series
// associations in a single transaction.
func (r *Repository) Update(book *entities.Book, authorNames, tagNames []string, placement *SeriesPlacement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.Book{}).
			Where("id = ? AND owner_id = ?", book.ID, book.OwnerID).
			Select("ISBN", "Title", "Summary", "Published", "Publisher", "Language",
				"GoogleID", "GoodreadsID", "AmazonID", "LibraryThingID", "PageCount",
				"Owned", "Read").
			Updates(book)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return ErrDuplicateISBN
			}
			return fmt.Errorf("update book: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrBookNotFound
		}

		if err := r.replaceAssociations(tx, book, authorNames, tagNames); err != nil {
			return err
		}

		if err := tx.Where("book_id = ?", book.ID).Delete(&entities.BookSeries{}).Error; err != nil {
			return fmt.Errorf("detach series: %w", err)
		}
		if placement != nil {
			if err := attachSeries(tx, book.ID, placement); err != nil {
				return err
			}
		}

		return nil
	})
}

// replaceAssociations swaps the book's author and tag sets for the given
// names, creating missing rows on the way.
func (r *Repository) replaceAssociations(tx *gorm.DB, book *entities.Book, authorNames, tagNames []string) error {
	authors := make([]entities.Author, 0, len(authorNames))
	for _, name := range authorNames {
		var author entities.Author
		if err := tx.Where("name = ?", name).FirstOrCreate(&author, entities.Author{Name: name}).Error; err != nil {
			return fmt.Errorf("upsert author %q: %w", name, err)
		}
		authors = append(authors, author)
	}
	if err := tx.Model(book).Association("Authors").Replace(authors); err != nil {
		return fmt.Errorf("link authors: %w", err)
	}

	tags := make([]entities.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		var tag entities.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, entities.Tag{Name: name}).Error; err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	if err := tx.Model(book).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("link tags: %w", err)
	}

	return nil
}

func attachSeries(tx *gorm.DB, bookID string, placement *SeriesPlacement) error {
	link := entities.BookSeries{
		BookID:   bookID,
		SeriesID: placement.SeriesID,
		Number:   placement.Number,
	}
	if err := tx.Create(&link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSeriesSlotTaken
		}
		return fmt.Errorf("attach series: %w", err)
	}
	return nil
}

// GetByID retrieves one of the owner's books with authors and tags loaded.
func (r *Repository) GetByID(id, ownerID string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Authors").Preload("Tags").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAny retrieves a book regardless of owner. Used by background tasks
// that only carry a book ID.
func (r *Repository) GetAny(id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Authors").Preload("Tags").First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns all of the owner's books ordered by title.
func (r *Repository) List(ownerID string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Authors").
		Where("owner_id = ?", ownerID).
		Order("title").
		Find(&books).Error
	return books, err
}

// ListUnread returns the owner's not-yet-read books ordered by title.
func (r *Repository) ListUnread(ownerID string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Authors").
		Where("owner_id = ? AND read = ?", ownerID, false).
		Order("title").
		Find(&books).Error
	return books, err
}

// Exists reports whether the owner already registered this ISBN.
func (r *Repository) Exists(ownerID, isbn string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).
		Where("owner_id = ? AND isbn = ?", ownerID, isbn).
		Count(&count).Error
	return count > 0, err
}

// Placement returns the book's series slot, or nil when it has none.
func (r *Repository) Placement(bookID string) (*SeriesPlacement, error) {
	var placement SeriesPlacement
	err := r.db.Table("book_series").
		Select("book_series.series_id, series.name AS series_name, book_series.number").
		Joins("JOIN series ON series.id = book_series.series_id").
		Where("book_series.book_id = ?", bookID).
		Take(&placement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &placement, nil
}

// Placements returns the series slots for all of the owner's books, keyed
// by book ID. Used by the unread page to group cards by series.
func (r *Repository) Placements(ownerID string) (map[string]SeriesPlacement, error) {
	type row struct {
		BookID     string
		SeriesID   string
		SeriesName string
		Number     int
	}
	var rows []row
	err := r.db.Table("book_series").
		Select("book_series.book_id, book_series.series_id, series.name AS series_name, book_series.number").
		Joins("JOIN series ON series.id = book_series.series_id").
		Joins("JOIN books ON books.id = book_series.book_id").
		Where("books.owner_id = ?", ownerID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	placements := make(map[string]SeriesPlacement, len(rows))
	for _, r := range rows {
		placements[r.BookID] = SeriesPlacement{
			SeriesID:   r.SeriesID,
			SeriesName: r.SeriesName,
			Number:     r.Number,
		}
	}
	return placements, nil
}

// Delete removes one of the owner's books along with its join rows.
// Orphaned authors and tags are reaped later by the cleanup task.
func (r *Repository) Delete(id, ownerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&book).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&book).Association("Authors").Clear(); err != nil {
			return fmt.Errorf("unlink authors: %w", err)
		}
		if err := tx.Model(&book).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("unlink tags: %w", err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookSeries{}).Error; err != nil {
			return fmt.Errorf("detach series: %w", err)
		}

		return tx.Delete(&book).Error
	})
}

// MetadataUpdate carries the fields the enrichment task may fill in.
// Only non-nil fields are written, and only when currently empty.
type MetadataUpdate struct {
	Summary        *string
	Published      *time.Time
	Publisher      *string
	Language       *string
	GoogleID       *string
	AmazonID       *string
	LibraryThingID *string
	PageCount      *int
}

// FillMissingMetadata writes the provided fields onto the book, skipping
// any field the user already populated.
func (r *Repository) FillMissingMetadata(id string, update MetadataUpdate) ([]string, error) {
	book, err := r.GetAny(id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	var updated []string

	if update.Summary != nil && book.Summary == "" {
		changes["summary"] = *update.Summary
		updated = append(updated, "summary")
	}
	if update.Published != nil && book.Published == nil {
		changes["published"] = *update.Published
		updated = append(updated, "published")
	}
	if update.Publisher != nil && book.Publisher == nil {
		changes["publisher"] = *update.Publisher
		updated = append(updated, "publisher")
	}
	if update.Language != nil && book.Language == nil {
		changes["language"] = *update.Language
		updated = append(updated, "language")
	}
	if update.GoogleID != nil && book.GoogleID == nil {
		changes["google_id"] = *update.GoogleID
		updated = append(updated, "google_id")
	}
	if update.AmazonID != nil && book.AmazonID == nil {
		changes["amazon_id"] = *update.AmazonID
		updated = append(updated, "amazon_id")
	}
	if update.LibraryThingID != nil && book.LibraryThingID == nil {
		changes["librarything_id"] = *update.LibraryThingID
		updated = append(updated, "librarything_id")
	}
	if update.PageCount != nil && book.PageCount == nil {
		changes["page_count"] = *update.PageCount
		updated = append(updated, "page_count")
	}

	if len(changes) == 0 {
		return nil, nil
	}

	err = r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(changes).Error
	if err != nil {
		return nil, fmt.Errorf("fill metadata: %w", err)
	}
	return updated, nil
}

// isUniqueViolation matches sqlite's unique-constraint error text. gorm's
// sqlite driver does not expose a typed error for it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
