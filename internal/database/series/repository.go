// Package series provides database operations for per-user book series.
package series

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/entities"
)

var ErrSeriesNotFound = errors.New("series not found")

// Volume is a book together with its position in a series.
type Volume struct {
	Book   entities.Book
	Number int
}

// Stats summarizes a series for the ongoing report.
type Stats struct {
	Series     entities.Series
	OwnedCount int
	// Numbers holds the positions currently filled, sorted ascending.
	Numbers []int
}

// Repository handles all series database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new series repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate retrieves the owner's series by name, creating it when missing.
func (r *Repository) GetOrCreate(ownerID, name string) (*entities.Series, error) {
	var s entities.Series
	err := r.db.Where("owner_id = ? AND name = ?", ownerID, name).
		FirstOrCreate(&s, entities.Series{OwnerID: ownerID, Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves one of the owner's series.
func (r *Repository) GetByID(id, ownerID string) (*entities.Series, error) {
	var s entities.Series
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSeriesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update rewrites the series name, ongoing flag and total count.
func (r *Repository) Update(s *entities.Series) error {
	res := r.db.Model(&entities.Series{}).
		Where("id = ? AND owner_id = ?", s.ID, s.OwnerID).
		Select("Name", "Ongoing", "TotalCount").
		Updates(s)
	if res.Error != nil {
		return fmt.Errorf("update series: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSeriesNotFound
	}
	return nil
}

// List returns all of the owner's series ordered by name.
func (r *Repository) List(ownerID string) ([]entities.Series, error) {
	var series []entities.Series
	err := r.db.Where("owner_id = ?", ownerID).Order("name").Find(&series).Error
	return series, err
}

// Volumes returns the books of a series in position order.
func (r *Repository) Volumes(seriesID, ownerID string) ([]Volume, error) {
	type row struct {
		BookID string
		Number int
	}
	var rows []row
	err := r.db.Table("book_series").
		Select("book_series.book_id, book_series.number").
		Joins("JOIN books ON books.id = book_series.book_id").
		Where("book_series.series_id = ? AND books.owner_id = ?", seriesID, ownerID).
		Order("book_series.number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	volumes := make([]Volume, 0, len(rows))
	for _, row := range rows {
		var book entities.Book
		if err := r.db.Preload("Authors").First(&book, "id = ?", row.BookID).Error; err != nil {
			return nil, err
		}
		volumes = append(volumes, Volume{Book: book, Number: row.Number})
	}
	return volumes, nil
}

// StatsFor returns ownership statistics for all of the owner's series.
func (r *Repository) StatsFor(ownerID string) ([]Stats, error) {
	series, err := r.List(ownerID)
	if err != nil {
		return nil, err
	}

	stats := make([]Stats, 0, len(series))
	for _, s := range series {
		var numbers []int
		err := r.db.Table("book_series").
			Select("book_series.number").
			Joins("JOIN books ON books.id = book_series.book_id").
			Where("book_series.series_id = ? AND books.owner_id = ?", s.ID, ownerID).
			Scan(&numbers).Error
		if err != nil {
			return nil, err
		}
		sort.Ints(numbers)
		stats = append(stats, Stats{Series: s, OwnedCount: len(numbers), Numbers: numbers})
	}
	return stats, nil
}

// MissingVolumes returns the unfilled positions 1..TotalCount of a series.
// A series without a known total has no missing volumes to report.
func MissingVolumes(s Stats) []int {
	if s.Series.TotalCount == nil {
		return nil
	}

	present := make(map[int]bool, len(s.Numbers))
	for _, n := range s.Numbers {
		present[n] = true
	}

	var missing []int
	for n := 1; n <= *s.Series.TotalCount; n++ {
		if !present[n] {
			missing = append(missing, n)
		}
	}
	return missing
}
