package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns books, series and wishlist entries. Display names are unique
// across the instance.
type User struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"uniqueIndex;size:100" json:"name"`
	PasswordHash  string    `gorm:"size:256" json:"-"`
	PublicOngoing bool      `gorm:"default:false" json:"public_ongoing"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Book is a physical book owned by exactly one user. The same ISBN may be
// registered by different users, but only once per owner.
type Book struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID string `gorm:"size:36;index;uniqueIndex:idx_owner_isbn;not null" json:"owner_id"`
	ISBN    string `gorm:"size:17;uniqueIndex:idx_owner_isbn;not null" json:"isbn"`
	Title   string `gorm:"not null" json:"title"`
	Summary string `gorm:"type:text" json:"summary"`

	Published      *time.Time `json:"published,omitempty"`
	Publisher      *string    `json:"publisher,omitempty"`
	Language       *string    `gorm:"size:10" json:"language,omitempty"`
	GoogleID       *string    `json:"google_id,omitempty"`
	GoodreadsID    *string    `json:"goodreads_id,omitempty"`
	AmazonID       *string    `json:"amazon_id,omitempty"`
	LibraryThingID *string    `json:"librarything_id,omitempty"`
	PageCount      *int       `json:"page_count,omitempty"`

	Owned bool `gorm:"default:true" json:"owned"`
	Read  bool `gorm:"default:false" json:"read"`

	Owner   User     `gorm:"foreignKey:OwnerID" json:"-"`
	Authors []Author `gorm:"many2many:book_authors;" json:"authors,omitempty"`
	Tags    []Tag    `gorm:"many2many:book_tags;" json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is deduplicated globally by name and shared between owners.
type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is deduplicated globally by name.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Series groups an owner's books under a name. TotalCount is the number of
// planned volumes when known; Ongoing marks a series still being published.
type Series struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID    string `gorm:"size:36;uniqueIndex:idx_owner_series;not null" json:"owner_id"`
	Name       string `gorm:"uniqueIndex:idx_owner_series;size:256;not null" json:"name"`
	Ongoing    bool   `gorm:"default:false" json:"ongoing"`
	TotalCount *int   `json:"total_count,omitempty"`

	Owner     User      `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookSeries places a book at a position in a series. The primary key on
// BookID keeps a book in at most one series; the unique (series, number)
// index keeps two books from sharing a slot.
type BookSeries struct {
	BookID   string `gorm:"primaryKey;size:36" json:"book_id"`
	SeriesID string `gorm:"size:36;uniqueIndex:idx_series_number;not null" json:"series_id"`
	Number   int    `gorm:"uniqueIndex:idx_series_number;not null" json:"number"`

	Book   Book   `gorm:"foreignKey:BookID" json:"-"`
	Series Series `gorm:"foreignKey:SeriesID" json:"-"`
}

// Wish is a desired-but-unowned book, structurally parallel to Book but
// without bibliographic fields.
type Wish struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID string `gorm:"size:36;index;not null" json:"owner_id"`
	Name    string `gorm:"size:512;not null" json:"name"`

	Owner   User     `gorm:"foreignKey:OwnerID" json:"-"`
	Authors []Author `gorm:"many2many:wish_authors;" json:"authors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// WishSeries reserves a series slot for a wished book, mirroring BookSeries.
type WishSeries struct {
	WishID   string `gorm:"primaryKey;size:36" json:"wish_id"`
	SeriesID string `gorm:"size:36;uniqueIndex:idx_wish_series_number;not null" json:"series_id"`
	Number   int    `gorm:"uniqueIndex:idx_wish_series_number;not null" json:"number"`

	Wish   Wish   `gorm:"foreignKey:WishID" json:"-"`
	Series Series `gorm:"foreignKey:SeriesID" json:"-"`
}

func (User) TableName() string       { return "users" }
func (Book) TableName() string       { return "books" }
func (Author) TableName() string     { return "authors" }
func (Tag) TableName() string        { return "tags" }
func (Series) TableName() string     { return "series" }
func (BookSeries) TableName() string { return "book_series" }
func (Wish) TableName() string       { return "wishes" }
func (WishSeries) TableName() string { return "wish_series" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (s *Series) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (w *Wish) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
