package metadata

import (
	"context"
	"fmt"

	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/entities"
)

// ProviderGetter resolves lookup providers; the Registry satisfies it.
type ProviderGetter interface {
	Get(name string) (Provider, error)
	Empty() bool
}

// BookStore defines the database operations enrichment needs.
type BookStore interface {
	GetAny(id string) (*entities.Book, error)
	FillMissingMetadata(id string, update books.MetadataUpdate) ([]string, error)
}

// CoverStore defines the cover image operations enrichment needs.
type CoverStore interface {
	Save(ownerID, bookID, coverB64 string) error
	Path(ownerID, bookID string) string
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Book          *entities.Book
	FieldsUpdated []string
	Source        string
}

// Enricher fills in missing book metadata from an external provider.
// Fields the user already populated are never overwritten.
type Enricher struct {
	providers ProviderGetter
	books     BookStore
	covers    CoverStore
}

// NewEnricher creates a new Enricher. The covers store is optional.
func NewEnricher(providers ProviderGetter, bookStore BookStore, coverStore CoverStore) *Enricher {
	return &Enricher{
		providers: providers,
		books:     bookStore,
		covers:    coverStore,
	}
}

// EnrichBook looks the book's ISBN up with the default provider and fills
// whatever fields are still empty, including a missing cover image.
func (e *Enricher) EnrichBook(ctx context.Context, bookID string) (*EnrichmentResult, error) {
	book, err := e.books.GetAny(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	if e.providers.Empty() {
		return nil, fmt.Errorf("no metadata provider configured")
	}
	provider, err := e.providers.Get("")
	if err != nil {
		return nil, err
	}

	details, err := provider.FetchByISBN(ctx, book.ISBN)
	if err != nil {
		return nil, fmt.Errorf("lookup %s via %s: %w", book.ISBN, provider.Name(), err)
	}

	updated, err := e.books.FillMissingMetadata(bookID, updateFromDetails(details))
	if err != nil {
		return nil, fmt.Errorf("update book metadata: %w", err)
	}

	if e.covers != nil && details.CoverArt != "" && e.covers.Path(book.OwnerID, book.ID) == "" {
		if err := e.covers.Save(book.OwnerID, book.ID, details.CoverArt); err == nil {
			updated = append(updated, "cover")
		}
	}

	if len(updated) > 0 {
		book, err = e.books.GetAny(bookID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: updated,
		Source:        provider.Name(),
	}, nil
}

func updateFromDetails(details *BookDetails) books.MetadataUpdate {
	update := books.MetadataUpdate{
		Published: details.Published,
	}
	if details.Summary != "" {
		update.Summary = &details.Summary
	}
	if details.Publisher != "" {
		update.Publisher = &details.Publisher
	}
	if details.Language != "" {
		update.Language = &details.Language
	}
	if details.GoogleID != "" {
		update.GoogleID = &details.GoogleID
	}
	if details.AmazonID != "" {
		update.AmazonID = &details.AmazonID
	}
	if details.LibraryThingID != "" {
		update.LibraryThingID = &details.LibraryThingID
	}
	if details.PageCount > 0 {
		update.PageCount = &details.PageCount
	}
	return update
}
