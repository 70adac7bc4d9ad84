// Package metadata fetches bibliographic records from external providers.
//
// Two providers are supported: the OpenLibrary HTTP API and calibre's
// fetch-ebook-metadata command line tool. Both produce the same
// BookDetails record, so callers never need to know which one served a
// lookup.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/traxys/bouquineur/internal/config"
)

// ErrNotFound marks a clean provider miss: the ISBN is valid but unknown.
var ErrNotFound = errors.New("no metadata found for ISBN")

// BookDetails is the provider-neutral lookup result. Every field may be
// empty; the add form simply leaves the matching input blank.
type BookDetails struct {
	ISBN           string
	Title          string
	Authors        []string
	Tags           []string
	Summary        string
	Published      *time.Time
	Publisher      string
	Language       string
	GoogleID       string
	AmazonID       string
	LibraryThingID string
	PageCount      int
	// CoverArt holds the cover image bytes as base64-encoded JPEG.
	CoverArt string
}

// Provider fetches book metadata for an ISBN.
type Provider interface {
	// FetchByISBN returns the record for the ISBN, or ErrNotFound when the
	// provider does not know it.
	FetchByISBN(ctx context.Context, isbn string) (*BookDetails, error)
	// Name is the stable identifier used in the provider query parameter.
	Name() string
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers       map[string]Provider
	order           []string
	defaultProvider string
}

// NewRegistry builds the provider set from configuration. An empty
// provider list enables every known provider.
func NewRegistry(cfg config.Metadata) (*Registry, error) {
	known := []Provider{
		NewOpenLibraryClient(cfg.Contact),
		NewCalibreFetcher(cfg.CalibreFetcher),
	}

	enabled := cfg.Providers
	if len(enabled) == 0 {
		for _, p := range known {
			enabled = append(enabled, p.Name())
		}
	}

	byName := make(map[string]Provider, len(known))
	for _, p := range known {
		byName[p.Name()] = p
	}

	registry := &Registry{
		providers:       make(map[string]Provider, len(enabled)),
		defaultProvider: cfg.DefaultProvider,
	}
	for _, name := range enabled {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown metadata provider %q", name)
		}
		registry.providers[name] = p
		registry.order = append(registry.order, name)
	}

	if _, ok := registry.providers[registry.defaultProvider]; !ok && len(registry.order) > 0 {
		registry.defaultProvider = registry.order[0]
	}

	return registry, nil
}

// Get returns the provider for the given name, falling back to the default
// when the name is empty.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown metadata provider %q", name)
	}
	return p, nil
}

// Names lists the enabled providers in configuration order.
func (r *Registry) Names() []string {
	return r.order
}

// Default returns the default provider name.
func (r *Registry) Default() string {
	return r.defaultProvider
}

// Empty reports whether no provider is enabled at all.
func (r *Registry) Empty() bool {
	return len(r.providers) == 0
}

// NormalizeISBN strips separators and whitespace from a user-supplied ISBN.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	return strings.TrimSpace(isbn)
}
