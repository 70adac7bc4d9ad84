package http

import (
	"github.com/traxys/bouquineur/internal/metadata"
)

// This file consolidates the non-repository interfaces HTTP controllers
// depend on, so tests can substitute fakes without touching the network or
// the task queue.

// ProviderSource selects metadata providers by name. Implemented by
// metadata.Registry.
type ProviderSource interface {
	Get(name string) (metadata.Provider, error)
	Names() []string
	Default() string
	Empty() bool
}

// TaskEnqueuer submits background work. Implemented by tasks.Client.
type TaskEnqueuer interface {
	EnqueueEnrichBook(bookID string) error
	EnqueueCleanupOrphans() error
}
