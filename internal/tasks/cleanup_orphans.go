package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// OrphanCleaner deletes rows no longer referenced by any book or wish.
// Both the author and tag repositories satisfy it.
type OrphanCleaner interface {
	DeleteOrphans() (int64, error)
}

// CleanupOrphansTask removes authors and tags that no book or wish
// references anymore. Author and tag rows are shared between users, so
// they are only swept once nothing at all points at them.
type CleanupOrphansTask struct{}

// Config returns the queue configuration for cleanup tasks.
func (t CleanupOrphansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphans",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphansProcessor creates a processor function for CleanupOrphansTask.
func CleanupOrphansProcessor(authorCleaner, tagCleaner OrphanCleaner) backlite.QueueProcessor[CleanupOrphansTask] {
	return func(ctx context.Context, task CleanupOrphansTask) error {
		if authorCleaner == nil || tagCleaner == nil {
			return fmt.Errorf("orphan cleaners not configured")
		}

		authors, err := authorCleaner.DeleteOrphans()
		if err != nil {
			return fmt.Errorf("cleanup orphan authors: %w", err)
		}

		tags, err := tagCleaner.DeleteOrphans()
		if err != nil {
			return fmt.Errorf("cleanup orphan tags: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d orphan authors and %d orphan tags", authors, tags)
		return nil
	}
}

// NewCleanupOrphansQueue creates a backlite queue for orphan cleanup tasks.
func NewCleanupOrphansQueue(authorCleaner, tagCleaner OrphanCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupOrphansProcessor(authorCleaner, tagCleaner))
}
