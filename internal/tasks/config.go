package tasks

import "time"

// Config sizes the queue worker pool and its maintenance timers. Retry,
// timeout and retention policies are per-queue and live on the task types.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// ReleaseAfter is how long a claimed task may run before it is handed
	// back to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks are swept.
	CleanupInterval time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
