package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traxys/bouquineur/internal/config"
)

type stubEnqueuer struct {
	calls int
}

func (s *stubEnqueuer) EnqueueCleanupOrphans() error {
	s.calls++
	return nil
}

func TestCleanupScheduler_StartStop(t *testing.T) {
	scheduler := NewCleanupScheduler(config.Cleanup{
		Enabled:  true,
		Schedule: "0 4 * * *",
	}, &stubEnqueuer{})

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())
	require.NotNil(t, scheduler.GetNextRunTime())

	// Start is idempotent
	require.NoError(t, scheduler.Start(context.Background()))

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
	assert.Nil(t, scheduler.GetNextRunTime())

	// Stop is idempotent too
	scheduler.Stop()
}

func TestCleanupScheduler_Disabled(t *testing.T) {
	scheduler := NewCleanupScheduler(config.Cleanup{Enabled: false}, &stubEnqueuer{})

	require.NoError(t, scheduler.Start(context.Background()))
	assert.False(t, scheduler.IsRunning())
}

func TestCleanupScheduler_InvalidSchedule(t *testing.T) {
	scheduler := NewCleanupScheduler(config.Cleanup{
		Enabled:  true,
		Schedule: "every now and then",
	}, &stubEnqueuer{})

	err := scheduler.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, scheduler.IsRunning())
}

func TestCleanupScheduler_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	scheduler := NewCleanupScheduler(config.Cleanup{
		Enabled:  true,
		Schedule: "0 4 * * *",
	}, &stubEnqueuer{})

	require.NoError(t, scheduler.Start(ctx))
	require.True(t, scheduler.IsRunning())

	cancel()

	assert.Eventually(t, func() bool {
		return !scheduler.IsRunning()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCleanupScheduler_RunCleanup(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	scheduler := NewCleanupScheduler(config.Cleanup{Enabled: true, Schedule: "0 4 * * *"}, enqueuer)

	scheduler.runCleanup()
	assert.Equal(t, 1, enqueuer.calls)
}
