package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) Cleanup(context.Context) int {
	c.calls.Add(1)
	return 0
}

func TestSweeper_Run(t *testing.T) {
	// Given: a sweeper with a short interval
	cleaner := &countingCleaner{}
	sweeper := NewSweeper(discardLogger(), cleaner, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// When: it runs for a while and is cancelled
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	// Then: it stops without error
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	sweeper := NewSweeper(discardLogger(), &countingCleaner{}, 0)

	assert.Equal(t, DefaultCleanupInterval, sweeper.interval)
}
