package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_ValidatesSchedule(t *testing.T) {
	s := NewScheduler(time.Second)

	require.NoError(t, s.Add("refresh", "@every 1h", func(context.Context) error { return nil }))
	require.NoError(t, s.Add("sweep", "5 0 * * *", func(context.Context) error { return nil }))
	assert.Equal(t, 2, s.Len())

	err := s.Add("broken", "every now and then", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 2, s.Len())
}

func TestWrap_BoundsRunWithTimeout(t *testing.T) {
	s := NewScheduler(50 * time.Millisecond)

	var deadline time.Time
	var hasDeadline bool
	s.wrap("nisab-refresh", func(ctx context.Context) error {
		deadline, hasDeadline = ctx.Deadline()
		return errors.New("upstream down")
	})()

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(time.Second)
	require.NoError(t, s.Add("noop", "@every 1h", func(context.Context) error { return nil }))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err(), "stop should return before the deadline with no running jobs")
}
