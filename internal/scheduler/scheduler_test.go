package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsImmediately(t *testing.T) {
	var calls atomic.Int32
	s := New("@every 24h", "harvest", func(context.Context) error {
		calls.Add(1)
		return errors.New("logged, not fatal")
	}, nil)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New("every tuesday-ish", "harvest", func(context.Context) error { return nil }, nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestCancelledContextSkipsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	s := New("@every 24h", "harvest", func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	s.runOnce(ctx)
	assert.Equal(t, int32(0), calls.Load())
}
