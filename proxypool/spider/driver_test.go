package spider

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemClock_Sleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, SystemClock{}.Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSystemClock_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSystemClock_ZeroDuration(t *testing.T) {
	assert.NoError(t, SystemClock{}.Sleep(context.Background(), 0))
}

func TestTaskGroup_FailureDoesNotStopSiblings(t *testing.T) {
	var logs bytes.Buffer
	tg := NewTaskGroup(context.Background(), zerolog.New(zerolog.SyncWriter(&logs)))

	errBoom := errors.New("boom")
	var finished atomic.Int32
	tg.Go("failing", func(ctx context.Context) error { return errBoom })
	tg.Go("slow", func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		if ctx.Err() == nil {
			finished.Add(1)
		}
		return nil
	})

	err := tg.Wait()
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(1), finished.Load())
	assert.Contains(t, logs.String(), `"task":"failing"`)
}

func TestTaskGroup_CancelIsNotAnError(t *testing.T) {
	tg := NewTaskGroup(context.Background(), zerolog.Nop())
	tg.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	tg.Cancel()
	assert.NoError(t, tg.Wait())
}
