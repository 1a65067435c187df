package spider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Driver runs harvest tasks. Cancelling the driver cancels every pending fetch and
// sleep of every task it runs.
type Driver interface {
	Go(name string, task func(ctx context.Context) error)
}

// TaskGroup 是基于 errgroup 的 Driver 实现。
// 一个任务失败只会结束它自己，其它任务继续运行。
type TaskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	g      errgroup.Group
	l      zerolog.Logger
}

// NewTaskGroup creates a TaskGroup whose tasks stop when ctx is done or Cancel is called.
func NewTaskGroup(ctx context.Context, l zerolog.Logger) *TaskGroup {
	ctx, cancel := context.WithCancel(ctx)
	return &TaskGroup{ctx: ctx, cancel: cancel, l: l}
}

func (t *TaskGroup) Go(name string, task func(ctx context.Context) error) {
	t.g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %s panicked: %v", name, r)
			}
			switch {
			case err == nil:
				t.l.Debug().Str("task", name).Msg("Harvest task finished.")
			case t.ctx.Err() != nil && errors.Is(err, t.ctx.Err()):
				t.l.Debug().Str("task", name).Msg("Harvest task cancelled.")
				err = nil
			default:
				t.l.Error().Err(err).Str("task", name).Msg("Harvest task stopped with error.")
			}
		}()
		return task(t.ctx)
	})
}

// Wait blocks until every task has returned and reports the first task error.
func (t *TaskGroup) Wait() error {
	return t.g.Wait()
}

// Cancel stops every task.
func (t *TaskGroup) Cancel() {
	t.cancel()
}

// Clock 提供可替换的等待原语，测试中可以用假时钟快进。
type Clock interface {
	// Sleep blocks for d or until ctx is done, in which case it returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock sleeps on real timers.
type SystemClock struct{}

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
