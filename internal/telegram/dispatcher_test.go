package telegram

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsQueuedJobsBeforeClose(t *testing.T) {
	d := NewDispatcher(3, time.Second, nil)

	var done atomic.Int32
	for i := 0; i < 20; i++ {
		ok := d.Submit(Job{Name: "count", Send: func(context.Context) error {
			done.Add(1)
			return nil
		}})
		assert.True(t, ok)
	}
	d.Close()

	assert.Equal(t, int32(20), done.Load())
}

func TestDispatcherSurvivesFailingJobs(t *testing.T) {
	d := NewDispatcher(1, time.Second, nil)

	var ran atomic.Int32
	d.Submit(Job{Name: "fail", Send: func(context.Context) error {
		ran.Add(1)
		return errors.New("bot blocked")
	}})
	d.Submit(Job{Name: "ok", Send: func(context.Context) error {
		ran.Add(1)
		return nil
	}})
	d.Close()

	assert.Equal(t, int32(2), ran.Load())
}

func TestDispatcherJobTimeout(t *testing.T) {
	d := NewDispatcher(1, 20*time.Millisecond, nil)

	errs := make(chan error, 1)
	d.Submit(Job{Name: "slow", Send: func(ctx context.Context) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	}})
	d.Close()

	assert.ErrorIs(t, <-errs, context.DeadlineExceeded)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(1, time.Second, nil)
	d.Close()
	d.Close()

	assert.False(t, d.Submit(Job{Name: "late", Send: func(context.Context) error { return nil }}))
}
