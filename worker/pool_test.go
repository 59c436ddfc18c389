package worker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunJoinsAllTasks(t *testing.T) {
	p := NewPool(4)
	defer p.Close()
	assert.Equal(t, 4, p.Size())

	var done atomic.Int32
	tasks := make([]Task, 16)
	for i := range tasks {
		delay := time.Duration(16-i) * time.Millisecond
		tasks[i] = func() error {
			time.Sleep(delay)
			done.Add(1)
			return nil
		}
	}
	require.NoError(t, p.Run(tasks...))
	assert.Equal(t, int32(16), done.Load())
}

func TestPoolRunIsReusable(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	for frame := 0; frame < 10; frame++ {
		results := make([]int, 5)
		tasks := make([]Task, len(results))
		for i := range tasks {
			tasks[i] = func() error {
				results[i] = i * frame
				return nil
			}
		}
		require.NoError(t, p.Run(tasks...))
		for i, r := range results {
			assert.Equal(t, i*frame, r)
		}
	}
}

func TestPoolRunCollectsErrorsInSubmissionOrder(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	errA := errors.New("a")
	errB := errors.New("b")
	err := p.Run(
		func() error { time.Sleep(10 * time.Millisecond); return errA },
		func() error { return nil },
		func() error { return errB },
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, "a\nb", err.Error())
}

func TestPoolRunRecoversPanics(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	err := p.Run(func() error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NoError(t, p.Run(func() error { return nil }))
}

func TestPoolRunEmpty(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	assert.Positive(t, p.Size())
	assert.NoError(t, p.Run())
}
