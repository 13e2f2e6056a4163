package runtime

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/souvenir/pkg/domain"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func steps(log *[]string, name string, delays ...time.Duration) iter.Seq[domain.Step] {
	return func(yield func(domain.Step) bool) {
		for i, d := range delays {
			*log = append(*log, name+string(rune('0'+i)))
			if !yield(domain.Wait(d)) {
				return
			}
		}
		*log = append(*log, name+" done")
	}
}

func TestLoop_StepHonoursWaits(t *testing.T) {
	defer goleak.VerifyNone(t)

	var log []string
	l := NewLoop()
	defer l.Close()
	l.Spawn("a", steps(&log, "a", 0, 100*time.Millisecond))

	assert.Equal(t, 1, l.Step(t0))
	assert.Equal(t, []string{"a0"}, log)

	l.Step(t0.Add(10 * time.Millisecond))
	assert.Equal(t, []string{"a0", "a1"}, log)

	l.Step(t0.Add(50 * time.Millisecond))
	assert.Equal(t, []string{"a0", "a1"}, log, "still waiting")

	assert.Equal(t, 0, l.Step(t0.Add(110*time.Millisecond)))
	assert.Equal(t, []string{"a0", "a1", "a done"}, log)
}

func TestLoop_SpawnedTaskStartsNextStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	var log []string
	l := NewLoop()
	defer l.Close()
	l.Spawn("parent", func(yield func(domain.Step) bool) {
		l.Spawn("child", steps(&log, "child", 0))
		log = append(log, "parent")
		yield(domain.Yield())
	})

	l.Step(t0)
	assert.Equal(t, []string{"parent"}, log)
	assert.Equal(t, 2, l.Live(), "child pending")
	l.Step(t0)
	assert.Equal(t, []string{"parent", "child0"}, log)
}

func TestLoop_FailedAndPanickingTasksAreKilled(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLoop()
	defer l.Close()
	cleaned := false
	l.Spawn("fail", func(yield func(domain.Step) bool) {
		defer func() { cleaned = true }()
		if yield(domain.Fail(errors.New("boom"))) {
			yield(domain.Yield())
		}
	})
	l.Spawn("panic", func(yield func(domain.Step) bool) {
		panic("kaboom")
	})

	assert.Equal(t, 0, l.Step(t0))
	assert.True(t, cleaned)
}

func TestLoop_CloseKillsTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLoop()
	cleaned := false
	task := l.Spawn("forever", func(yield func(domain.Step) bool) {
		defer func() { cleaned = true }()
		for yield(domain.Yield()) {
		}
	})
	l.Step(t0)
	l.Step(t0)
	assert.False(t, task.Done())

	l.Close()
	assert.True(t, task.Done())
	assert.True(t, cleaned)
	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
}

func TestLoop_RunServesCalls(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLoop(WithTick(time.Millisecond))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	counter := 0
	for range 3 {
		require.NoError(t, l.Call(ctx, func() { counter++ }))
	}
	n, err := Query(ctx, l, func() int { return counter })
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	l.Stop()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}

func TestLoop_RunReturnsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLoop(WithTick(time.Millisecond))
	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}
