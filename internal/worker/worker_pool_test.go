package worker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	wp := NewWorkerPool(3, 10, zerolog.Nop())
	wp.Start()

	var done int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, wp.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&done, 1)
		}))
	}
	wg.Wait()
	wp.Stop()

	assert.Equal(t, int32(10), atomic.LoadInt32(&done))
}

func TestWorkerPoolSurvivesPanic(t *testing.T) {
	wp := NewWorkerPool(1, 4, zerolog.Nop())
	wp.Start()

	ran := make(chan struct{})
	require.NoError(t, wp.Submit(func() { panic("boom") }))
	require.NoError(t, wp.Submit(func() { close(ran) }))
	<-ran
	wp.Stop()
}

func TestWorkerPoolRejectsWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, 1, zerolog.Nop())

	// воркеры не запущены, очередь на один элемент
	require.NoError(t, wp.Submit(func() {}))
	assert.ErrorIs(t, wp.Submit(func() {}), ErrQueueFull)

	wp.Start()
	wp.Stop()
	assert.ErrorIs(t, wp.Submit(func() {}), ErrPoolStopped)

	// повторная остановка безопасна
	wp.Stop()
}
