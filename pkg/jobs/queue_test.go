package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversInOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	q := NewQueue("ordered", func(_ context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.Payload.(int))
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())

	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(Job{Payload: i}))
	}
	q.Drain()

	require.Len(t, seen, 50)
	for i, v := range seen {
		assert.Equal(t, i, v)
	}
}

func TestQueueRetriesInline(t *testing.T) {
	attempts := 0
	var order []string
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		if job.ID == "first" && attempts < 2 {
			attempts++
			return errors.New("transient")
		}
		order = append(order, job.ID)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "first"}))
	require.NoError(t, q.Enqueue(Job{ID: "second"}))
	q.Drain()

	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
	assert.False(t, q.Started())

	q.Start(context.Background())
	assert.True(t, q.Started())
	q.Drain()
	assert.Error(t, q.Enqueue(Job{}))
}
