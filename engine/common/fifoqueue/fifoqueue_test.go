package fifoqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFifoQueueOrder(t *testing.T) {
	q, err := NewFifoQueue[int]()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.True(t, q.Push(i))
	}
	head, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, 0, head)

	for i := 0; i < 10; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestFifoQueueCapacity(t *testing.T) {
	var lengths []int
	q, err := NewFifoQueue[string](
		WithCapacity(2),
		WithLengthObserver(func(l int) { lengths = append(lengths, l) }),
	)
	require.NoError(t, err)

	assert.True(t, q.Push("a"))
	assert.True(t, q.Push("b"))
	assert.False(t, q.Push("c"))
	assert.Equal(t, 2, q.Len())

	_, _ = q.Pop()
	assert.Equal(t, []int{1, 2, 1}, lengths)
}

func TestFifoQueueInvalidOptions(t *testing.T) {
	_, err := NewFifoQueue[int](WithCapacity(0))
	assert.Error(t, err)
	_, err = NewFifoQueue[int](WithLengthObserver(nil))
	assert.Error(t, err)
}

// PushFunc must hand out sequence numbers in queue order, even under
// concurrent producers.
func TestFifoQueuePushFuncConcurrent(t *testing.T) {
	q, err := NewFifoQueue[int]()
	require.NoError(t, err)

	next := 0
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.PushFunc(func() int {
					next++
					return next
				})
			}
		}()
	}
	wg.Wait()

	prev := 0
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		require.Greater(t, v, prev)
		prev = v
	}
	assert.Equal(t, 800, prev)
}
