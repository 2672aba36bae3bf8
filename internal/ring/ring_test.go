package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingFIFO(t *testing.T) {
	r := New[int](3)
	require.Equal(t, 4, r.Cap())

	for i := 0; i < 4; i++ {
		assert.Equal(t, Pushed, r.TryPush(i))
	}
	assert.Equal(t, Full, r.TryPush(99))
	assert.Equal(t, 4, r.Pending())

	for i := 0; i < 4; i++ {
		v, ok := r.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := r.TryPop()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Pending())
}

func TestRingWrapsAround(t *testing.T) {
	r := New[int](2)
	for i := 0; i < 100; i++ {
		require.Equal(t, Pushed, r.TryPush(i))
		v, ok := r.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestRingClose(t *testing.T) {
	r := New[string](4)
	require.Equal(t, Pushed, r.TryPush("a"))
	r.Close()
	r.Close()

	assert.True(t, r.IsClosed())
	assert.Equal(t, Closed, r.TryPush("b"))
	assert.Equal(t, 1, r.Pending())

	v, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 0, r.Pending())
}

func TestRingRoundUp(t *testing.T) {
	assert.Equal(t, 2, RoundUp(0))
	assert.Equal(t, 2, RoundUp(2))
	assert.Equal(t, 8, RoundUp(5))
	assert.Equal(t, 1024, RoundUp(1024))
}

// TestRingConcurrentProducers checks that values from every producer come out
// once and in the producer's own order.
func TestRingConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 5000

	r := New[[2]int](64)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; {
				if r.TryPush([2]int{p, i}) == Pushed {
					i++
				}
			}
		}(p)
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	received := 0
	for received < producers*perProducer {
		v, ok := r.TryPop()
		if !ok {
			continue
		}
		require.Equal(t, last[v[0]]+1, v[1], "producer %d out of order", v[0])
		last[v[0]] = v[1]
		received++
	}
	wg.Wait()
	assert.Equal(t, 0, r.Pending())
}
