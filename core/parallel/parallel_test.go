package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			assert.Equal(t, int32(1), c, "n=%d index %d", n, i)
		}
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestForEachReturnsLowestIndexError(t *testing.T) {
	err := ForEach(50, 8, func(i int) error {
		if i == 13 || i == 40 {
			return fmt.Errorf("failed %d", i)
		}
		return nil
	})
	assert.EqualError(t, err, "failed 13")

	var total int64
	assert.NoError(t, ForEach(20, 3, func(i int) error {
		atomic.AddInt64(&total, int64(i))
		return nil
	}))
	assert.Equal(t, int64(190), total)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 1, Workers(0, 4))
	assert.Equal(t, 3, Workers(3, 8))
	assert.Equal(t, 2, Workers(10, 2))
}
