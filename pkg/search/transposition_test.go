package search

import (
	"sync"
	"testing"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedTT(t *testing.T) {
	tt := newShardedTT(64)

	a, b := &node{}, &node{}
	tt.Insert(1, a)
	tt.Insert(65, b) // same shard as key 1

	assert.Same(t, a, tt.Get(1))
	assert.Same(t, b, tt.Get(65))
	assert.Nil(t, tt.Get(2))
	assert.Equal(t, 2, tt.Len())

	// Overwrite.
	tt.Insert(1, b)
	assert.Same(t, b, tt.Get(1))

	tt.Erase(1)
	assert.Nil(t, tt.Get(1))

	tt.Clear()
	assert.Equal(t, 0, tt.Len())
	assert.Nil(t, tt.Get(65))
}

func TestShardedTTMinimumShards(t *testing.T) {
	tt := newShardedTT(0)
	require.Equal(t, 1, len(tt.shards))

	tt.Insert(42, &node{})
	assert.NotNil(t, tt.Get(42))
}

func TestShardedTTConcurrent(t *testing.T) {
	tt := newShardedTT(8)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			n := &node{}
			for i := 0; i < 1000; i++ {
				key := board.ZobristHash(g*1000 + i)
				tt.Insert(key, n)
				assert.Same(t, n, tt.Get(key))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 8000, tt.Len())
}
