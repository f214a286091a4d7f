package search

import (
	"fmt"
	"sync"

	"github.com/aeddk-bnh/go/pkg/board"
)

// shardedTT is a sharded zobrist-keyed map of live tree nodes. Each shard
// has its own lock; there is no global lock and no cross-shard consistency.
// The table is advisory: a miss is always safe, and entries may go stale
// when subtrees are dropped, so callers must re-validate a hit (typically
// that the node is still a direct child of the intended parent) before use.
type shardedTT struct {
	shards []ttShard
}

type ttShard struct {
	mu sync.Mutex
	m  map[board.ZobristHash]*node
}

func newShardedTT(shards int) *shardedTT {
	if shards < 1 {
		shards = 1
	}
	tt := &shardedTT{shards: make([]ttShard, shards)}
	for i := range tt.shards {
		tt.shards[i].m = make(map[board.ZobristHash]*node)
	}
	return tt
}

func (t *shardedTT) shard(key board.ZobristHash) *ttShard {
	return &t.shards[uint64(key)%uint64(len(t.shards))]
}

func (t *shardedTT) Insert(key board.ZobristHash, n *node) {
	s := t.shard(key)
	s.mu.Lock()
	s.m[key] = n
	s.mu.Unlock()
}

func (t *shardedTT) Get(key board.ZobristHash) *node {
	s := t.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key]
}

func (t *shardedTT) Erase(key board.ZobristHash) {
	s := t.shard(key)
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Clear empties every shard. This is the only eviction path.
func (t *shardedTT) Clear() {
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		s.m = make(map[board.ZobristHash]*node)
		s.mu.Unlock()
	}
}

// Len counts entries across shards. Approximate under concurrent writes.
func (t *shardedTT) Len() int {
	var total int
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		total += len(s.m)
		s.mu.Unlock()
	}
	return total
}

func (t *shardedTT) String() string {
	return fmt.Sprintf("TT[%v shards, %v entries]", len(t.shards), t.Len())
}
