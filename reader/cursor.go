package reader

import (
	"fmt"
	"math/rand/v2"

	"github.com/kbukum/augkit/errors"
)

// entry is one listed sample before its payload is loaded.
type entry struct {
	index int
	key   string
	label int
}

// cursor owns the shard slice of a listing and the per-epoch visiting order.
type cursor struct {
	shardID   int
	numShards int
	shuffle   bool
	seed      uint64

	entries []entry
	order   []int
	pos     int
	epoch   int
}

func newCursor(shardID, numShards int, shuffle bool) *cursor {
	return &cursor{shardID: shardID, numShards: numShards, shuffle: shuffle}
}

// load keeps the shard's part of the full sorted listing and starts epoch 0.
func (c *cursor) load(root string, all []entry, seed uint64) error {
	if err := ValidateShard(c.shardID, c.numShards); err != nil {
		return err
	}
	for i := range all {
		all[i].index = i
	}
	start, end := ShardRange(len(all), c.shardID, c.numShards)
	if start == end {
		return errors.NotFound(root, fmt.Sprintf("no eligible samples for shard %d/%d (%d total)",
			c.shardID, c.numShards, len(all)))
	}
	c.entries = all[start:end]
	c.seed = seed
	c.epoch = 0
	c.arrange()
	return nil
}

// rewind advances to the next epoch.
func (c *cursor) rewind() {
	c.epoch++
	c.arrange()
}

func (c *cursor) arrange() {
	c.pos = 0
	if !c.shuffle {
		c.order = nil
		return
	}
	c.order = Permutation(len(c.entries), c.seed, c.epoch)
}

func (c *cursor) next() (entry, bool) {
	if c.pos >= len(c.entries) {
		return entry{}, false
	}
	i := c.pos
	if c.order != nil {
		i = c.order[c.pos]
	}
	c.pos++
	return c.entries[i], true
}

// Permutation returns the shuffle order of n samples for an epoch. It is a
// pure function of (n, seed, epoch).
func Permutation(n int, seed uint64, epoch int) []int {
	rng := rand.New(rand.NewPCG(seed, uint64(epoch)))
	return rng.Perm(n)
}
