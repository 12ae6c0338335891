package reader

import (
	"fmt"

	"github.com/kbukum/augkit/errors"
)

// ShardRange returns the half-open range [start, end) of sorted sample
// positions owned by shardID when total samples are split numShards ways.
func ShardRange(total, shardID, numShards int) (start, end int) {
	start = shardID * total / numShards
	end = (shardID + 1) * total / numShards
	return start, end
}

// InShard reports whether the sample at position index belongs to shardID.
func InShard(index, total, shardID, numShards int) bool {
	start, end := ShardRange(total, shardID, numShards)
	return index >= start && index < end
}

// ValidateShard checks 0 <= shardID < numShards.
func ValidateShard(shardID, numShards int) error {
	if numShards <= 0 {
		return errors.Configuration("num_shards", fmt.Sprintf("must be positive (got %d)", numShards))
	}
	if shardID < 0 || shardID >= numShards {
		return errors.Configuration("shard_id", fmt.Sprintf("must be in [0, %d) (got %d)", numShards, shardID))
	}
	return nil
}
