package dag

import (
	"hash/fnv"
	"math/rand/v2"
)

// SampleRNG returns the random stream of one node for one sample. It is a
// pure function of its arguments.
func SampleRNG(seed uint64, index int, node string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(node))
	return rand.New(rand.NewPCG(seed^h.Sum64(), uint64(index)))
}
