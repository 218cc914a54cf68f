package sampling

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// SeedFromString derives a deterministic seed from a string, typically the
// output path, so that reruns into the same place reproduce the same table.
func SeedFromString(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // hash.Write never returns an error
	return int64(h.Sum64())
}

// TaskSeed derives the seed of a single blink event from the run seed.
func TaskSeed(seed int64, id int) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d_blink_%d", seed, id)
	return h.Sum64()
}

// NewRand returns a generator owned by one unit of work.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
