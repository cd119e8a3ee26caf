package fallback

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// SelectorVersion identifies the hash definition below. The selection must
// stay reproducible across processes and across language ports, so the hash
// is frozen: any change to it bumps this version.
const SelectorVersion = 1

// Selector deterministically maps a stable external key to a corpus row.
// It is the fallback used when no query embedding is available. The hash is
// FNV-1a 64-bit over the raw UTF-8 key bytes, reduced modulo corpus size.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Select maps key to a row in [0, n). An empty key has no entity to stay
// consistent for and yields a uniformly random row.
func (s *Selector) Select(key string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("corpus size must be positive, got %d", n)
	}
	if key == "" {
		return rand.Intn(n), nil
	}
	return int(stableHash(key) % uint64(n)), nil
}

// CosmeticSimilarity produces the simulated score reported with a fallback
// selection: 0.75 + (hash(key+filename) mod 20)/100, rounded to 4 decimals.
// It is illustrative only and never compared against the match threshold.
func (s *Selector) CosmeticSimilarity(key, filename string) float64 {
	sim := 0.75 + float64(stableHash(key+filename)%20)/100.0
	return math.Round(sim*10000) / 10000
}

func stableHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
