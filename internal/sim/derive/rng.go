// Package derive computes the world's derived systems: time of day, tide,
// weather, travel cost and per-turn movement constraints. Every function here
// is pure in (elapsed minutes, configuration, seed) so that identical inputs
// always produce identical outputs, which replay and the determinism tests
// depend on.
package derive

import (
	"fmt"
	"hash/fnv"
)

// lcg is a small linear-congruential stream. Each weather recompute bucket
// reseeds its own stream from "seed:bucket", so values are stable within a
// bucket and change only at bucket boundaries. Never swap this for a system
// entropy source.
type lcg struct {
	s uint64
}

func newLCG(seed int64, bucket int64) *lcg {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d", seed, bucket)
	s := h.Sum64()
	if s == 0 {
		s = 0x9e3779b97f4a7c15
	}
	return &lcg{s: s}
}

func (g *lcg) next() uint64 {
	g.s = g.s*6364136223846793005 + 1442695040888963407
	return g.s
}

// float returns a value in [0,1).
func (g *lcg) float() float64 {
	return float64(g.next()>>11) / float64(1<<53)
}

// intn returns a value in [0,n).
func (g *lcg) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(g.next() % uint64(n))
}

// pick selects an index from cumulative-free weights.
func (g *lcg) pick(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := g.float() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}
