// Package weather derives a deterministic daily weather flavor string
// from simplex noise, so the same seed always produces the same weather
// sequence for a run.
package weather

import "github.com/ojrac/opensimplex-go"

// flavors is the closed set of weather descriptors, ordered from clearest
// to stormiest so noise buckets map naturally onto severity.
var flavors = []string{
	"clear", "mild", "overcast", "windy", "rainy", "stormy",
}

// Generator produces a deterministic per-day weather flavor.
type Generator struct {
	noise opensimplex.Noise
}

// NewGenerator builds a generator seeded for reproducible runs.
func NewGenerator(seed int64) *Generator {
	return &Generator{noise: opensimplex.NewNormalized(seed)}
}

// Flavor returns the weather descriptor for the given 1-indexed day. The
// same (seed, day) pair always yields the same flavor.
func (g *Generator) Flavor(day int) string {
	v := g.noise.Eval2(float64(day)*0.37, 0.5)
	idx := int(v * float64(len(flavors)))
	if idx >= len(flavors) {
		idx = len(flavors) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return flavors[idx]
}
