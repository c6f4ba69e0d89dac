package weather

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlavorIsDeterministicForSameSeedAndDay(t *testing.T) {
	g1 := NewGenerator(42)
	g2 := NewGenerator(42)

	for day := 1; day <= 30; day++ {
		require.Equal(t, g1.Flavor(day), g2.Flavor(day), "day %d should match across generators with the same seed", day)
	}
}

func TestFlavorAlwaysInClosedSet(t *testing.T) {
	g := NewGenerator(7)
	valid := map[string]bool{}
	for _, f := range flavors {
		valid[f] = true
	}
	for day := 1; day <= 200; day++ {
		require.True(t, valid[g.Flavor(day)], "day %d produced unexpected flavor %q", day, g.Flavor(day))
	}
}

func TestDifferentSeedsCanDiverge(t *testing.T) {
	a := NewGenerator(1)
	b := NewGenerator(999)

	diverged := false
	for day := 1; day <= 60; day++ {
		if a.Flavor(day) != b.Flavor(day) {
			diverged = true
			break
		}
	}
	require.True(t, diverged, "two distinct seeds should not produce an identical sequence over 60 days")
}
