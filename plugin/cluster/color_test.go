package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorFor(t *testing.T) {
	m := BuildRelationClusters(edges([2]string{"A", "B"}, [2]string{"C", "D"}))

	colorA, ok := ColorFor("A", m)
	assert.True(t, ok)
	colorB, _ := ColorFor("B", m)
	colorC, _ := ColorFor("C", m)
	assert.Equal(t, colorA, colorB)
	assert.NotEqual(t, colorA, colorC)

	none, ok := ColorFor("Z", m)
	assert.False(t, ok)
	assert.Equal(t, Color{}, none)
}

func TestColorForEmptyMap(t *testing.T) {
	m := BuildRelationClusters([]Pair{})
	for _, id := range []string{"A", "B", ""} {
		_, ok := ColorFor(id, m)
		assert.False(t, ok, id)
	}
}

func TestPaletteCycles(t *testing.T) {
	for i := 0; i < PaletteSize*3; i++ {
		assert.Equal(t, PaletteColor(i), PaletteColor(i+PaletteSize), "index %d", i)
	}
	assert.Equal(t, Palette()[0], PaletteColor(0))
	assert.Equal(t, Palette()[PaletteSize-1], PaletteColor(-1))
}

func TestColorForCyclesPastPalette(t *testing.T) {
	var in []Pair
	for i := 0; i < PaletteSize+1; i++ {
		in = append(in, Pair{SourceID: fmt.Sprintf("s%d", i), TargetID: fmt.Sprintf("t%d", i)})
	}
	m := BuildRelationClusters(in)

	first, _ := ColorFor("s0", m)
	wrapped, _ := ColorFor(fmt.Sprintf("s%d", PaletteSize), m)
	assert.Equal(t, first, wrapped)
}

func TestPaletteIsImmutable(t *testing.T) {
	p := Palette()
	p[0] = Color{Bg: "changed"}
	assert.NotEqual(t, "changed", PaletteColor(0).Bg)
}
