package worldgen

import (
	"testing"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassicFillsBedrockFloor(t *testing.T) {
	m := newGenMap()
	Classic(m, m)

	for x := 0; x < m.Width(); x++ {
		for z := 0; z < m.Depth(); z++ {
			assert.Equal(t, blockreg.Bedrock, m.Get(x, 0, z))
		}
	}
}

func TestClassicIsDeterministicForAGivenSeed(t *testing.T) {
	reg := blockreg.NewRegistry()
	m1 := voxel.New("a", 8, 16, 8, reg, 99)
	m1.Generating = true
	Classic(m1, m1)

	m2 := voxel.New("b", 8, 16, 8, reg, 99)
	m2.Generating = true
	Classic(m2, m2)

	for x := 0; x < 8; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 8; z++ {
				require.Equal(t, m1.Get(x, y, z), m2.Get(x, y, z))
			}
		}
	}
}

func TestClassicProducesNonAirAboveFloor(t *testing.T) {
	m := newGenMap()
	Classic(m, m)

	nonAir := 0
	for x := 0; x < m.Width(); x++ {
		for z := 0; z < m.Depth(); z++ {
			if m.Get(x, 1, z) != blockreg.Air {
				nonAir++
			}
		}
	}
	assert.Greater(t, nonAir, 0)
}
