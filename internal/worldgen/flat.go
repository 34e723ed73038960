package worldgen

import "github.com/dmitrymodder/classicserver/internal/blockreg"

// mapWriter is the narrow surface a generator needs to lay down blocks
// without running tick scheduling, matching voxel.Map.SetRaw plus the size
// getters generators already see through the world interface.
type mapWriter interface {
	world
	SetRaw(x, y, z int, block blockreg.Block)
}

// Flat generates a stone/dirt/grass slab with its surface at half the map's
// vertical extent, ported directly from original_source/src/mapgen_flat.c.
func Flat(m mapWriter) {
	waterLevel := m.Height()/2 - 1

	for x := 0; x < m.Width(); x++ {
		for y := 0; y <= waterLevel; y++ {
			for z := 0; z < m.Depth(); z++ {
				var block blockreg.Block
				switch {
				case y == waterLevel:
					block = blockreg.Grass
				case y >= waterLevel-4:
					block = blockreg.Dirt
				default:
					block = blockreg.Stone
				}
				m.SetRaw(x, y, z, block)
			}
		}
	}
}
