package worldgen

import "github.com/dmitrymodder/classicserver/internal/blockreg"

// rollingRNG is the subset of rng.RNG a generator needs for height jitter,
// ore scatter and sapling scatter. voxel.Map satisfies this directly through
// its RandIntn/RandRange methods, so a generator can be handed the map
// itself as both writer and RNG source.
type rollingRNG interface {
	RandIntn(n int) int
	RandRange(min, max int) int
}

// Classic is a simplified stand-in for mapgen_classic.c's Perlin-noise
// terrain: the original drives its heightmap from combined octave noise,
// which this server doesn't carry a noise library for (see DESIGN.md). This
// generator keeps the same *shape* of the pipeline - rolling heightmap,
// strata, ore scatter, water fill, surface dressing, sapling scatter - and
// the same RNG for all of it, so a given seed still reproduces one
// specific world.
func Classic(m mapWriter, r rollingRNG) {
	seaLevel := m.Height() / 2

	heightmap := make([]int, m.Width()*m.Depth())
	height := seaLevel
	for x := 0; x < m.Width(); x++ {
		for z := 0; z < m.Depth(); z++ {
			height += r.RandRange(-1, 2)
			if height < 4 {
				height = 4
			}
			if height > m.Height()-8 {
				height = m.Height() - 8
			}
			heightmap[z*m.Width()+x] = height
		}
	}

	for x := 0; x < m.Width(); x++ {
		for z := 0; z < m.Depth(); z++ {
			top := heightmap[z*m.Width()+x]
			for y := 0; y <= top; y++ {
				switch {
				case y == 0:
					m.SetRaw(x, y, z, blockreg.Bedrock)
				case y == top:
					if top >= seaLevel {
						m.SetRaw(x, y, z, blockreg.Grass)
					} else {
						m.SetRaw(x, y, z, blockreg.Sand)
					}
				case y >= top-3:
					m.SetRaw(x, y, z, blockreg.Dirt)
				default:
					m.SetRaw(x, y, z, blockreg.Stone)
				}
			}
			for y := top + 1; y <= seaLevel; y++ {
				m.SetRaw(x, y, z, blockreg.StillWater)
			}
		}
	}

	scatterOre(m, r, blockreg.CoalOre, 90)
	scatterOre(m, r, blockreg.IronOre, 70)
	scatterOre(m, r, blockreg.GoldOre, 50)
	scatterTrees(m, r, heightmap, seaLevel)
}

func scatterOre(m mapWriter, r rollingRNG, ore blockreg.Block, attemptsPerColumn int) {
	volume := m.Width() * m.Height() * m.Depth()
	attempts := volume / 2000 * (attemptsPerColumn / 50)
	for i := 0; i < attempts; i++ {
		x := r.RandIntn(m.Width())
		y := r.RandIntn(m.Height())
		z := r.RandIntn(m.Depth())
		if y > 0 && y < m.Height()-1 {
			m.SetRaw(x, y, z, ore)
		}
	}
}

func scatterTrees(m mapWriter, r rollingRNG, heightmap []int, seaLevel int) {
	attempts := (m.Width() * m.Depth()) / 400
	for i := 0; i < attempts; i++ {
		x := r.RandIntn(m.Width())
		z := r.RandIntn(m.Depth())
		top := heightmap[z*m.Width()+x]
		if top < seaLevel {
			continue
		}
		m.SetRaw(x, top+1, z, blockreg.Sapling)
	}
}
