package blockreg

// This file implements the built-in tick/random-tick/place/break behaviors:
// falling sand and gravel, spreading water and lava, grass converting to
// and from dirt, saplings growing into trees, and sponges pushing liquid
// out of a surrounding volume. The gravity, flow, grass and sapling
// behaviors mirror blocktick_gravity/blocktick_flow/blocktick_grass_die/
// blocktick_grass_grow/blocktick_tree_grow in original_source/src/blocks.c
// almost line for line; sponge suppression of liquid spread and the
// sponge place/break behaviors have no equivalent in that file and are
// this server's own addition, built the same way (AddTick-driven, flag
// lookups through the registry) as the ones that do.

const spongeRadius = 2

func fallingBehavior(w World, x, y, z int, block Block) {
	yy := y
	for yy > 0 && !registryInstance.Get(w.Get(x, yy-1, z)).Solid {
		yy--
	}
	if yy != y {
		w.Set(x, y, z, Air)
		w.Set(x, yy, z, block)
	}
}

func liquidTickPeriod(block Block) uint64 {
	if block == Lava || block == StillLava {
		return 8
	}
	return 4
}

func liquidBehavior(w World, x, y, z int, block Block) {
	if spongeNearby(w, x, y, z) {
		return
	}

	spreadLiquid(w, x-1, y, z, block)
	spreadLiquid(w, x+1, y, z, block)
	spreadLiquid(w, x, y, z-1, block)
	spreadLiquid(w, x, y, z+1, block)
	spreadLiquid(w, x, y-1, z, block)
}

func spreadLiquid(w World, x, y, z int, source Block) {
	if x < 0 || z < 0 || y < 0 || x >= w.Width() || z >= w.Depth() || y >= w.Height() {
		return
	}
	if registryInstance.Get(w.Get(x, y, z)).Solid {
		return
	}
	if spongeNearby(w, x, y, z) {
		return
	}
	w.Set(x, y, z, source)
}

func spongeNearby(w World, x, y, z int) bool {
	for dx := -spongeRadius; dx <= spongeRadius; dx++ {
		for dy := -spongeRadius; dy <= spongeRadius; dy++ {
			for dz := -spongeRadius; dz <= spongeRadius; dz++ {
				nx, ny, nz := x+dx, y+dy, z+dz
				if nx < 0 || ny < 0 || nz < 0 || nx >= w.Width() || ny >= w.Height() || nz >= w.Depth() {
					continue
				}
				if w.Get(nx, ny, nz) == Sponge {
					return true
				}
			}
		}
	}
	return false
}

func grassDieBehavior(w World, x, y, z int, block Block) {
	if block != Grass {
		return
	}
	if w.TopLit(x, z)-1 > y {
		w.Set(x, y, z, Dirt)
	}
}

func grassGrowBehavior(w World, x, y, z int, block Block) {
	if block != Dirt {
		return
	}
	if w.TopLit(x, z)-1 == y {
		w.Set(x, y, z, Grass)
	}
}

func saplingBehavior(w World, x, y, z int, block Block) {
	if block != Sapling {
		return
	}
	if w.TopLit(x, z) > y {
		return
	}

	treeHeight := w.RandRange(1, 4) + 4
	if w.SpaceForTree(x, y, z, treeHeight) {
		w.GrowTree(x, y, z, treeHeight)
	}
}

func spongePlaceBehavior(w World, x, y, z int, block Block) {
	clearLiquidAround(w, x, y, z)
}

// liquidPlaceBehavior implements the "liquid place" edge case: a liquid
// placed within range of an existing sponge evaporates immediately instead
// of sitting there waiting for its first scheduled tick.
func liquidPlaceBehavior(w World, x, y, z int, block Block) {
	if spongeNearby(w, x, y, z) {
		w.Set(x, y, z, Air)
	}
}

const spongeBreakRadius = 3

func spongeBreakBehavior(w World, x, y, z int, block Block) {
	for dx := -spongeBreakRadius; dx <= spongeBreakRadius; dx++ {
		for dy := -spongeBreakRadius; dy <= spongeBreakRadius; dy++ {
			for dz := -spongeBreakRadius; dz <= spongeBreakRadius; dz++ {
				nx, ny, nz := x+dx, y+dy, z+dz
				if nx < 0 || ny < 0 || nz < 0 || nx >= w.Width() || ny >= w.Height() || nz >= w.Depth() {
					continue
				}
				n := w.Get(nx, ny, nz)
				if registryInstance.Get(n).Liquid {
					w.AddTick(nx, ny, nz, liquidTickPeriod(n))
				}
			}
		}
	}
}

func clearLiquidAround(w World, x, y, z int) {
	for dx := -spongeRadius; dx <= spongeRadius; dx++ {
		for dy := -spongeRadius; dy <= spongeRadius; dy++ {
			for dz := -spongeRadius; dz <= spongeRadius; dz++ {
				nx, ny, nz := x+dx, y+dy, z+dz
				if nx < 0 || ny < 0 || nz < 0 || nx >= w.Width() || ny >= w.Height() || nz >= w.Depth() {
					continue
				}
				if registryInstance.Get(w.Get(nx, ny, nz)).Liquid {
					w.Set(nx, ny, nz, Air)
				}
			}
		}
	}
}
