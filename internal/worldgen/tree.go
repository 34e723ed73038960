package worldgen

import "github.com/dmitrymodder/classicserver/internal/blockreg"

// world is the minimal surface a tree grower needs from the map it's
// attached to, mirroring the (map_t*, rng_t*) pair mapgen_space_for_tree
// and mapgen_grow_tree in original_source/src/mapgen.c take explicitly.
type world interface {
	Get(x, y, z int) blockreg.Block
	Set(x, y, z int, block blockreg.Block)
	Width() int
	Height() int
	Depth() int
	RandIntn(n int) int
}

// TreeGrower implements voxel.TreeGrower, giving saplings somewhere to grow
// into without the voxel package depending on the generator package.
type TreeGrower struct {
	w   world
	reg *blockreg.Registry
}

// NewTreeGrower wraps a map so its saplings can grow trees.
func NewTreeGrower(w world, reg *blockreg.Registry) *TreeGrower {
	return &TreeGrower{w: w, reg: reg}
}

func (t *TreeGrower) valid(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < t.w.Width() && y < t.w.Height() && z < t.w.Depth()
}

// SpaceForTree reports whether a height-tall tree fits at (x, y, z), ported
// from mapgen_space_for_tree: the block below must be dirt or grass, and
// both the trunk volume and wider canopy volume must be clear of anything
// solid.
func (t *TreeGrower) SpaceForTree(x, y, z, height int) bool {
	if !t.valid(x, y, z) || !t.valid(x, y-1, z) {
		return false
	}

	below := t.w.Get(x, y-1, z)
	if below != blockreg.Dirt && below != blockreg.Grass {
		return false
	}

	for xx := x - 1; xx <= x+1; xx++ {
		for yy := y; yy < y+height; yy++ {
			for zz := z - 1; zz <= z+1; zz++ {
				if !t.valid(xx, yy, zz) {
					return false
				}
				if t.reg.Get(t.w.Get(xx, yy, zz)).Solid {
					return false
				}
			}
		}
	}

	canopyY := y + (height - 4)
	for xx := x - 2; xx <= x+2; xx++ {
		for yy := canopyY; yy < y+height; yy++ {
			for zz := z - 2; zz <= z+2; zz++ {
				if !t.valid(xx, yy, zz) {
					return false
				}
				if t.reg.Get(t.w.Get(xx, yy, zz)).Solid {
					return false
				}
			}
		}
	}

	return true
}

// GrowTree builds a trunk-and-canopy tree, ported from mapgen_grow_tree.
func (t *TreeGrower) GrowTree(x, y, z, height int) bool {
	max0 := y + height
	max1 := max0 - 1
	max2 := max0 - 2
	max3 := max0 - 3

	for xx := -2; xx <= 2; xx++ {
		for zz := -2; zz <= 2; zz++ {
			ax, az := x+xx, z+zz
			if abs(xx) == 2 && abs(zz) == 2 {
				if t.randBool() {
					t.w.Set(ax, max3, az, blockreg.Leaves)
				}
				if t.randBool() {
					t.w.Set(ax, max2, az, blockreg.Leaves)
				}
			} else {
				t.w.Set(ax, max3, az, blockreg.Leaves)
				t.w.Set(ax, max2, az, blockreg.Leaves)
			}
		}
	}

	for xx := -1; xx <= 1; xx++ {
		for zz := -1; zz <= 1; zz++ {
			ax, az := x+xx, z+zz
			if xx == 0 || zz == 0 {
				t.w.Set(ax, max1, az, blockreg.Leaves)
				t.w.Set(ax, max0, az, blockreg.Leaves)
			} else if t.randBool() {
				t.w.Set(ax, max1, az, blockreg.Leaves)
			}
		}
	}

	for yy := y; yy < max0; yy++ {
		t.w.Set(x, yy, z, blockreg.Log)
	}

	return true
}

func (t *TreeGrower) randBool() bool { return t.w.RandIntn(2) == 1 }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
