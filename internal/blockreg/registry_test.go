package blockreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeWorld is a minimal in-memory World used to exercise callbacks without
// pulling in the voxel package (which itself depends on blockreg).
type fakeWorld struct {
	w, d, h int
	blocks  map[[3]int]Block
	ticks   []tickCall
	topLit  map[[2]int]int
	treeOK  bool
	grew    bool
	nextRnd int
}

type tickCall struct {
	x, y, z int
	delay   uint64
}

func newFakeWorld(w, d, h int) *fakeWorld {
	return &fakeWorld{w: w, d: d, h: h, blocks: map[[3]int]Block{}, topLit: map[[2]int]int{}}
}

func (f *fakeWorld) Get(x, y, z int) Block    { return f.blocks[[3]int{x, y, z}] }
func (f *fakeWorld) Set(x, y, z int, b Block) { f.blocks[[3]int{x, y, z}] = b }
func (f *fakeWorld) Top(x, z int) int         { return f.topLit[[2]int{x, z}] }
func (f *fakeWorld) TopLit(x, z int) int      { return f.topLit[[2]int{x, z}] }
func (f *fakeWorld) AddTick(x, y, z int, delay uint64) {
	f.ticks = append(f.ticks, tickCall{x, y, z, delay})
}
func (f *fakeWorld) Width() int                       { return f.w }
func (f *fakeWorld) Depth() int                       { return f.d }
func (f *fakeWorld) Height() int                      { return f.h }
func (f *fakeWorld) RandIntn(n int) int               { return f.nextRnd }
func (f *fakeWorld) RandRange(a, b int) int           { return a + f.nextRnd }
func (f *fakeWorld) SpaceForTree(x, y, z, h int) bool { return f.treeOK }
func (f *fakeWorld) GrowTree(x, y, z, h int) bool {
	f.grew = true
	return true
}

func TestFallingSandDropsToRestingPosition(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 5, 4, Sand)
	w.Set(4, 1, 4, Stone)
	fallingBehavior(w, 4, 5, 4, Sand)
	assert.Equal(t, Air, w.Get(4, 5, 4))
	assert.Equal(t, Sand, w.Get(4, 2, 4))
}

func TestFallingSandRestsOnSolid(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 5, 4, Sand)
	w.Set(4, 4, 4, Stone)
	fallingBehavior(w, 4, 5, 4, Sand)
	assert.Equal(t, Sand, w.Get(4, 5, 4))
}

func TestLiquidSpreadsIntoNonSolidNeighbors(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 4, 4, Water)
	liquidBehavior(w, 4, 4, 4, Water)
	assert.Equal(t, Water, w.Get(5, 4, 4))
	assert.Equal(t, Water, w.Get(3, 4, 4))
}

func TestLiquidDoesNotSpreadIntoSolidNeighbor(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 4, 4, Water)
	w.Set(5, 4, 4, Stone)
	liquidBehavior(w, 4, 4, 4, Water)
	assert.Equal(t, Stone, w.Get(5, 4, 4))
}

func TestSpongeBlocksLiquidSpread(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 4, 4, Water)
	w.Set(5, 4, 4, Sponge)
	liquidBehavior(w, 4, 4, 4, Water)
	assert.Equal(t, Sponge, w.Get(5, 4, 4))
}

func TestSpongePlaceClearsNearbyLiquid(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(5, 4, 4, Water)
	spongePlaceBehavior(w, 4, 4, 4, Sponge)
	assert.Equal(t, Air, w.Get(5, 4, 4))
}

func TestGrassDiesWhenCovered(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 4, 4, Grass)
	// TopLit reports one past the highest light-blocker, matching
	// voxel.Map.TopLit; a block at y=5 covering the grass at y=4 reports 6.
	w.topLit[[2]int{4, 4}] = 6
	grassDieBehavior(w, 4, 4, 4, Grass)
	assert.Equal(t, Dirt, w.Get(4, 4, 4))
}

func TestDirtGrowsGrassWhenExposed(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 8, 8)
	w.Set(4, 4, 4, Dirt)
	// The dirt block itself is the highest light-blocker, so TopLit
	// reports y+1.
	w.topLit[[2]int{4, 4}] = 5
	grassGrowBehavior(w, 4, 4, 4, Dirt)
	assert.Equal(t, Grass, w.Get(4, 4, 4))
}

func TestSaplingWaitsForSpace(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 16, 8)
	w.topLit[[2]int{4, 4}] = 4
	w.treeOK = false
	saplingBehavior(w, 4, 4, 4, Sapling)
	assert.False(t, w.grew)
}

func TestSaplingGrowsWhenThereIsRoom(t *testing.T) {
	NewRegistry()
	w := newFakeWorld(8, 16, 8)
	w.topLit[[2]int{4, 4}] = 4
	w.treeOK = true
	saplingBehavior(w, 4, 4, 4, Sapling)
	assert.True(t, w.grew)
}

func TestFallbackForVanillaIdIsIdentity(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, Stone, r.FallbackFor(Stone))
}

func TestFallbackForExtendedBlocks(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, Slab, r.FallbackFor(CobblestoneSlab))
	assert.Equal(t, Sand, r.FallbackFor(Sandstone))
	assert.Equal(t, Air, r.FallbackFor(Snow))
	assert.Equal(t, Stone, r.FallbackFor(StoneBrick))
}

func TestBedrockIsOpOnly(t *testing.T) {
	r := NewRegistry()
	e := r.Get(Bedrock)
	assert.True(t, e.OpOnlyPlace)
	assert.True(t, e.OpOnlyBreak)
}

func TestWaterIsOpOnlyToPlace(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Get(Water).OpOnlyPlace)
	assert.True(t, r.Get(Lava).OpOnlyPlace)
}
