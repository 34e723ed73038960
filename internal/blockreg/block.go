// Package blockreg holds the per-block behavior table: solidity,
// light-blocking, liquid/op-only flags, tick period and callbacks, display
// colour and CPE fallback id. The table is read-only once built at startup
// and shared by every goroutine that touches the world.
package blockreg

// Block is an 8-bit voxel material identifier.
type Block uint8

// World is the minimal surface a tick/place/break callback needs from the
// map it was invoked against. voxel.Map implements this; keeping it as an
// interface here (rather than importing the voxel package) avoids a cycle
// between the registry and the map it configures.
type World interface {
	Get(x, y, z int) Block
	Set(x, y, z int, block Block)
	Top(x, z int) int
	TopLit(x, z int) int
	AddTick(x, y, z int, delayTicks uint64)
	Width() int
	Depth() int
	Height() int
	RandIntn(n int) int
	RandRange(min, max int) int

	// SpaceForTree and GrowTree delegate to whatever world generator built
	// the map; a map not wired to a generator simply reports no room, so
	// the sapling callback is a safe no-op.
	SpaceForTree(x, y, z, height int) bool
	GrowTree(x, y, z, height int) bool
}

// TickFunc is the signature for on_tick/on_random_tick callbacks.
type TickFunc func(w World, x, y, z int, block Block)

// PlaceFunc is the signature for on_place/on_break callbacks.
type PlaceFunc func(w World, x, y, z int, block Block)

// Entry is one block id's full behavior description.
type Entry struct {
	Solid        bool
	BlocksLight  bool
	Liquid       bool
	OpOnlyPlace  bool
	OpOnlyBreak  bool
	TickPeriod   uint64
	OnTick       TickFunc
	OnRandomTick TickFunc
	OnPlace      PlaceFunc
	OnBreak      PlaceFunc
	Colour       uint32 // packed 0xRRGGBB, display-only
	Fallback     Block
}

// Registry is the full 256-entry block behavior table.
type Registry struct {
	entries [256]Entry
}

// Get returns the entry for block id b (never out of range: Block is uint8).
func (r *Registry) Get(b Block) *Entry {
	return &r.entries[b]
}
