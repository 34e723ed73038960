// Package voxel implements the in-memory world: a dense 3-D block grid, its
// scheduled and random tick queues, and the handful of derived queries
// (column height, lit height) the block behaviors and map generators need.
package voxel

import (
	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/rng"
)

// randomTickDivisor mirrors the reference's approach of sampling a fraction
// of the volume every tick rather than visiting every block; the constant
// itself is this server's own choice (SPEC_FULL.md), since the retrieved
// map.c never implemented random ticking.
const randomTickDivisor = 4096

// scheduledTick is one pending (position, due-tick) entry, matching
// scheduledtick_t in map.h.
type scheduledTick struct {
	x, y, z int
	due     uint64
}

// TreeGrower lets a world generator supply the sapling callback with room
// checking and tree construction without voxel importing the generator
// package (which itself needs to read and write the map).
type TreeGrower interface {
	SpaceForTree(x, y, z, height int) bool
	GrowTree(x, y, z, height int) bool
}

// BlockChangeFunc is invoked for every successful Set, letting the server
// broadcast the change without the map depending on the client/server
// packages.
type BlockChangeFunc func(x, y, z int, block blockreg.Block)

// Map is a dense width x height x depth grid of block ids plus the tick
// state that drives the block behaviors.
type Map struct {
	Name string

	SizeX, SizeY, SizeZ int
	blocks              []blockreg.Block

	Generating bool
	Modified   bool

	registry *blockreg.Registry
	rand     *rng.RNG
	tree     TreeGrower
	onChange BlockChangeFunc

	tick      uint64
	scheduled []scheduledTick
}

// New allocates a map of the given dimensions, filled with air.
func New(name string, sizeX, sizeY, sizeZ int, registry *blockreg.Registry, seed int64) *Map {
	return &Map{
		Name:     name,
		SizeX:    sizeX,
		SizeY:    sizeY,
		SizeZ:    sizeZ,
		blocks:   make([]blockreg.Block, sizeX*sizeY*sizeZ),
		registry: registry,
		rand:     rng.New(seed),
	}
}

// TickEntry is a scheduled tick expressed as a delay relative to the tick it
// was captured at, so a saved queue can be replayed after a restart without
// caring what the absolute tick counter was before.
type TickEntry struct {
	X, Y, Z int
	DueIn   uint64
}

// Blocks returns the map's backing block array. Callers that persist a map
// must not mutate the returned slice after the fact; worldstore copies it
// before writing.
func (m *Map) Blocks() []blockreg.Block { return m.blocks }

// ExportScheduledTicks captures the pending tick queue as delays relative to
// the current tick, suitable for persisting and replaying after a restart.
func (m *Map) ExportScheduledTicks() []TickEntry {
	out := make([]TickEntry, len(m.scheduled))
	for i, t := range m.scheduled {
		due := uint64(0)
		if t.due > m.tick {
			due = t.due - m.tick
		}
		out[i] = TickEntry{X: t.x, Y: t.y, Z: t.z, DueIn: due}
	}
	return out
}

// Restore overwrites the map's block array, tick counter and scheduled
// queue from previously persisted state. Used only right after New, before
// the map is attached to a running server.
func (m *Map) Restore(blocks []blockreg.Block, tick uint64, ticks []TickEntry) {
	copy(m.blocks, blocks)
	m.tick = tick
	m.scheduled = m.scheduled[:0]
	for _, t := range ticks {
		m.scheduled = append(m.scheduled, scheduledTick{x: t.X, y: t.Y, z: t.Z, due: tick + t.DueIn})
	}
}

// SetTreeGrower wires in the generator that backs sapling growth.
func (m *Map) SetTreeGrower(t TreeGrower) { m.tree = t }

// SetOnChange wires in the broadcast hook invoked after every committed Set.
func (m *Map) SetOnChange(f BlockChangeFunc) { m.onChange = f }

// Tick returns the current world tick counter.
func (m *Map) Tick() uint64 { return m.tick }

func (m *Map) valid(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < m.SizeX && y < m.SizeY && z < m.SizeZ
}

func (m *Map) index(x, y, z int) int {
	return (y*m.SizeZ+z)*m.SizeX + x
}

// Get returns the block at (x, y, z), or Air for out-of-bounds coordinates.
func (m *Map) Get(x, y, z int) blockreg.Block {
	if !m.valid(x, y, z) {
		return blockreg.Air
	}
	return m.blocks[m.index(x, y, z)]
}

// Set writes a block, runs its place/break hooks, schedules the affected
// cell and its neighbors per the new block's tick period, and notifies the
// broadcast hook. A no-op write (same block already present) does nothing,
// matching the reference's dedup check in map_set.
func (m *Map) Set(x, y, z int, block blockreg.Block) {
	if !m.valid(x, y, z) {
		return
	}
	idx := m.index(x, y, z)
	old := m.blocks[idx]
	if old == block {
		return
	}

	m.blocks[idx] = block
	m.Modified = true

	if oldEntry := m.registry.Get(old); oldEntry.OnBreak != nil {
		oldEntry.OnBreak(m, x, y, z, old)
	}
	if newEntry := m.registry.Get(block); newEntry.OnPlace != nil {
		newEntry.OnPlace(m, x, y, z, block)
	}

	if !m.Generating {
		period := m.registry.Get(block).TickPeriod
		dist := uint64(0)
		if period != 0 {
			dist = ((m.tick/period)+1)*period - m.tick
		}
		m.AddTick(x, y, z, dist)
		m.AddTick(x+1, y, z, dist)
		m.AddTick(x-1, y, z, dist)
		m.AddTick(x, y+1, z, dist)
		m.AddTick(x, y-1, z, dist)
		m.AddTick(x, y, z+1, dist)
		m.AddTick(x, y, z-1, dist)
	}

	if m.onChange != nil {
		m.onChange(x, y, z, block)
	}
}

// SetRaw writes a block without running callbacks or scheduling ticks.
// Used by world generators, which build the whole map with Generating set.
func (m *Map) SetRaw(x, y, z int, block blockreg.Block) {
	if !m.valid(x, y, z) {
		return
	}
	m.blocks[m.index(x, y, z)] = block
}

// Top returns the height of the first non-air block scanning down from the
// top of the column, or 0 if the column is all air.
func (m *Map) Top(x, z int) int {
	for y := m.SizeY - 1; y >= 0; y-- {
		if m.Get(x, y, z) != blockreg.Air {
			return y + 1
		}
	}
	return 0
}

// TopLit returns one above the first y, scanning down, whose block blocks
// light, or 0 if no block in the column blocks light. Grass/dirt
// conversion uses this to decide whether a column's surface is lit.
func (m *Map) TopLit(x, z int) int {
	for y := m.SizeY - 1; y >= 0; y-- {
		if m.registry.Get(m.Get(x, y, z)).BlocksLight {
			return y + 1
		}
	}
	return 0
}

// AddTick schedules block at (x, y, z) to be ticked delayTicks from now,
// provided it currently has a tick callback. Out-of-range positions and
// blocks without a tick callback are silently dropped, matching
// map_add_tick.
func (m *Map) AddTick(x, y, z int, delayTicks uint64) {
	if !m.valid(x, y, z) {
		return
	}
	block := m.Get(x, y, z)
	if m.registry.Get(block).OnTick == nil {
		return
	}
	m.scheduled = append(m.scheduled, scheduledTick{x, y, z, m.tick + delayTicks})
}

// RunTick advances the world by one tick: dispatches every scheduled tick
// whose due time has arrived, then samples a fraction of the volume for
// random ticks, then advances the tick counter.
func (m *Map) RunTick() {
	m.runScheduledTicks()
	m.runRandomTicks()
	m.tick++
}

// runScheduledTicks walks the whole queue, so its cost grows with the number
// of pending entries, not only with those due this tick. Ticks that callbacks
// enqueue during the sweep are kept for a later tick.
func (m *Map) runScheduledTicks() {
	pending := m.scheduled
	m.scheduled = nil
	for _, t := range pending {
		if m.tick < t.due {
			m.scheduled = append(m.scheduled, t)
			continue
		}
		block := m.Get(t.x, t.y, t.z)
		if fn := m.registry.Get(block).OnTick; fn != nil {
			fn(m, t.x, t.y, t.z, block)
		}
	}
}

func (m *Map) runRandomTicks() {
	volume := m.SizeX * m.SizeY * m.SizeZ
	count := volume / randomTickDivisor
	for i := 0; i < count; i++ {
		idx := m.rand.Intn(volume)
		y := idx / (m.SizeX * m.SizeZ)
		rem := idx - y*m.SizeX*m.SizeZ
		z := rem / m.SizeX
		x := rem % m.SizeX
		m.runRandomTickAt(x, y, z)
	}
}

func (m *Map) runRandomTickAt(x, y, z int) {
	block := m.Get(x, y, z)
	if fn := m.registry.Get(block).OnRandomTick; fn != nil {
		fn(m, x, y, z, block)
	}
}

// The methods below satisfy blockreg.World.

func (m *Map) Width() int  { return m.SizeX }
func (m *Map) Height() int { return m.SizeY }
func (m *Map) Depth() int  { return m.SizeZ }

func (m *Map) RandIntn(n int) int { return m.rand.Intn(n) }

func (m *Map) RandRange(min, max int) int { return m.rand.IntRange(min, max) }

func (m *Map) SpaceForTree(x, y, z, height int) bool {
	if m.tree == nil {
		return false
	}
	return m.tree.SpaceForTree(x, y, z, height)
}

func (m *Map) GrowTree(x, y, z, height int) bool {
	if m.tree == nil {
		return false
	}
	return m.tree.GrowTree(x, y, z, height)
}
