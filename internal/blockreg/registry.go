package blockreg

// registryInstance lets tick/place callbacks (which only receive a World,
// not a Registry) look up flags for blocks other than the one they were
// invoked for, e.g. liquid spread checking whether a neighbor is solid. A
// process builds exactly one registry at startup via
// NewRegistry, so a package-level pointer to it is safe.
var registryInstance *Registry

// NewRegistry builds the full block behavior table. Unlisted ids default to
// solid, light-blocking, non-liquid, placeable/breakable by anyone, with no
// callbacks - a reasonable default for the large block of CPE ids (66-255)
// this server doesn't give special meaning to.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.entries {
		r.entries[i] = Entry{Solid: true, BlocksLight: true}
	}

	set := func(b Block, e Entry) { r.entries[b] = e }

	set(Air, Entry{Solid: false, BlocksLight: false})
	set(Water, Entry{Solid: false, BlocksLight: false, Liquid: true, TickPeriod: 4, OnTick: liquidBehavior, OnPlace: liquidPlaceBehavior, OpOnlyPlace: true, OpOnlyBreak: true})
	set(StillWater, Entry{Solid: false, BlocksLight: false, Liquid: true, OnPlace: liquidPlaceBehavior, OpOnlyPlace: true, OpOnlyBreak: true})
	set(Lava, Entry{Solid: false, BlocksLight: false, Liquid: true, TickPeriod: 8, OnTick: liquidBehavior, OnPlace: liquidPlaceBehavior, OpOnlyPlace: true, OpOnlyBreak: true})
	set(StillLava, Entry{Solid: false, BlocksLight: false, Liquid: true, OnPlace: liquidPlaceBehavior, OpOnlyPlace: true, OpOnlyBreak: true})
	set(Glass, Entry{Solid: true, BlocksLight: false})
	set(Leaves, Entry{Solid: true, BlocksLight: false})
	set(Sapling, Entry{Solid: false, BlocksLight: false, OnRandomTick: saplingBehavior})
	set(Sand, Entry{Solid: true, BlocksLight: true, OnTick: fallingBehavior})
	set(Gravel, Entry{Solid: true, BlocksLight: true, OnTick: fallingBehavior})
	set(Grass, Entry{Solid: true, BlocksLight: true, OnRandomTick: grassDieBehavior})
	set(Dirt, Entry{Solid: true, BlocksLight: true, OnRandomTick: grassGrowBehavior})
	set(Sponge, Entry{Solid: true, BlocksLight: true, OnPlace: spongePlaceBehavior, OnBreak: spongeBreakBehavior})
	set(Bedrock, Entry{Solid: true, BlocksLight: true, OpOnlyPlace: true, OpOnlyBreak: true})
	set(Dandelion, Entry{Solid: false, BlocksLight: false})
	set(Rose, Entry{Solid: false, BlocksLight: false})
	set(BrownMushroom, Entry{Solid: false, BlocksLight: false})
	set(RedMushroom, Entry{Solid: false, BlocksLight: false})
	set(Rope, Entry{Solid: false, BlocksLight: false})
	set(Fire, Entry{Solid: false, BlocksLight: false})
	set(Snow, Entry{Solid: false, BlocksLight: true})

	setFallbacks(r)

	registryInstance = r
	return r
}

// setFallbacks records which vanilla id a CPE-extended block degrades to
// for clients that never negotiated CustomBlockSupportLevel, following the
// remap table the reference implementation ships for exactly this purpose.
func setFallbacks(r *Registry) {
	fallback := map[Block]Block{
		CobblestoneSlab: Slab,
		Rope:            BrownMushroom,
		Sandstone:       Sand,
		Snow:            Air,
		Fire:            Lava,
		LightPinkWool:   PinkWool,
		ForestGreenWool: GreenWool,
		BrownWool:       Dirt,
		DeepBlue:        BlueWool,
		Turquoise:       CyanWool,
		Ice:             Glass,
		CeramicTile:     IronBlock,
		Magma:           Obsidian,
		Pillar:          WhiteWool,
		Crate:           Wood,
		StoneBrick:      Stone,
	}
	for id, fb := range fallback {
		e := r.entries[id]
		e.Fallback = fb
		r.entries[id] = e
	}
}

// FallbackFor returns the id a client without CPE block-fallback support
// should see in place of b. Ids below 50 never need remapping.
func (r *Registry) FallbackFor(b Block) Block {
	if b < 50 {
		return b
	}
	return r.entries[b].Fallback
}
