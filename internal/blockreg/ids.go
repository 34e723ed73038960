package blockreg

// Block ids 0-49 are the original classic release's table; they are pure
// data and always mean the same material on every server that speaks the
// protocol, so they're hard-coded rather than configured.
const (
	Air Block = iota
	Stone
	Grass
	Dirt
	Cobblestone
	Wood
	Sapling
	Bedrock
	Water
	StillWater
	Lava
	StillLava
	Sand
	Gravel
	GoldOre
	IronOre
	CoalOre
	Log
	Leaves
	Sponge
	Glass
	RedWool
	OrangeWool
	YellowWool
	LimeWool
	GreenWool
	TealWool
	AquaWool
	CyanWool
	BlueWool
	IndigoWool
	VioletWool
	MagentaWool
	PinkWool
	BlackWool
	GrayWool
	WhiteWool
	Dandelion
	Rose
	BrownMushroom
	RedMushroom
	GoldBlock
	IronBlock
	DoubleSlab
	Slab
	Brick
	TNT
	Bookshelf
	MossyCobblestone
	Obsidian
)

// Block ids 50-65 are CPE's CustomBlockSupportLevel 1 extended set. A
// vanilla classic client has no idea what these are, so every entry gets a
// Fallback id it remaps to before being sent to a client that didn't
// negotiate CPE's CustomBlocks extension.
const (
	CobblestoneSlab Block = iota + 50
	Rope
	Sandstone
	Snow
	Fire
	LightPinkWool
	ForestGreenWool
	BrownWool
	DeepBlue
	Turquoise
	Ice
	CeramicTile
	Magma
	Pillar
	Crate
	StoneBrick
)
