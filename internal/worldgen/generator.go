package worldgen

// Kind names the available generators, matching the name a server config or
// the /newlvl style command would select by.
type Kind string

const (
	KindFlat    Kind = "flat"
	KindClassic Kind = "classic"
)

// Generate lays blocks for the given generator kind into m, using r for any
// randomized features. Unknown kinds fall back to Flat rather than leaving
// the map empty.
func Generate(kind Kind, m mapWriter, r rollingRNG) {
	switch kind {
	case KindClassic:
		Classic(m, r)
	default:
		Flat(m)
	}
}
