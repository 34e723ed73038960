package protocol

// Extension describes one CPE extension this server negotiates, matching
// cpeext_t / supported_extensions in original_source/src/cpe.c and cpe.h.
type Extension struct {
	Name    string
	Version int32
}

// SupportedExtensions is advertised verbatim in every ExtInfo handshake.
// TextColors is this server's own addition: the reference checks for it in
// client_login but never actually advertises it in supported_extensions,
// which would leave no client able to negotiate it.
var SupportedExtensions = []Extension{
	{"FullCP437", 1},
	{"FastMap", 1},
	{"CustomBlocks", 1},
	{"TwoWayPing", 1},
	{"TextColors", 1},
}
