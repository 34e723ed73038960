// Package protocol defines the classic wire protocol's packet ids and the
// fixed-point encodings its position/angle fields use. Packet bodies
// themselves are read and written directly against internal/buf.Buffer by
// the client state machine; this package only holds the shared constants
// every packet handler needs, matching original_source/src/packet.h.
package protocol

import "math"

// Packet ids, straight from packet.h.
const (
	Identification    = 0x00
	Ping              = 0x01
	LevelInit         = 0x02
	LevelChunk        = 0x03
	LevelFinish       = 0x04
	SetBlockClient    = 0x05
	SetBlockServer    = 0x06
	SpawnPlayer       = 0x07
	PlayerPosAngle    = 0x08
	PositionAngleUpd  = 0x09
	PositionUpdate    = 0x0A
	AngleUpdate       = 0x0B
	DespawnPlayer     = 0x0C
	Message           = 0x0D
	Disconnect        = 0x0E
	UpdateUserType    = 0x0F
	ExtInfo           = 0x10
	ExtEntry          = 0x11
	CustomBlockLevel  = 0x13
	SetTextColour     = 0x27
	TwoWayPing        = 0x2B
)

// ProtocolVersion is the value every Identification packet carries.
const ProtocolVersion = 0x07

// CustomBlocksLevel is the CustomBlockSupportLevel this server understands.
const CustomBlocksLevel = 1

// ChunkThrottleBytes approximates the reference's 32KB outgoing buffer
// filling up: mapsend_fast_thread_start flushes and sleeps once its
// 32KB packet buffer is within 1028 bytes of full. A channel-based
// producer has no equivalent buffer to watch, so it paces itself after
// generating roughly the same amount of chunk data instead.
const ChunkThrottleBytes = 32*1024 - 1028

// Float2Fixed converts a world coordinate to the wire's 1/32-block fixed
// point representation.
func Float2Fixed(v float64) int16 {
	return int16(math.Floor(v * 32.0))
}

// Fixed2Float is Float2Fixed's inverse.
func Fixed2Float(v int16) float64 {
	return float64(v) / 32.0
}

// Degrees2Fixed converts an orientation in degrees to the wire's
// 256-steps-per-turn fixed point byte.
func Degrees2Fixed(deg float64) int8 {
	return int8(deg / 360.0 * 256.0)
}

// Fixed2Degrees is Degrees2Fixed's inverse.
func Fixed2Degrees(v int8) float64 {
	return float64(v) * 360.0 / 256.0
}
