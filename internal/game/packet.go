// Package game implements the server-side half of the classic wire
// protocol: packet encode/decode (this file), the per-connection client
// state machine (client.go), and the per-tick server loop that ties
// everything together (server.go). Grounded throughout in
// original_source/src/client.c and server.c.
package game

import (
	"errors"

	"github.com/dmitrymodder/classicserver/internal/buf"
	"github.com/dmitrymodder/classicserver/internal/protocol"
)

// payloadSize gives the fixed payload length (not counting the id byte) of
// every packet id a client is allowed to send, matching the table in
// packet.h used to know how many bytes to wait for before dispatching.
var payloadSize = map[byte]int{
	protocol.Identification:   1 + 64 + 64 + 1,
	protocol.SetBlockClient:   2 + 2 + 2 + 1 + 1,
	protocol.PlayerPosAngle:   1 + 2 + 2 + 2 + 1 + 1,
	protocol.Message:          1 + 64,
	protocol.ExtInfo:          64 + 2,
	protocol.ExtEntry:         64 + 4,
	protocol.CustomBlockLevel: 1,
	protocol.TwoWayPing:       1 + 2,
}

// errUnknownPacket signals a packet id with no known client->server
// payload shape: a protocol violation per §7.
var errUnknownPacket = errors.New("game: unknown packet id")

// NextPacketSize reports how many additional payload bytes are needed for
// the packet identified by id, after the id byte itself has been consumed.
func NextPacketSize(id byte) (int, error) {
	n, ok := payloadSize[id]
	if !ok {
		return 0, errUnknownPacket
	}
	return n, nil
}

// --- decode: client -> server ---

type identPacket struct {
	protocolVer uint8
	name        string
	key         string
	userType    uint8
}

func decodeIdent(payload []byte) (identPacket, bool) {
	b := buf.WrapMemory(payload)
	var p identPacket
	var ok bool
	if p.protocolVer, ok = b.ReadUint8(); !ok {
		return p, false
	}
	if p.name, ok = b.ReadFixedString(); !ok {
		return p, false
	}
	if p.key, ok = b.ReadFixedString(); !ok {
		return p, false
	}
	if p.userType, ok = b.ReadUint8(); !ok {
		return p, false
	}
	return p, true
}

type setBlockClientPacket struct {
	x, y, z uint16
	mode    uint8
	block   uint8
}

func decodeSetBlockClient(payload []byte) (setBlockClientPacket, bool) {
	b := buf.WrapMemory(payload)
	var p setBlockClientPacket
	var ok bool
	if p.x, ok = b.ReadUint16(buf.BigEndian); !ok {
		return p, false
	}
	if p.y, ok = b.ReadUint16(buf.BigEndian); !ok {
		return p, false
	}
	if p.z, ok = b.ReadUint16(buf.BigEndian); !ok {
		return p, false
	}
	if p.mode, ok = b.ReadUint8(); !ok {
		return p, false
	}
	if p.block, ok = b.ReadUint8(); !ok {
		return p, false
	}
	return p, true
}

type posAnglePacket struct {
	id         int8
	x, y, z    int16
	yaw, pitch int8
}

func decodePosAngle(payload []byte) (posAnglePacket, bool) {
	b := buf.WrapMemory(payload)
	var p posAnglePacket
	var ok bool
	if p.id, ok = b.ReadInt8(); !ok {
		return p, false
	}
	if p.x, ok = b.ReadInt16(buf.BigEndian); !ok {
		return p, false
	}
	if p.y, ok = b.ReadInt16(buf.BigEndian); !ok {
		return p, false
	}
	if p.z, ok = b.ReadInt16(buf.BigEndian); !ok {
		return p, false
	}
	if p.yaw, ok = b.ReadInt8(); !ok {
		return p, false
	}
	if p.pitch, ok = b.ReadInt8(); !ok {
		return p, false
	}
	return p, true
}

type messagePacket struct {
	unused uint8
	text   string
}

func decodeMessage(payload []byte) (messagePacket, bool) {
	b := buf.WrapMemory(payload)
	var p messagePacket
	var ok bool
	if p.unused, ok = b.ReadUint8(); !ok {
		return p, false
	}
	if p.text, ok = b.ReadFixedString(); !ok {
		return p, false
	}
	return p, true
}

type extInfoPacket struct {
	appName string
	count   uint16
}

func decodeExtInfo(payload []byte) (extInfoPacket, bool) {
	b := buf.WrapMemory(payload)
	var p extInfoPacket
	var ok bool
	if p.appName, ok = b.ReadFixedString(); !ok {
		return p, false
	}
	if p.count, ok = b.ReadUint16(buf.BigEndian); !ok {
		return p, false
	}
	return p, true
}

type extEntryPacket struct {
	name    string
	version int32
}

func decodeExtEntry(payload []byte) (extEntryPacket, bool) {
	b := buf.WrapMemory(payload)
	var p extEntryPacket
	var ok bool
	if p.name, ok = b.ReadFixedString(); !ok {
		return p, false
	}
	if p.version, ok = b.ReadInt32(buf.BigEndian); !ok {
		return p, false
	}
	return p, true
}

func decodeCustomBlockLevel(payload []byte) (uint8, bool) {
	b := buf.WrapMemory(payload)
	return b.ReadUint8()
}

type twoWayPingPacket struct {
	direction uint8
	key       uint16
}

func decodeTwoWayPing(payload []byte) (twoWayPingPacket, bool) {
	b := buf.WrapMemory(payload)
	var p twoWayPingPacket
	var ok bool
	if p.direction, ok = b.ReadUint8(); !ok {
		return p, false
	}
	if p.key, ok = b.ReadUint16(buf.BigEndian); !ok {
		return p, false
	}
	return p, true
}

// --- encode: server -> client ---

func encodeIdent(protocolVer uint8, name, motd string, userType uint8) []byte {
	b := buf.NewGrowableMemory(1 + 64 + 64 + 1)
	b.WriteUint8(protocol.Identification)
	b.WriteUint8(protocolVer)
	b.WriteFixedString(name, true)
	b.WriteFixedString(motd, true)
	b.WriteUint8(userType)
	return b.Bytes()
}

func encodePing() []byte {
	return []byte{protocol.Ping}
}

func encodeLevelInit() []byte {
	return []byte{protocol.LevelInit}
}

func encodeLevelInitFast(count uint32) []byte {
	b := buf.NewGrowableMemory(1 + 4)
	b.WriteUint8(protocol.LevelInit)
	b.WriteUint32(count, buf.BigEndian)
	return b.Bytes()
}

func encodeLevelChunk(data [1024]byte, length uint16, percent uint8) []byte {
	b := buf.NewGrowableMemory(1 + 2 + 1024 + 1)
	b.WriteUint8(protocol.LevelChunk)
	b.WriteUint16(length, buf.BigEndian)
	b.Write(data[:])
	b.WriteUint8(percent)
	return b.Bytes()
}

func encodeLevelFinish(w, d, h uint16) []byte {
	b := buf.NewGrowableMemory(1 + 6)
	b.WriteUint8(protocol.LevelFinish)
	b.WriteUint16(w, buf.BigEndian)
	b.WriteUint16(d, buf.BigEndian)
	b.WriteUint16(h, buf.BigEndian)
	return b.Bytes()
}

func encodeSetBlockServer(x, y, z uint16, block uint8) []byte {
	b := buf.NewGrowableMemory(1 + 6 + 1)
	b.WriteUint8(protocol.SetBlockServer)
	b.WriteUint16(x, buf.BigEndian)
	b.WriteUint16(y, buf.BigEndian)
	b.WriteUint16(z, buf.BigEndian)
	b.WriteUint8(block)
	return b.Bytes()
}

func encodeSpawn(id int8, name string, x, y, z int16, yaw, pitch int8) []byte {
	b := buf.NewGrowableMemory(1 + 1 + 64 + 6 + 2)
	b.WriteUint8(protocol.SpawnPlayer)
	b.WriteInt8(id)
	b.WriteFixedString(name, true)
	b.WriteInt16(x, buf.BigEndian)
	b.WriteInt16(y, buf.BigEndian)
	b.WriteInt16(z, buf.BigEndian)
	b.WriteInt8(yaw)
	b.WriteInt8(pitch)
	return b.Bytes()
}

func encodePosAngle(id int8, x, y, z int16, yaw, pitch int8) []byte {
	b := buf.NewGrowableMemory(1 + 1 + 6 + 2)
	b.WriteUint8(protocol.PlayerPosAngle)
	b.WriteInt8(id)
	b.WriteInt16(x, buf.BigEndian)
	b.WriteInt16(y, buf.BigEndian)
	b.WriteInt16(z, buf.BigEndian)
	b.WriteInt8(yaw)
	b.WriteInt8(pitch)
	return b.Bytes()
}

func encodeDespawn(id int8) []byte {
	return []byte{protocol.DespawnPlayer, byte(id)}
}

func encodeMessage(unused uint8, msg string) []byte {
	b := buf.NewGrowableMemory(1 + 1 + 64)
	b.WriteUint8(protocol.Message)
	b.WriteUint8(unused)
	b.WriteFixedString(msg, true)
	return b.Bytes()
}

func encodeDisconnect(reason string) []byte {
	b := buf.NewGrowableMemory(1 + 64)
	b.WriteUint8(protocol.Disconnect)
	b.WriteFixedString(reason, true)
	return b.Bytes()
}

func encodeExtInfo(appName string, count uint16) []byte {
	b := buf.NewGrowableMemory(1 + 64 + 2)
	b.WriteUint8(protocol.ExtInfo)
	b.WriteFixedString(appName, true)
	b.WriteUint16(count, buf.BigEndian)
	return b.Bytes()
}

func encodeExtEntry(name string, version int32) []byte {
	b := buf.NewGrowableMemory(1 + 64 + 4)
	b.WriteUint8(protocol.ExtEntry)
	b.WriteFixedString(name, true)
	b.WriteInt32(version, buf.BigEndian)
	return b.Bytes()
}

func encodeCustomBlockLevel(level uint8) []byte {
	return []byte{protocol.CustomBlockLevel, byte(level)}
}

func encodeSetTextColour(r, g, b8, a, code uint8) []byte {
	return []byte{protocol.SetTextColour, r, g, b8, a, code}
}

func encodeTwoWayPing(direction uint8, key uint16) []byte {
	b := buf.NewGrowableMemory(1 + 1 + 2)
	b.WriteUint8(protocol.TwoWayPing)
	b.WriteUint8(direction)
	b.WriteUint16(key, buf.BigEndian)
	return b.Bytes()
}
