// Package buf implements the random-access byte buffer the classic wire
// protocol is built on: a fixed or growable memory region, or a file
// handle, with typed fixed-endian integer/float accessors and the
// protocol's 64-byte space-padded string codec.
package buf

import (
	"encoding/binary"
	"math"
	"os"
)

// Order selects the byte order a typed accessor uses for a single call,
// mirroring the reference implementation's paired le/be accessor functions.
type Order int

const (
	LittleEndian Order = iota
	BigEndian
)

func (o Order) impl() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Buffer is either a bounded (or growable) memory region or a file handle.
// Ownership of the underlying file is tracked so Close only closes handles
// this Buffer opened itself.
type Buffer struct {
	mem      []byte
	growable bool
	offset   int

	file      *os.File
	ownedFile bool
}

// NewMemory allocates a zeroed, fixed-size memory buffer.
func NewMemory(size int) *Buffer {
	return &Buffer{mem: make([]byte, size)}
}

// NewGrowableMemory allocates an initially empty memory buffer that doubles
// its capacity as writes need more room.
func NewGrowableMemory(initialCap int) *Buffer {
	return &Buffer{mem: make([]byte, 0, initialCap), growable: true}
}

// WrapMemory wraps an existing slice without copying; writes past len(data)
// fail unless the buffer is also marked growable.
func WrapMemory(data []byte) *Buffer {
	return &Buffer{mem: data}
}

// NewFile wraps an already-open file handle. Close will not close it.
func NewFile(f *os.File) *Buffer {
	return &Buffer{file: f}
}

// OpenFile opens path with the given flags/permissions as a file-backed
// Buffer, owning the handle.
func OpenFile(path string, flag int, perm os.FileMode) (*Buffer, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return &Buffer{file: f, ownedFile: true}, nil
}

// Close releases the underlying file handle if this Buffer owns it.
func (b *Buffer) Close() error {
	if b.file != nil && b.ownedFile {
		return b.file.Close()
	}
	return nil
}

func (b *Buffer) isFile() bool { return b.file != nil }

// Seek repositions the buffer and returns the resulting offset.
func (b *Buffer) Seek(offset int) int {
	if b.isFile() {
		pos, err := b.file.Seek(int64(offset), 0)
		if err != nil {
			return b.offset
		}
		b.offset = int(pos)
		return b.offset
	}

	if offset > len(b.mem) {
		offset = len(b.mem)
	}
	b.offset = offset
	return b.offset
}

// Tell returns the current offset.
func (b *Buffer) Tell() int {
	if b.isFile() {
		pos, err := b.file.Seek(0, 1)
		if err != nil {
			return b.offset
		}
		return int(pos)
	}
	return b.offset
}

// Size returns the total addressable length of the buffer.
func (b *Buffer) Size() int {
	if b.isFile() {
		info, err := b.file.Stat()
		if err != nil {
			return 0
		}
		return int(info.Size())
	}
	return len(b.mem)
}

// Bytes returns the underlying memory slice. It panics for file buffers.
func (b *Buffer) Bytes() []byte {
	if b.isFile() {
		panic("buf: Bytes called on a file-backed buffer")
	}
	return b.mem
}

// Read copies up to len(p) bytes starting at the current offset, advancing
// it by the amount actually read.
func (b *Buffer) Read(p []byte) int {
	if b.isFile() {
		n, _ := b.file.Read(p)
		if n < 0 {
			n = 0
		}
		return n
	}

	avail := len(b.mem) - b.offset
	if avail < 0 {
		avail = 0
	}
	n := len(p)
	if n > avail {
		n = avail
	}
	copy(p, b.mem[b.offset:b.offset+n])
	b.offset += n
	return n
}

// Write copies p into the buffer at the current offset, growing the
// backing slice first if the buffer is growable.
func (b *Buffer) Write(p []byte) int {
	if b.isFile() {
		n, _ := b.file.Write(p)
		if n < 0 {
			n = 0
		}
		return n
	}

	need := b.offset + len(p)
	if need > len(b.mem) {
		if !b.growable {
			avail := len(b.mem) - b.offset
			if avail < 0 {
				avail = 0
			}
			n := len(p)
			if n > avail {
				n = avail
			}
			copy(b.mem[b.offset:b.offset+n], p[:n])
			b.offset += n
			return n
		}

		newCap := cap(b.mem)
		if newCap == 0 {
			newCap = 64
		}
		for newCap < need {
			newCap *= 2
		}
		grown := make([]byte, need, newCap)
		copy(grown, b.mem)
		b.mem = grown
	}

	copy(b.mem[b.offset:need], p)
	b.offset = need
	return len(p)
}

func (b *Buffer) fits(n int) bool {
	return b.Tell()+n <= b.Size()
}

// ReadUint8 reads a single unsigned byte, failing cleanly at the buffer end.
func (b *Buffer) ReadUint8() (uint8, bool) {
	if !b.fits(1) {
		return 0, false
	}
	var tmp [1]byte
	b.Read(tmp[:])
	return tmp[0], true
}

// ReadInt8 reads a single signed byte, failing cleanly at the buffer end.
func (b *Buffer) ReadInt8() (int8, bool) {
	v, ok := b.ReadUint8()
	return int8(v), ok
}

// WriteUint8 writes a single unsigned byte, failing cleanly at the buffer end.
func (b *Buffer) WriteUint8(v uint8) bool {
	if !b.growable && !b.isFile() && !b.fits(1) {
		return false
	}
	b.Write([]byte{v})
	return true
}

// WriteInt8 writes a single signed byte, failing cleanly at the buffer end.
func (b *Buffer) WriteInt8(v int8) bool {
	return b.WriteUint8(uint8(v))
}

func readTyped(b *Buffer, size int, order Order, dst []byte) bool {
	if !b.fits(size) {
		return false
	}
	n := b.Read(dst)
	return n == size
}

func writeTyped(b *Buffer, size int, dst []byte) bool {
	if !b.growable && !b.isFile() && !b.fits(size) {
		return false
	}
	n := b.Write(dst)
	return n == size
}

// ReadUint16 reads an unsigned 16-bit integer in the given byte order.
func (b *Buffer) ReadUint16(order Order) (uint16, bool) {
	var tmp [2]byte
	if !readTyped(b, 2, order, tmp[:]) {
		return 0, false
	}
	return order.impl().Uint16(tmp[:]), true
}

// WriteUint16 writes an unsigned 16-bit integer in the given byte order.
func (b *Buffer) WriteUint16(v uint16, order Order) bool {
	var tmp [2]byte
	order.impl().PutUint16(tmp[:], v)
	return writeTyped(b, 2, tmp[:])
}

// ReadInt16 reads a signed 16-bit integer in the given byte order.
func (b *Buffer) ReadInt16(order Order) (int16, bool) {
	v, ok := b.ReadUint16(order)
	return int16(v), ok
}

// WriteInt16 writes a signed 16-bit integer in the given byte order.
func (b *Buffer) WriteInt16(v int16, order Order) bool {
	return b.WriteUint16(uint16(v), order)
}

// ReadUint32 reads an unsigned 32-bit integer in the given byte order.
func (b *Buffer) ReadUint32(order Order) (uint32, bool) {
	var tmp [4]byte
	if !readTyped(b, 4, order, tmp[:]) {
		return 0, false
	}
	return order.impl().Uint32(tmp[:]), true
}

// WriteUint32 writes an unsigned 32-bit integer in the given byte order.
func (b *Buffer) WriteUint32(v uint32, order Order) bool {
	var tmp [4]byte
	order.impl().PutUint32(tmp[:], v)
	return writeTyped(b, 4, tmp[:])
}

// ReadInt32 reads a signed 32-bit integer in the given byte order.
func (b *Buffer) ReadInt32(order Order) (int32, bool) {
	v, ok := b.ReadUint32(order)
	return int32(v), ok
}

// WriteInt32 writes a signed 32-bit integer in the given byte order.
func (b *Buffer) WriteInt32(v int32, order Order) bool {
	return b.WriteUint32(uint32(v), order)
}

// ReadUint64 reads an unsigned 64-bit integer in the given byte order.
func (b *Buffer) ReadUint64(order Order) (uint64, bool) {
	var tmp [8]byte
	if !readTyped(b, 8, order, tmp[:]) {
		return 0, false
	}
	return order.impl().Uint64(tmp[:]), true
}

// WriteUint64 writes an unsigned 64-bit integer in the given byte order.
func (b *Buffer) WriteUint64(v uint64, order Order) bool {
	var tmp [8]byte
	order.impl().PutUint64(tmp[:], v)
	return writeTyped(b, 8, tmp[:])
}

// ReadInt64 reads a signed 64-bit integer in the given byte order.
func (b *Buffer) ReadInt64(order Order) (int64, bool) {
	v, ok := b.ReadUint64(order)
	return int64(v), ok
}

// WriteInt64 writes a signed 64-bit integer in the given byte order.
func (b *Buffer) WriteInt64(v int64, order Order) bool {
	return b.WriteUint64(uint64(v), order)
}

// ReadFloat32 reads an IEEE-754 single-precision float in the given byte order.
func (b *Buffer) ReadFloat32(order Order) (float32, bool) {
	v, ok := b.ReadUint32(order)
	return math.Float32frombits(v), ok
}

// WriteFloat32 writes an IEEE-754 single-precision float in the given byte order.
func (b *Buffer) WriteFloat32(v float32, order Order) bool {
	return b.WriteUint32(math.Float32bits(v), order)
}

// ReadFloat64 reads an IEEE-754 double-precision float in the given byte order.
func (b *Buffer) ReadFloat64(order Order) (float64, bool) {
	v, ok := b.ReadUint64(order)
	return math.Float64frombits(v), ok
}

// WriteFloat64 writes an IEEE-754 double-precision float in the given byte order.
func (b *Buffer) WriteFloat64(v float64, order Order) bool {
	return b.WriteUint64(math.Float64bits(v), order)
}

const fixedStringLen = 64

// ReadFixedString reads the classic wire's 64-byte space-padded string
// field and strips trailing spaces.
func (b *Buffer) ReadFixedString() (string, bool) {
	if !b.fits(fixedStringLen) {
		return "", false
	}

	raw := make([]byte, fixedStringLen)
	if n := b.Read(raw); n != fixedStringLen {
		return "", false
	}

	end := fixedStringLen
	for end > 0 && raw[end-1] == ' ' {
		end--
	}
	return string(raw[:end]), true
}

// WriteFixedString writes s into exactly 64 bytes, space-padded, truncating
// anything past 64 bytes. When filter is set, bytes with the high bit set
// are replaced with '?' for clients that can't render extended CP437.
func (b *Buffer) WriteFixedString(s string, filter bool) bool {
	field := make([]byte, fixedStringLen)
	for i := range field {
		field[i] = ' '
	}

	src := []byte(s)
	n := len(src)
	if n > fixedStringLen {
		n = fixedStringLen
	}
	copy(field, src[:n])

	if filter {
		for i, c := range field {
			if c&0x80 != 0 {
				field[i] = '?'
			}
		}
	}

	return writeTyped(b, fixedStringLen, field)
}

const paddedLen = 1024

// WritePadded1024 writes up to 1024 bytes of data, zero-padded to exactly
// 1024 bytes. Used during the CPE handshake's fixed-size fields.
func (b *Buffer) WritePadded1024(data []byte) bool {
	field := make([]byte, paddedLen)
	n := len(data)
	if n > paddedLen {
		n = paddedLen
	}
	copy(field, data[:n])
	return writeTyped(b, paddedLen, field)
}
