package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedStringRoundTrip(t *testing.T) {
	cases := []string{"", "a", "alice", "exactly sixty four characters padded with spaces here!!123456789"}
	for _, s := range cases {
		b := NewMemory(64)
		require.True(t, b.WriteFixedString(s, false))
		b.Seek(0)
		got, ok := b.ReadFixedString()
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestFixedStringFiltersHighBit(t *testing.T) {
	b := NewMemory(64)
	s := string([]byte{0xFF, 'a', 0x80})
	require.True(t, b.WriteFixedString(s, true))
	b.Seek(0)
	raw := make([]byte, 64)
	b.Read(raw)
	assert.Equal(t, byte('?'), raw[0])
	assert.Equal(t, byte('a'), raw[1])
	assert.Equal(t, byte('?'), raw[2])
}

func TestWritePadded1024(t *testing.T) {
	b := NewMemory(1024)
	require.True(t, b.WritePadded1024([]byte("hello")))
	assert.Equal(t, 1024, b.Tell())
	b.Seek(0)
	raw := make([]byte, 1024)
	b.Read(raw)
	assert.Equal(t, "hello", string(raw[:5]))
	for _, c := range raw[5:] {
		assert.Equal(t, byte(0), c)
	}
}

func TestTypedReadWriteFailsCleanlyAtBoundary(t *testing.T) {
	b := NewMemory(1)
	assert.False(t, b.WriteUint16(42, BigEndian))
	assert.Equal(t, 0, b.Tell())

	b2 := NewMemory(1)
	_, ok := b2.ReadUint16(BigEndian)
	assert.False(t, ok)
}

func TestBigEndianRoundTrip(t *testing.T) {
	b := NewMemory(32)
	require.True(t, b.WriteInt16(-12345, BigEndian))
	require.True(t, b.WriteUint32(0xDEADBEEF, BigEndian))
	require.True(t, b.WriteFloat64(3.5, BigEndian))

	b.Seek(0)
	i16, ok := b.ReadInt16(BigEndian)
	require.True(t, ok)
	assert.Equal(t, int16(-12345), i16)

	u32, ok := b.ReadUint32(BigEndian)
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	f64, ok := b.ReadFloat64(BigEndian)
	require.True(t, ok)
	assert.Equal(t, 3.5, f64)
}

func TestGrowableMemoryDoublesCapacity(t *testing.T) {
	b := NewGrowableMemory(2)
	for i := 0; i < 100; i++ {
		require.True(t, b.WriteUint8(byte(i)))
	}
	assert.Equal(t, 100, b.Size())
	b.Seek(0)
	for i := 0; i < 100; i++ {
		v, ok := b.ReadUint8()
		require.True(t, ok)
		assert.Equal(t, byte(i), v)
	}
}
