package wsframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFrame(opcode byte, payload []byte, mask [4]byte) []byte {
	out := []byte{0x80 | opcode, 0x80 | byte(len(payload))}
	out = append(out, mask[:]...)
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ mask[i&3]
	}
	return append(out, masked...)
}

func TestAcceptKnownVector(t *testing.T) {
	// RFC 6455 section 1.3's worked example.
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", Accept("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestDecodeSmallFrameInOneCall(t *testing.T) {
	d := &Decoder{}
	frame := maskFrame(0x02, []byte("hello"), [4]byte{1, 2, 3, 4})
	msgs, err := d.Feed(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", string(msgs[0]))
	assert.Zero(t, d.CloseCode)
}

func TestDecodeFrameSplitAcrossCalls(t *testing.T) {
	d := &Decoder{}
	frame := maskFrame(0x02, []byte("split across reads"), [4]byte{9, 8, 7, 6})

	var msgs [][]byte
	for _, b := range frame {
		got, err := d.Feed([]byte{b})
		require.NoError(t, err)
		msgs = append(msgs, got...)
	}

	require.Len(t, msgs, 1)
	assert.Equal(t, "split across reads", string(msgs[0]))
}

func TestDecodeExtendedLengthFrame(t *testing.T) {
	d := &Decoder{}
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i)
	}
	mask := [4]byte{1, 1, 1, 1}
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ mask[i&3]
	}
	frame := []byte{0x82, 0xFE, byte(len(payload) >> 8), byte(len(payload))}
	frame = append(frame, mask[:]...)
	frame = append(frame, masked...)

	msgs, err := d.Feed(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0])
}

func TestDecodeCloseOpcodeSetsCloseCode(t *testing.T) {
	d := &Decoder{}
	frame := maskFrame(0x08, nil, [4]byte{1, 1, 1, 1})
	_, err := d.Feed(frame)
	require.NoError(t, err)
	assert.Equal(t, CloseNormal, d.CloseCode)
}

func TestDecodeLength127IsProtocolError(t *testing.T) {
	d := &Decoder{}
	frame := []byte{0x82, 0xFF}
	_, err := d.Feed(frame)
	require.NoError(t, err)
	assert.Equal(t, CloseTooLarge, d.CloseCode)
}

func TestWrapBinarySmallPayload(t *testing.T) {
	out := WrapBinary([]byte("abc"))
	assert.Equal(t, []byte{0x82, 0x03, 'a', 'b', 'c'}, out)
}

func TestWrapBinaryLargePayloadUsesExtendedLength(t *testing.T) {
	payload := make([]byte, 200)
	out := WrapBinary(payload)
	assert.Equal(t, byte(0x82), out[0])
	assert.Equal(t, byte(126), out[1])
	assert.Equal(t, byte(200), out[3])
}
