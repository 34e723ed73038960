package wsframe

import (
	"testing"

	"github.com/dmitrymodder/classicserver/internal/httpheader"
	"github.com/stretchr/testify/assert"
)

func validRequest() *httpheader.Headers {
	return httpheader.Parse(
		"Host: example.com\r\n" +
			"Connection: Upgrade\r\n" +
			"Upgrade: websocket\r\n" +
			"Sec-WebSocket-Version: 13\r\n" +
			"Sec-WebSocket-Protocol: ClassiCube\r\n" +
			"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n",
	)
}

func TestValidateUpgradeAcceptsWellFormedRequest(t *testing.T) {
	assert.True(t, ValidateUpgrade(validRequest()))
}

func TestValidateUpgradeRejectsWrongSubprotocol(t *testing.T) {
	h := httpheader.Parse(
		"Connection: Upgrade\r\nUpgrade: websocket\r\nSec-WebSocket-Version: 13\r\n" +
			"Sec-WebSocket-Protocol: minecraft\r\nSec-WebSocket-Key: abc\r\n\r\n",
	)
	assert.False(t, ValidateUpgrade(h))
}

func TestUpgradeResponseContainsAcceptHeader(t *testing.T) {
	resp := UpgradeResponse("dGhlIHNhbXBsZSBub25jZQ==", "classicserver")
	assert.Contains(t, resp, "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=")
	assert.Contains(t, resp, "101 Switching Protocols")
}
