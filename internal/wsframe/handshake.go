// Package wsframe implements the RFC 6455 handshake and binary frame
// codec the classic protocol tunnels itself over when a client connects
// via ClassiCube's in-browser WebSocket transport, matching
// original_source/src/client.c's client_ws_upgrade/client_ws_* family.
package wsframe

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/dmitrymodder/classicserver/internal/httpheader"
)

const handshakeGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Accept computes the Sec-WebSocket-Accept value for a given client key.
func Accept(key string) string {
	sum := sha1.Sum([]byte(key + handshakeGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ValidateUpgrade reports whether the parsed request headers form a valid
// ClassiCube WebSocket upgrade, mirroring client_ws_upgrade's checks.
func ValidateUpgrade(h *httpheader.Headers) bool {
	conn := h.Get("Connection")
	upgrade := h.Get("Upgrade")

	return containsFold(conn, "upgrade") &&
		equalFold(upgrade, "websocket") &&
		h.Get("Sec-WebSocket-Version") == "13" &&
		equalFold(h.Get("Sec-WebSocket-Protocol"), "ClassiCube") &&
		h.Get("Sec-WebSocket-Key") != ""
}

// UpgradeResponse builds the HTTP response that completes the handshake.
func UpgradeResponse(key, serverName string) string {
	return fmt.Sprintf(
		"HTTP/1.1 101 Switching Protocols\r\n"+
			"Connection: upgrade\r\n"+
			"Upgrade: websocket\r\n"+
			"Sec-WebSocket-Accept: %s\r\n"+
			"Sec-WebSocket-Protocol: ClassiCube\r\n"+
			"Server: %s\r\n"+
			"\r\n",
		Accept(key), serverName,
	)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	hl, nl := len(haystack), len(needle)
	if nl == 0 {
		return true
	}
	for i := 0; i+nl <= hl; i++ {
		if equalFold(haystack[i:i+nl], needle) {
			return true
		}
	}
	return false
}
