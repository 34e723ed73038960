// Package httpheader implements the small "key: value\r\n" header parser
// the WebSocket upgrade handshake is read with. It is not a general HTTP
// parser: a leading request/status line, having no colon, is skipped, and
// reading stops at the first blank line, matching
// original_source/src/util.c's util_httpheaders_parse/_get.
package httpheader

import "strings"

// Headers is a parsed set of request headers, queryable case-insensitively.
type Headers struct {
	keys   []string
	values []string
}

// Parse reads "Key: value\r\n" lines out of text until a blank line or the
// input ends. Unlike net/textproto.ReadMIMEHeader, it tolerates an input
// that doesn't start with a request line, since callers hand it the buffer
// straight off the socket.
func Parse(text string) *Headers {
	h := &Headers{}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			break
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key := line[:idx]
		value := strings.TrimPrefix(line[idx+1:], " ")
		h.keys = append(h.keys, key)
		h.values = append(h.values, value)
	}

	return h
}

// Get returns the first value for key (case-insensitive), or "" if absent.
func (h *Headers) Get(key string) string {
	for i, k := range h.keys {
		if strings.EqualFold(k, key) {
			return h.values[i]
		}
	}
	return ""
}

// Has reports whether key is present at all.
func (h *Headers) Has(key string) bool {
	for _, k := range h.keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
