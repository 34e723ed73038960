// Package transfer implements the two ways a map is shipped to a client:
// a whole-world gzip blob fed to the client a few kilobytes per tick, and a
// streamed raw-deflate FastMap feed produced by a worker goroutine and
// throttled the way the reference paces its dedicated send thread. Grounded
// in original_source/src/mapsend.c's mapsend_thread_start and
// mapsend_fast_thread_start.
package transfer

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/dmitrymodder/classicserver/internal/protocol"
)

// ChunkSize is the fixed payload size of one LevelChunk packet.
const ChunkSize = 1024

// CompressWhole gzip-compresses a 4-byte big-endian block count followed by
// the raw block array, matching mapsend_thread_start's deflateInit2 call
// with a gzip window (15|16).
func CompressWhole(blocks []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := gzip.NewWriterLevel(&out, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(blocks)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return nil, err
	}
	if _, err := w.Write(blocks); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// ChunkReader serves a precompressed blob out in ChunkSize pieces, the
// shape client_tick's mapsend_success branch consumes four of per tick.
type ChunkReader struct {
	data   []byte
	offset int
}

// NewChunkReader wraps an already-compressed map blob for chunked delivery.
func NewChunkReader(data []byte) *ChunkReader {
	return &ChunkReader{data: data}
}

// Next returns the next chunk (always ChunkSize bytes, zero-padded) and how
// many of those bytes are meaningful, or done=true once everything has been
// served.
func (c *ChunkReader) Next() (chunk [ChunkSize]byte, length int, done bool) {
	if c.offset >= len(c.data) {
		return chunk, 0, true
	}

	n := copy(chunk[:], c.data[c.offset:])
	c.offset += n
	return chunk, n, false
}

// FastMapChunk is one LevelChunk's 1024-byte payload and the count of its
// meaningful bytes, produced by the FastMap streaming compressor. The
// caller lays out the packet id, length and percent bytes around it.
type FastMapChunk struct {
	Payload [ChunkSize]byte
	Length  uint16
}

// StreamFastMap compresses blocks with raw deflate and emits FastMapChunk
// values on the returned channel as they become ready, closing it when
// done. err receives a single value (possibly nil) once the goroutine
// exits. Grounded in mapsend_fast_thread_start's do/while deflate loop,
// including its throttling sleep once enough chunks have queued up.
func StreamFastMap(blocks []byte) (<-chan FastMapChunk, <-chan error) {
	chunks := make(chan FastMapChunk, 32)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		w, err := flate.NewWriter(nil, flate.BestCompression)
		if err != nil {
			errc <- err
			return
		}

		var out bytes.Buffer
		w.Reset(&out)

		const inputBatch = 2 * 1024 * 1024
		sinceThrottle := 0

		for off := 0; off < len(blocks); off += inputBatch {
			end := off + inputBatch
			if end > len(blocks) {
				end = len(blocks)
			}
			if _, err := w.Write(blocks[off:end]); err != nil {
				errc <- err
				return
			}
			if err := w.Flush(); err != nil {
				errc <- err
				return
			}

			for out.Len() >= ChunkSize || (end == len(blocks) && out.Len() > 0) {
				var fc FastMapChunk
				n := copy(fc.Payload[:], out.Next(min(ChunkSize, out.Len())))
				fc.Length = uint16(n)
				chunks <- fc

				sinceThrottle += ChunkSize
				if sinceThrottle >= protocol.ChunkThrottleBytes {
					time.Sleep(50 * time.Millisecond)
					sinceThrottle = 0
				}
			}
		}

		if err := w.Close(); err != nil {
			errc <- err
			return
		}
		for out.Len() > 0 {
			var fc FastMapChunk
			n := copy(fc.Payload[:], out.Next(min(ChunkSize, out.Len())))
			fc.Length = uint16(n)
			chunks <- fc
		}

		errc <- nil
	}()

	return chunks, errc
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
