// Package worldstore persists a voxel.Map to disk and loads it back. The
// on-disk layout is this server's own gzip-wrapped binary format rather than
// the reference implementation's ClassicWorld/NBT format, which is out of
// scope (see DESIGN.md); what's carried over is the same two requirements
// mapsave.c exists to satisfy: dimensions plus the raw block array survive a
// restart, and so does the scheduled-tick queue.
package worldstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/voxel"
	"github.com/klauspost/compress/gzip"
)

const (
	magic         = "CSWS"
	formatVersion = 1
)

// Path returns the file a map with the given name is saved to.
func Path(dir, name string) string {
	if dir == "" {
		return name + ".csws"
	}
	return dir + "/" + name + ".csws"
}

// Save writes m to path, gzip-compressed. The tick queue is stored as
// (x, y, z, relative-delay) tuples so it replays correctly regardless of
// what the absolute tick counter is when the file is loaded back in.
func Save(path string, m *voxel.Map) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("worldstore: create %s: %w", path, err)
	}
	defer f.Close()

	gw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("worldstore: gzip writer: %w", err)
	}
	defer gw.Close()

	w := bufio.NewWriter(gw)

	if _, err := w.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint8(formatVersion)); err != nil {
		return err
	}

	name := []byte(m.Name)
	if err := binary.Write(w, binary.BigEndian, uint16(len(name))); err != nil {
		return err
	}
	if _, err := w.Write(name); err != nil {
		return err
	}

	dims := []int32{int32(m.SizeX), int32(m.SizeY), int32(m.SizeZ)}
	for _, d := range dims {
		if err := binary.Write(w, binary.BigEndian, d); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.BigEndian, m.Tick()); err != nil {
		return err
	}

	blocks := m.Blocks()
	raw := make([]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = byte(b)
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}

	ticks := m.ExportScheduledTicks()
	if err := binary.Write(w, binary.BigEndian, uint32(len(ticks))); err != nil {
		return err
	}
	for _, t := range ticks {
		fields := []int32{int32(t.X), int32(t.Y), int32(t.Z)}
		for _, v := range fields {
			if err := binary.Write(w, binary.BigEndian, v); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.BigEndian, t.DueIn); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return gw.Close()
}

// Load reads a map previously written by Save, applying it to a freshly
// constructed voxel.Map for the given registry and RNG seed. The seed does
// not need to match what the map was originally generated with: only the
// random-tick sampling sequence going forward depends on it, not the
// persisted block data.
func Load(path string, registry *blockreg.Registry, seed int64) (*voxel.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("worldstore: open %s: %w", path, err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("worldstore: gzip reader: %w", err)
	}
	defer gr.Close()

	r := bufio.NewReader(gr)

	got := make([]byte, len(magic))
	if _, err := io.ReadFull(r, got); err != nil {
		return nil, fmt.Errorf("worldstore: read magic: %w", err)
	}
	if string(got) != magic {
		return nil, fmt.Errorf("worldstore: %s is not a world file", path)
	}

	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("worldstore: unsupported format version %d", version)
	}

	var nameLen uint16
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return nil, err
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, err
	}
	name := string(nameBuf)

	var sizeX, sizeY, sizeZ int32
	if err := binary.Read(r, binary.BigEndian, &sizeX); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &sizeY); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &sizeZ); err != nil {
		return nil, err
	}

	var tick uint64
	if err := binary.Read(r, binary.BigEndian, &tick); err != nil {
		return nil, err
	}

	volume := int(sizeX) * int(sizeY) * int(sizeZ)
	raw := make([]byte, volume)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("worldstore: read block array: %w", err)
	}
	blocks := make([]blockreg.Block, volume)
	for i, b := range raw {
		blocks[i] = blockreg.Block(b)
	}

	var tickCount uint32
	if err := binary.Read(r, binary.BigEndian, &tickCount); err != nil {
		return nil, err
	}
	ticks := make([]voxel.TickEntry, tickCount)
	for i := range ticks {
		var x, y, z int32
		if err := binary.Read(r, binary.BigEndian, &x); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &y); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &z); err != nil {
			return nil, err
		}
		var dueIn uint64
		if err := binary.Read(r, binary.BigEndian, &dueIn); err != nil {
			return nil, err
		}
		ticks[i] = voxel.TickEntry{X: int(x), Y: int(y), Z: int(z), DueIn: dueIn}
	}

	m := voxel.New(name, int(sizeX), int(sizeY), int(sizeZ), registry, seed)
	m.Restore(blocks, tick, ticks)
	return m, nil
}

// Exists reports whether a save file is present for path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
