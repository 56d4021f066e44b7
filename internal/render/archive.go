package render

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"

	"voxelworld/internal/mesh"
	"voxelworld/internal/world"
)

const (
	archiveOpUpload  byte = 1
	archiveOpVisible byte = 2

	// op, chunk x, chunk z, payload size
	archiveHeaderSize = 13
)

type archiveMesh struct {
	Origin             mgl32.Vec3
	Vertices           []mgl32.Vec3
	Triangles          []uint32
	UVs                []mgl32.Vec2
	RecalculateNormals bool
}

type archiveRecord struct {
	offset int64
	size   uint32
}

// ArchiveEntry is the latest archived state of one chunk.
type ArchiveEntry struct {
	Coord   world.ChunkCoord
	Origin  mgl32.Vec3
	Mesh    *mesh.Mesh
	Visible bool
}

// Archive is an append-only log of uploaded meshes and visibility changes.
// Mesh payloads are gob encoded and zstd compressed. Reopening an archive
// replays the log so the latest record per chunk wins.
type Archive struct {
	mu      sync.RWMutex
	file    *os.File
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	records map[world.ChunkCoord]archiveRecord
	visible map[world.ChunkCoord]bool
}

func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	a := &Archive{
		file:    f,
		encoder: encoder,
		decoder: decoder,
		records: make(map[world.ChunkCoord]archiveRecord),
		visible: make(map[world.ChunkCoord]bool),
	}
	if err := a.loadIndex(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) loadIndex() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := a.file.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	fileSize := info.Size()
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind archive: %w", err)
	}
	header := make([]byte, archiveHeaderSize)
	var offset int64
	for {
		if _, err := io.ReadFull(a.file, header); err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				return fmt.Errorf("truncated archive header at %d: %w", offset, err)
			}
			return fmt.Errorf("read archive header: %w", err)
		}
		op, coord, size := decodeHeader(header)
		recordOffset := offset
		offset += archiveHeaderSize + int64(size)
		if offset > fileSize {
			return fmt.Errorf("truncated archive payload at %d: need %d bytes, have %d", recordOffset, size, fileSize-recordOffset-archiveHeaderSize)
		}

		switch op {
		case archiveOpUpload:
			if _, err := a.file.Seek(int64(size), io.SeekCurrent); err != nil {
				return fmt.Errorf("seek past payload: %w", err)
			}
			a.records[coord] = archiveRecord{offset: recordOffset, size: size}
		case archiveOpVisible:
			payload := make([]byte, size)
			if _, err := io.ReadFull(a.file, payload); err != nil {
				return fmt.Errorf("read visibility at %d: %w", recordOffset, err)
			}
			a.visible[coord] = len(payload) > 0 && payload[0] == 1
		default:
			return fmt.Errorf("unknown archive op %d at %d", op, recordOffset)
		}
	}
	return nil
}

func encodeHeader(op byte, coord world.ChunkCoord, size int) []byte {
	header := make([]byte, archiveHeaderSize)
	header[0] = op
	binary.LittleEndian.PutUint32(header[1:5], uint32(int32(coord.X)))
	binary.LittleEndian.PutUint32(header[5:9], uint32(int32(coord.Z)))
	binary.LittleEndian.PutUint32(header[9:13], uint32(size))
	return header
}

func decodeHeader(header []byte) (byte, world.ChunkCoord, uint32) {
	coord := world.ChunkCoord{
		X: int(int32(binary.LittleEndian.Uint32(header[1:5]))),
		Z: int(int32(binary.LittleEndian.Uint32(header[5:9]))),
	}
	return header[0], coord, binary.LittleEndian.Uint32(header[9:13])
}

// append writes one record at the end of the log and returns its offset.
// Callers hold a.mu.
func (a *Archive) append(op byte, coord world.ChunkCoord, payload []byte) (int64, error) {
	offset, err := a.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek archive end: %w", err)
	}
	if _, err := a.file.Write(encodeHeader(op, coord, len(payload))); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if _, err := a.file.Write(payload); err != nil {
		return 0, fmt.Errorf("write payload: %w", err)
	}
	return offset, nil
}

func (a *Archive) Upload(coord world.ChunkCoord, origin mgl32.Vec3, m *mesh.Mesh) error {
	if m == nil {
		return errors.New("archive: nil mesh")
	}
	var raw bytes.Buffer
	record := archiveMesh{
		Origin:             origin,
		Vertices:           m.Vertices,
		Triangles:          m.Triangles,
		UVs:                m.UVs,
		RecalculateNormals: m.RecalculateNormals,
	}
	if err := gob.NewEncoder(&raw).Encode(&record); err != nil {
		return fmt.Errorf("encode mesh %v: %w", coord, err)
	}
	payload := a.encoder.EncodeAll(raw.Bytes(), nil)

	a.mu.Lock()
	defer a.mu.Unlock()
	offset, err := a.append(archiveOpUpload, coord, payload)
	if err != nil {
		return fmt.Errorf("archive mesh %v: %w", coord, err)
	}
	a.records[coord] = archiveRecord{offset: offset, size: uint32(len(payload))}
	return nil
}

func (a *Archive) SetVisible(coord world.ChunkCoord, visible bool) error {
	payload := []byte{0}
	if visible {
		payload[0] = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.append(archiveOpVisible, coord, payload); err != nil {
		return fmt.Errorf("archive visibility %v: %w", coord, err)
	}
	a.visible[coord] = visible
	return nil
}

// Load returns the latest archived mesh for coord.
func (a *Archive) Load(coord world.ChunkCoord) (ArchiveEntry, bool, error) {
	a.mu.RLock()
	meta, ok := a.records[coord]
	visible := a.visible[coord]
	a.mu.RUnlock()
	if !ok {
		return ArchiveEntry{}, false, nil
	}

	buf := make([]byte, archiveHeaderSize+int(meta.size))
	if _, err := a.file.ReadAt(buf, meta.offset); err != nil {
		return ArchiveEntry{}, false, fmt.Errorf("read mesh %v at %d: %w", coord, meta.offset, err)
	}
	op, stored, _ := decodeHeader(buf)
	if op != archiveOpUpload || stored != coord {
		return ArchiveEntry{}, false, fmt.Errorf("archive record at %d is not mesh %v", meta.offset, coord)
	}
	raw, err := a.decoder.DecodeAll(buf[archiveHeaderSize:], nil)
	if err != nil {
		return ArchiveEntry{}, false, fmt.Errorf("decompress mesh %v: %w", coord, err)
	}
	var record archiveMesh
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&record); err != nil {
		return ArchiveEntry{}, false, fmt.Errorf("decode mesh %v: %w", coord, err)
	}
	return ArchiveEntry{
		Coord:  coord,
		Origin: record.Origin,
		Mesh: &mesh.Mesh{
			Vertices:           record.Vertices,
			Triangles:          record.Triangles,
			UVs:                record.UVs,
			RecalculateNormals: record.RecalculateNormals,
		},
		Visible: visible,
	}, true, nil
}

// Coords lists archived meshes ordered by X then Z.
func (a *Archive) Coords() []world.ChunkCoord {
	a.mu.RLock()
	coords := make([]world.ChunkCoord, 0, len(a.records))
	for coord := range a.records {
		coords = append(coords, coord)
	}
	a.mu.RUnlock()
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X == coords[j].X {
			return coords[i].Z < coords[j].Z
		}
		return coords[i].X < coords[j].X
	})
	return coords
}

// ForEach visits archived meshes in Coords order until fn returns false.
func (a *Archive) ForEach(fn func(ArchiveEntry) bool) error {
	for _, coord := range a.Coords() {
		entry, ok, err := a.Load(coord)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !fn(entry) {
			break
		}
	}
	return nil
}

func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Sync flushes the log to stable storage.
func (a *Archive) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Sync()
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decoder.Close()
	if err := a.encoder.Close(); err != nil {
		a.file.Close()
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	if err := a.file.Sync(); err != nil {
		a.file.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	return a.file.Close()
}
