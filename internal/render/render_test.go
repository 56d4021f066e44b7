package render

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/block"
	"voxelworld/internal/mesh"
	"voxelworld/internal/world"
)

func sampleMesh(t *testing.T, faces int) *mesh.Mesh {
	t.Helper()
	atlas, err := mesh.NewAtlas(16)
	if err != nil {
		t.Fatalf("new atlas: %v", err)
	}
	b := mesh.NewBuilder(atlas)
	for i := 0; i < faces; i++ {
		b.AddFace(block.Faces[i%len(block.Faces)], mgl32.Vec3{float32(i), 0, 0}, i)
	}
	return b.Mesh()
}

func TestArchiveRoundTripAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "meshes.vxa")
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	first := sampleMesh(t, 3)
	second := sampleMesh(t, 7)
	coord := world.ChunkCoord{X: 4, Z: -2}
	other := world.ChunkCoord{X: 1, Z: 9}

	if err := archive.Upload(coord, mgl32.Vec3{64, 0, -32}, first); err != nil {
		t.Fatalf("upload first: %v", err)
	}
	if err := archive.Upload(other, mgl32.Vec3{16, 0, 144}, first); err != nil {
		t.Fatalf("upload other: %v", err)
	}
	if err := archive.SetVisible(coord, true); err != nil {
		t.Fatalf("set visible: %v", err)
	}
	if err := archive.Upload(coord, mgl32.Vec3{64, 0, -32}, second); err != nil {
		t.Fatalf("upload second: %v", err)
	}

	entry, ok, err := archive.Load(coord)
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if !reflect.DeepEqual(entry.Mesh, second) {
		t.Fatalf("latest upload should win")
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	defer reopened.Close()

	if reopened.Len() != 2 {
		t.Fatalf("expected 2 archived chunks, got %d", reopened.Len())
	}
	entry, ok, err = reopened.Load(coord)
	if err != nil || !ok {
		t.Fatalf("load after reopen: ok=%t err=%v", ok, err)
	}
	if !reflect.DeepEqual(entry.Mesh, second) {
		t.Fatalf("reopened mesh mismatch")
	}
	if entry.Origin != (mgl32.Vec3{64, 0, -32}) {
		t.Fatalf("unexpected origin %v", entry.Origin)
	}
	if !entry.Visible {
		t.Fatalf("visibility should survive reopen")
	}

	var visited []world.ChunkCoord
	if err := reopened.ForEach(func(e ArchiveEntry) bool {
		visited = append(visited, e.Coord)
		return true
	}); err != nil {
		t.Fatalf("for each: %v", err)
	}
	if !reflect.DeepEqual(visited, []world.ChunkCoord{other, coord}) {
		t.Fatalf("unexpected visit order %v", visited)
	}

	if _, ok, err := reopened.Load(world.ChunkCoord{X: 99}); ok || err != nil {
		t.Fatalf("missing chunk: ok=%t err=%v", ok, err)
	}
}

func TestArchiveRejectsTruncatedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshes.vxa")
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if err := archive.Upload(world.ChunkCoord{X: 1, Z: 1}, mgl32.Vec3{}, sampleMesh(t, 2)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.Write([]byte{archiveOpUpload, 1, 2}); err != nil {
		t.Fatalf("append garbage: %v", err)
	}
	f.Close()

	if _, err := OpenArchive(path); err == nil {
		t.Fatalf("expected truncated header to be rejected")
	}
}

func TestArchiveRejectsTruncatedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshes.vxa")
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if err := archive.Upload(world.ChunkCoord{X: 1, Z: 1}, mgl32.Vec3{}, sampleMesh(t, 2)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	record := encodeHeader(archiveOpUpload, world.ChunkCoord{X: 2, Z: 2}, 500)
	record = append(record, 1, 2, 3)
	if _, err := f.Write(record); err != nil {
		t.Fatalf("append short record: %v", err)
	}
	f.Close()

	if reopened, err := OpenArchive(path); err == nil {
		reopened.Close()
		t.Fatalf("expected record with a short payload to be rejected")
	}
}

func TestArchiveSyncFlushesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshes.vxa")
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer archive.Close()
	coord := world.ChunkCoord{X: 3, Z: 4}
	if err := archive.Upload(coord, mgl32.Vec3{48, 0, 64}, sampleMesh(t, 1)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := archive.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() <= archiveHeaderSize {
		t.Fatalf("expected synced archive to hold a full record, size %d", info.Size())
	}
}

func TestRecorderTracksVisibility(t *testing.T) {
	r := NewRecorder()
	a := world.ChunkCoord{X: 1, Z: 1}
	b := world.ChunkCoord{X: 1, Z: 2}
	if err := r.Upload(a, mgl32.Vec3{16, 0, 16}, sampleMesh(t, 4)); err != nil {
		t.Fatalf("upload a: %v", err)
	}
	if err := r.Upload(b, mgl32.Vec3{16, 0, 32}, sampleMesh(t, 2)); err != nil {
		t.Fatalf("upload b: %v", err)
	}
	_ = r.SetVisible(a, true)
	_ = r.SetVisible(b, true)
	_ = r.SetVisible(b, false)

	if r.Uploads() != 2 {
		t.Fatalf("expected 2 uploads, got %d", r.Uploads())
	}
	if got := r.VisibleFaces(); got != 4 {
		t.Fatalf("expected 4 visible faces, got %d", got)
	}
	if got := r.VisibleChunks(); !reflect.DeepEqual(got, []world.ChunkCoord{a}) {
		t.Fatalf("unexpected visible chunks %v", got)
	}
	if _, origin, ok := r.Mesh(b); !ok || origin != (mgl32.Vec3{16, 0, 32}) {
		t.Fatalf("hidden chunk mesh should be retained, ok=%t origin=%v", ok, origin)
	}
}

func TestRecorderRejectsInvalidMesh(t *testing.T) {
	r := NewRecorder()
	bad := &mesh.Mesh{Vertices: []mgl32.Vec3{{0, 0, 0}}}
	if err := r.Upload(world.ChunkCoord{}, mgl32.Vec3{}, bad); err == nil {
		t.Fatalf("expected mismatched uv count to be rejected")
	}
}

type failingSink struct{ err error }

func (f failingSink) Upload(world.ChunkCoord, mgl32.Vec3, *mesh.Mesh) error { return f.err }
func (f failingSink) SetVisible(world.ChunkCoord, bool) error { return f.err }

func TestFanoutReachesEverySink(t *testing.T) {
	boom := errors.New("boom")
	rec := NewRecorder()
	fan := Fanout{failingSink{err: boom}, rec}

	err := fan.Upload(world.ChunkCoord{X: 2, Z: 2}, mgl32.Vec3{}, sampleMesh(t, 1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error to surface, got %v", err)
	}
	if rec.Uploads() != 1 {
		t.Fatalf("later sinks should still receive the upload")
	}
	if err := (Fanout{rec}).SetVisible(world.ChunkCoord{X: 2, Z: 2}, true); err != nil {
		t.Fatalf("set visible: %v", err)
	}
	if !rec.Visible(world.ChunkCoord{X: 2, Z: 2}) {
		t.Fatalf("recorder should see visibility change")
	}
}

func TestWorldPublishesIntoRecorder(t *testing.T) {
	rec := NewRecorder()
	w := newRenderWorld(t, rec)
	w.CheckViewDistance(world.ChunkCoord{X: 2, Z: 2})
	for {
		_, ok, err := w.Tick()
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if !ok {
			break
		}
	}
	if got, want := len(rec.VisibleChunks()), len(w.ActiveChunks()); got != want {
		t.Fatalf("expected %d visible chunks, got %d", want, got)
	}
	for _, coord := range w.ActiveChunks() {
		m, origin, ok := rec.Mesh(coord)
		if !ok {
			t.Fatalf("no mesh recorded for %v", coord)
		}
		c, _ := w.Chunk(coord)
		if origin != c.Origin() {
			t.Fatalf("origin %v, want %v", origin, c.Origin())
		}
		if m.FaceCount() == 0 {
			t.Fatalf("chunk %v produced an empty mesh", coord)
		}
	}
}
