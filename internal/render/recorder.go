// Package render holds the mesh sinks the world publishes to.
package render

import (
	"errors"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/mesh"
	"voxelworld/internal/world"
)

// Recorder keeps the latest mesh and visibility of every chunk in memory.
type Recorder struct {
	mu      sync.RWMutex
	meshes  map[world.ChunkCoord]*mesh.Mesh
	origins map[world.ChunkCoord]mgl32.Vec3
	visible map[world.ChunkCoord]bool
	uploads int
}

func NewRecorder() *Recorder {
	return &Recorder{
		meshes:  make(map[world.ChunkCoord]*mesh.Mesh),
		origins: make(map[world.ChunkCoord]mgl32.Vec3),
		visible: make(map[world.ChunkCoord]bool),
	}
}

func (r *Recorder) Upload(coord world.ChunkCoord, origin mgl32.Vec3, m *mesh.Mesh) error {
	if m == nil {
		return errors.New("recorder: nil mesh")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meshes[coord] = m
	r.origins[coord] = origin
	r.uploads++
	return nil
}

func (r *Recorder) SetVisible(coord world.ChunkCoord, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible[coord] = visible
	return nil
}

func (r *Recorder) Mesh(coord world.ChunkCoord) (*mesh.Mesh, mgl32.Vec3, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meshes[coord]
	return m, r.origins[coord], ok
}

func (r *Recorder) Visible(coord world.ChunkCoord) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visible[coord]
}

// Uploads counts every Upload call, including replacements.
func (r *Recorder) Uploads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.uploads
}

// VisibleFaces sums the faces of all visible meshes.
func (r *Recorder) VisibleFaces() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for coord, m := range r.meshes {
		if r.visible[coord] {
			total += m.FaceCount()
		}
	}
	return total
}

// VisibleChunks lists visible chunks ordered by X then Z.
func (r *Recorder) VisibleChunks() []world.ChunkCoord {
	r.mu.RLock()
	out := make([]world.ChunkCoord, 0, len(r.visible))
	for coord, v := range r.visible {
		if v {
			out = append(out, coord)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].X == out[j].X {
			return out[i].Z < out[j].Z
		}
		return out[i].X < out[j].X
	})
	return out
}
