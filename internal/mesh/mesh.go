// Package mesh accumulates face-culled voxel geometry into renderer ready
// buffers.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/block"
)

// Mesh is the finished geometry of one chunk in chunk-local space.
type Mesh struct {
	Vertices           []mgl32.Vec3
	Triangles          []uint32
	UVs                []mgl32.Vec2
	RecalculateNormals bool
}

// FaceCount is the number of quads in the mesh.
func (m *Mesh) FaceCount() int {
	return len(m.Vertices) / 4
}

// Empty reports whether the mesh has no geometry.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0
}

// Validate checks the guarantees given to renderers: equal vertex and UV
// counts, whole triangles, and indices inside the vertex buffer.
func (m *Mesh) Validate() error {
	if len(m.Vertices) != len(m.UVs) {
		return fmt.Errorf("mesh has %d vertices but %d uvs", len(m.Vertices), len(m.UVs))
	}
	if len(m.Triangles)%3 != 0 {
		return fmt.Errorf("mesh index count %d is not a multiple of 3", len(m.Triangles))
	}
	for i, idx := range m.Triangles {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("mesh index %d at %d out of range (%d vertices)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// Builder appends faces. The zero value is not usable; use NewBuilder.
type Builder struct {
	atlas Atlas
	mesh  Mesh
}

func NewBuilder(atlas Atlas) *Builder {
	return &Builder{atlas: atlas}
}

// AddFace emits the quad for face of the voxel whose minimum corner is at
// position, textured with atlas cell textureID.
func (b *Builder) AddFace(face block.Face, position mgl32.Vec3, textureID int) {
	base := uint32(len(b.mesh.Vertices))
	for _, corner := range faceVertices[face] {
		b.mesh.Vertices = append(b.mesh.Vertices, cubeVertices[corner].Add(position))
	}
	for _, offset := range quadIndices {
		b.mesh.Triangles = append(b.mesh.Triangles, base+offset)
	}
	uvs := b.atlas.Corners(textureID)
	b.mesh.UVs = append(b.mesh.UVs, uvs[:]...)
}

// Mesh hands over the accumulated buffers and resets the builder.
func (b *Builder) Mesh() *Mesh {
	m := b.mesh
	m.RecalculateNormals = true
	b.mesh = Mesh{}
	return &m
}
