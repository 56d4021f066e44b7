package world

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/block"
	"voxelworld/internal/mesh"
)

var (
	ErrNotPopulated     = errors.New("chunk voxels not populated")
	ErrNotBuilt         = errors.New("chunk mesh not built")
	ErrAlreadyPopulated = errors.New("chunk already populated")
)

// State is the build lifecycle of a chunk. It only moves forward.
type State int32

const (
	StateCreated State = iota
	statePopulating
	StatePopulated
	StateMeshBuilt
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case statePopulating:
		return "populating"
	case StatePopulated:
		return "populated"
	case StateMeshBuilt:
		return "mesh-built"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// VoxelSource yields the block at an absolute voxel coordinate.
type VoxelSource interface {
	BlockAt(x, y, z int) block.ID
}

// SolidityQuery answers whether an absolute voxel coordinate is solid. The
// World implements it for lookups that cross chunk borders.
type SolidityQuery interface {
	SolidAt(x, y, z int) bool
}

// Chunk owns the voxels of one chunk column and the mesh derived from them.
// Voxels are written once by Populate and read only after the state has
// been published, so neighbours may read them without locking.
type Chunk struct {
	coord  ChunkCoord
	dim    Dimensions
	voxels []block.ID

	state  atomic.Int32
	active atomic.Bool
	mesh   atomic.Pointer[mesh.Mesh]
}

func NewChunk(coord ChunkCoord, dim Dimensions) *Chunk {
	return &Chunk{
		coord:  coord,
		dim:    dim,
		voxels: make([]block.ID, dim.volume()),
	}
}

func (c *Chunk) Coord() ChunkCoord {
	return c.coord
}

func (c *Chunk) Dimensions() Dimensions {
	return c.dim
}

// Origin is the world-space position of the chunk's minimum corner.
func (c *Chunk) Origin() mgl32.Vec3 {
	x, z := c.originBlock()
	return mgl32.Vec3{float32(x), 0, float32(z)}
}

func (c *Chunk) originBlock() (int, int) {
	return c.coord.X * c.dim.Width, c.coord.Z * c.dim.Width
}

func (c *Chunk) State() State {
	return State(c.state.Load())
}

func (c *Chunk) Populated() bool {
	return c.State() >= StatePopulated
}

func (c *Chunk) Built() bool {
	return c.State() == StateMeshBuilt
}

func (c *Chunk) Active() bool {
	return c.active.Load()
}

// setActive flips the flag and reports whether it changed.
func (c *Chunk) setActive(active bool) bool {
	return c.active.Swap(active) != active
}

// Populate fills every voxel from src using absolute coordinates.
func (c *Chunk) Populate(src VoxelSource) error {
	if !c.state.CompareAndSwap(int32(StateCreated), int32(statePopulating)) {
		return fmt.Errorf("chunk %v: %w", c.coord, ErrAlreadyPopulated)
	}
	ox, oz := c.originBlock()
	for z := 0; z < c.dim.Width; z++ {
		for y := 0; y < c.dim.Height; y++ {
			for x := 0; x < c.dim.Width; x++ {
				c.voxels[c.dim.index(x, y, z)] = src.BlockAt(ox+x, y, oz+z)
			}
		}
	}
	c.state.Store(int32(StatePopulated))
	return nil
}

// Block returns the voxel at a local coordinate.
func (c *Chunk) Block(x, y, z int) (block.ID, error) {
	if !c.Populated() {
		return block.Air, fmt.Errorf("chunk %v: %w", c.coord, ErrNotPopulated)
	}
	if !c.dim.contains(x, y, z) {
		return block.Air, fmt.Errorf("chunk %v: local voxel (%d,%d,%d) out of range", c.coord, x, y, z)
	}
	return c.voxels[c.dim.index(x, y, z)], nil
}

// blockAtAbsolute reads a populated voxel by absolute coordinate. The caller
// guarantees the coordinate falls inside this chunk.
func (c *Chunk) blockAtAbsolute(x, y, z int) block.ID {
	ox, oz := c.originBlock()
	return c.voxels[c.dim.index(x-ox, y, z-oz)]
}

// BuildMesh runs face culling over the populated voxels. Neighbours outside
// the chunk are resolved through world using absolute coordinates. Building
// again replaces the previous mesh.
func (c *Chunk) BuildMesh(world SolidityQuery, registry *block.Registry, atlas mesh.Atlas) (*mesh.Mesh, error) {
	if !c.Populated() {
		return nil, fmt.Errorf("build chunk %v: %w", c.coord, ErrNotPopulated)
	}

	ox, oz := c.originBlock()
	builder := mesh.NewBuilder(atlas)
	for z := 0; z < c.dim.Width; z++ {
		for y := 0; y < c.dim.Height; y++ {
			for x := 0; x < c.dim.Width; x++ {
				id := c.voxels[c.dim.index(x, y, z)]
				if !registry.IsSolid(id) {
					continue
				}
				position := mgl32.Vec3{float32(x), float32(y), float32(z)}
				for _, face := range block.Faces {
					off := mesh.FaceOffsets[face]
					nx, ny, nz := x+off[0], y+off[1], z+off[2]

					var hidden bool
					if c.dim.contains(nx, ny, nz) {
						hidden = registry.IsSolid(c.voxels[c.dim.index(nx, ny, nz)])
					} else {
						hidden = world.SolidAt(ox+nx, ny, oz+nz)
					}
					if hidden {
						continue
					}
					builder.AddFace(face, position, registry.TextureIndex(id, face))
				}
			}
		}
	}

	m := builder.Mesh()
	c.mesh.Store(m)
	c.state.Store(int32(StateMeshBuilt))
	return m, nil
}

// Mesh returns the last built mesh.
func (c *Chunk) Mesh() (*mesh.Mesh, error) {
	if !c.Built() {
		return nil, fmt.Errorf("chunk %v: %w", c.coord, ErrNotBuilt)
	}
	return c.mesh.Load(), nil
}
