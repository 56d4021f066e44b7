package world

import "fmt"

// ChunkCoord identifies a chunk column in the chunk grid. Chunks span the
// full world height, so only the horizontal axes are keyed.
type ChunkCoord struct {
	X int
	Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Dimensions is the size of a chunk in blocks. Chunks are Width x Height x
// Width.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) volume() int {
	return d.Width * d.Height * d.Width
}

// contains reports whether a local voxel coordinate lies inside the chunk.
func (d Dimensions) contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < d.Width && y < d.Height && z < d.Width
}

// index flattens a local voxel coordinate as x + width*(y + height*z).
func (d Dimensions) index(x, y, z int) int {
	return x + d.Width*(y+d.Height*z)
}

// viewSpan returns the chunk range around centre on one axis. The upper
// bound is exclusive unless symmetric is set.
func viewSpan(centre, distance int, symmetric bool) (lo, hi int) {
	lo = centre - distance
	hi = centre + distance
	if symmetric {
		hi++
	}
	return lo, hi
}

func floorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
