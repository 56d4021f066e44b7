package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/block"
)

// Corners of the unit cube.
var cubeVertices = [8]mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// FaceOffsets points from a voxel to the neighbour that hides each face.
var FaceOffsets = [6][3]int{
	block.Back:   {0, 0, -1},
	block.Front:  {0, 0, 1},
	block.Top:    {0, 1, 0},
	block.Bottom: {0, -1, 0},
	block.Left:   {-1, 0, 0},
	block.Right:  {1, 0, 0},
}

// faceVertices selects four cube corners per face. The order pairs with the
// 0,1,2 / 2,1,3 index pattern to give outward facing triangles.
var faceVertices = [6][4]int{
	block.Back:   {0, 3, 1, 2},
	block.Front:  {5, 6, 4, 7},
	block.Top:    {3, 7, 2, 6},
	block.Bottom: {1, 5, 0, 4},
	block.Left:   {4, 7, 0, 3},
	block.Right:  {1, 2, 5, 6},
}

// quadIndices are the per-face triangle offsets.
var quadIndices = [6]uint32{0, 1, 2, 2, 1, 3}
