package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Atlas maps texture indices onto a square grid of Size x Size cells.
type Atlas struct {
	Size int
}

func NewAtlas(size int) (Atlas, error) {
	if size <= 0 {
		return Atlas{}, fmt.Errorf("atlas size must be positive, got %d", size)
	}
	return Atlas{Size: size}, nil
}

// CellSize is the normalised width of one cell.
func (a Atlas) CellSize() float32 {
	return 1 / float32(a.Size)
}

// Origin returns the bottom-left UV of the cell holding textureID. Atlas row 0
// is the top of the image, so the row is flipped into UV space.
func (a Atlas) Origin(textureID int) mgl32.Vec2 {
	row := textureID / a.Size
	col := textureID - row*a.Size

	cell := a.CellSize()
	x := float32(col) * cell
	y := 1 - float32(row)*cell - cell
	return mgl32.Vec2{x, y}
}

// Corners returns the four UVs of a face in vertex order:
// bottom-left, top-left, bottom-right, top-right.
func (a Atlas) Corners(textureID int) [4]mgl32.Vec2 {
	o := a.Origin(textureID)
	cell := a.CellSize()
	return [4]mgl32.Vec2{
		{o.X(), o.Y()},
		{o.X(), o.Y() + cell},
		{o.X() + cell, o.Y()},
		{o.X() + cell, o.Y() + cell},
	}
}
