package world

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"voxelworld/internal/block"
)

const (
	previewAmbientLight = 0.35
	// Small worlds are upscaled so each block stays visible.
	previewMinSide = 512
)

var (
	previewBackground = color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	previewFallback   = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	previewActiveEdge = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
)

// SavePreview writes a top-down PNG of every populated chunk. Each column
// shows its highest solid block, darker the lower it sits. Active chunks get
// a light outline.
func SavePreview(w *World, path string) error {
	if w == nil {
		return fmt.Errorf("world is nil")
	}
	if path == "" {
		return fmt.Errorf("preview path is empty")
	}

	var img image.Image = RenderPreview(w)
	if side := img.Bounds().Dx(); side < previewMinSide {
		scale := (previewMinSide + side - 1) / side
		scaled := image.NewNRGBA(image.Rect(0, 0, side*scale, side*scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// RenderPreview draws the preview at one pixel per block. Image X follows
// world X and image Y follows world Z.
func RenderPreview(w *World) *image.NRGBA {
	side := w.WidthInBlocks()
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), &image.Uniform{previewBackground}, image.Point{}, draw.Src)

	palette := make(map[block.ID]color.NRGBA)
	for _, c := range w.Chunks() {
		if !c.Populated() {
			continue
		}
		ox, oz := c.originBlock()
		for z := 0; z < c.dim.Width; z++ {
			for x := 0; x < c.dim.Width; x++ {
				id, height, ok := topSolid(c, w.registry, x, z)
				if !ok {
					continue
				}
				base, seen := palette[id]
				if !seen {
					base = resolveBlockColor(w.registry.Type(id))
					palette[id] = base
				}
				factor := previewAmbientLight + (1-previewAmbientLight)*float64(height)/float64(max(1, c.dim.Height-1))
				img.SetNRGBA(ox+x, oz+z, applyLighting(base, factor))
			}
		}
		if c.Active() {
			outlineChunk(img, ox, oz, c.dim.Width)
		}
	}
	return img
}

func topSolid(c *Chunk, registry *block.Registry, x, z int) (block.ID, int, bool) {
	for y := c.dim.Height - 1; y >= 0; y-- {
		id := c.voxels[c.dim.index(x, y, z)]
		if registry.IsSolid(id) {
			return id, y, true
		}
	}
	return block.Air, 0, false
}

func outlineChunk(img *image.NRGBA, ox, oz, width int) {
	hi := width - 1
	for i := 0; i <= hi; i++ {
		for _, p := range [4][2]int{{i, 0}, {i, hi}, {0, i}, {hi, i}} {
			img.SetNRGBA(ox+p[0], oz+p[1], previewActiveEdge)
		}
	}
}

func resolveBlockColor(t block.Type) color.NRGBA {
	if col, ok := parseHexColor(t.Color); ok {
		return col
	}
	return previewFallback
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(trimmed[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		rgb[i] = uint8(v)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = math.Max(0, math.Min(1, factor))
	return color.NRGBA{
		R: uint8(math.Round(float64(base.R) * factor)),
		G: uint8(math.Round(float64(base.G) * factor)),
		B: uint8(math.Round(float64(base.B) * factor)),
		A: 255,
	}
}
