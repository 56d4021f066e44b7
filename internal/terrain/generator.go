// Package terrain assigns a block to every voxel of the world from layered
// noise.
package terrain

import (
	"fmt"
	"math"

	"voxelworld/internal/block"
	"voxelworld/internal/config"
	"voxelworld/internal/noise"
)

// Sub-surface band depth below the surface block.
const subSurfaceDepth = 4

// Sample offset that keeps integer coordinates off the noise lattice.
const latticeNudge = 0.1

type lode struct {
	name      string
	block     block.ID
	minHeight int
	maxHeight int
	scale     float64
	threshold float64
	offset    float64
}

// Generator is a pure function from world voxel coordinates to block ids.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	biome  config.BiomeConfig
	source *noise.Source

	chunkWidth  int
	chunkHeight int
	worldWidth  int

	bedrock    block.ID
	surface    block.ID
	subSurface block.ID
	base       block.ID
	lodes      []lode
}

// New resolves the biome's block names against registry once so that
// BlockAt only ever emits registered identifiers.
func New(biome config.BiomeConfig, world config.WorldConfig, registry *block.Registry, source *noise.Source) (*Generator, error) {
	if registry == nil {
		return nil, fmt.Errorf("terrain: registry is nil")
	}
	if source == nil {
		return nil, fmt.Errorf("terrain: noise source is nil")
	}
	if biome.TerrainScale <= 0 {
		return nil, fmt.Errorf("terrain: biome %q scale must be positive", biome.Name)
	}
	if world.ChunkWidth <= 0 || world.ChunkHeight <= 0 || world.SizeInChunks <= 0 {
		return nil, fmt.Errorf("terrain: world dimensions must be positive")
	}

	g := &Generator{
		biome:       biome,
		source:      source,
		chunkWidth:  world.ChunkWidth,
		chunkHeight: world.ChunkHeight,
		worldWidth:  world.ChunkWidth * world.SizeInChunks,
	}

	resolve := func(field, name string) (block.ID, error) {
		id, ok := registry.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("terrain: biome %q %s %q is not registered", biome.Name, field, name)
		}
		return id, nil
	}

	var err error
	if g.bedrock, err = resolve("bedrock block", biome.BedrockBlock); err != nil {
		return nil, err
	}
	if g.surface, err = resolve("surface block", biome.SurfaceBlock); err != nil {
		return nil, err
	}
	if g.subSurface, err = resolve("sub-surface block", biome.SubSurfaceBlock); err != nil {
		return nil, err
	}
	if g.base, err = resolve("base block", biome.BaseBlock); err != nil {
		return nil, err
	}

	g.lodes = make([]lode, 0, len(biome.Lodes))
	for i, cfg := range biome.Lodes {
		id, err := resolve(fmt.Sprintf("lode[%d] block", i), cfg.Block)
		if err != nil {
			return nil, err
		}
		g.lodes = append(g.lodes, lode{
			name:      cfg.Name,
			block:     id,
			minHeight: cfg.MinHeight,
			maxHeight: cfg.MaxHeight,
			scale:     cfg.Scale,
			threshold: cfg.Threshold,
			offset:    cfg.NoiseOffset,
		})
	}
	return g, nil
}

// InWorld reports whether the voxel lies inside the finite world volume.
func (g *Generator) InWorld(x, y, z int) bool {
	return x >= 0 && x < g.worldWidth &&
		y >= 0 && y < g.chunkHeight &&
		z >= 0 && z < g.worldWidth
}

// HeightAt returns the y of the surface block for column (x, z).
func (g *Generator) HeightAt(x, z int) int {
	sample := g.source.Fractal2D(
		(float64(x)+latticeNudge)/float64(g.chunkWidth),
		(float64(z)+latticeNudge)/float64(g.chunkWidth),
		0,
		g.biome.TerrainScale,
		g.biome.Octaves,
		g.biome.Persistence,
		g.biome.Lacunarity,
	)
	return int(math.Floor(g.biome.TerrainHeight*sample)) + g.biome.SolidGroundHeight
}

// BlockAt returns the block at the absolute voxel coordinate.
func (g *Generator) BlockAt(x, y, z int) block.ID {
	if !g.InWorld(x, y, z) {
		return block.Air
	}
	if y == 0 {
		return g.bedrock
	}

	terrainHeight := g.HeightAt(x, z)
	switch {
	case y == terrainHeight:
		return g.surface
	case y > terrainHeight:
		return block.Air
	case y > terrainHeight-subSurfaceDepth:
		return g.subSurface
	}

	id := g.base
	for _, l := range g.lodes {
		if y <= l.minHeight || y >= l.maxHeight {
			continue
		}
		if g.source.Above3D(float64(x)+latticeNudge, float64(y)+latticeNudge, float64(z)+latticeNudge, l.offset, l.scale, l.threshold) {
			id = l.block
		}
	}
	return id
}

// Lodes returns the configured lode names in priority order.
func (g *Generator) Lodes() []string {
	names := make([]string, len(g.lodes))
	for i, l := range g.lodes {
		names[i] = l.name
	}
	return names
}
