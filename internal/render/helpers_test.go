package render

import (
	"io"
	"log"
	"testing"

	"voxelworld/internal/block"
	"voxelworld/internal/config"
	"voxelworld/internal/mesh"
	"voxelworld/internal/noise"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

func newRenderWorld(t *testing.T, renderer world.Renderer) *world.World {
	t.Helper()
	cfg := config.Default()
	cfg.World.SizeInChunks = 4
	cfg.World.ViewDistance = 1
	reg, err := block.NewRegistry(cfg.Blocks)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	gen, err := terrain.New(cfg.Biome, cfg.World, reg, noise.New(cfg.Engine.Seed))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	w, err := world.New(world.Options{
		World:    cfg.World,
		Atlas:    mesh.Atlas{Size: cfg.Atlas.SizeInBlocks},
		Registry: reg,
		Source:   gen,
		Renderer: renderer,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}
