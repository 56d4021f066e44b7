package render

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/mesh"
	"voxelworld/internal/world"
)

// Fanout forwards every call to each sink in order and joins their errors.
type Fanout []world.Renderer

func (f Fanout) Upload(coord world.ChunkCoord, origin mgl32.Vec3, m *mesh.Mesh) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Upload(coord, origin, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) SetVisible(coord world.ChunkCoord, visible bool) error {
	var errs []error
	for _, sink := range f {
		if err := sink.SetVisible(coord, visible); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
