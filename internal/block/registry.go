// Package block holds the immutable table of block types used by terrain
// generation and meshing.
package block

import (
	"fmt"

	"voxelworld/internal/config"
)

// ID identifies a block type. Air is always 0.
type ID uint8

const Air ID = 0

// Face enumerates the six faces of a voxel in meshing order.
type Face int

const (
	Back Face = iota
	Front
	Top
	Bottom
	Left
	Right
)

// Faces lists every face in meshing order.
var Faces = [6]Face{Back, Front, Top, Bottom, Left, Right}

func (f Face) String() string {
	switch f {
	case Back:
		return "back"
	case Front:
		return "front"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("face(%d)", int(f))
	}
}

// Type is one registered block.
type Type struct {
	ID       ID
	Name     string
	Solid    bool
	Color    string
	Textures [6]int
}

// Registry maps identifiers to block types. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	types  []Type
	byName map[string]ID
}

func NewRegistry(defs []config.BlockDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("block registry needs at least one definition")
	}
	if len(defs) > 256 {
		return nil, fmt.Errorf("block registry supports at most 256 types, got %d", len(defs))
	}
	r := &Registry{
		types:  make([]Type, len(defs)),
		byName: make(map[string]ID, len(defs)),
	}
	for i, def := range defs {
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("block %q registered twice", def.Name)
		}
		t := def.Textures
		r.types[i] = Type{
			ID:       ID(i),
			Name:     def.Name,
			Solid:    def.Solid && i != int(Air),
			Color:    def.Color,
			Textures: [6]int{t.Back, t.Front, t.Top, t.Bottom, t.Left, t.Right},
		}
		r.byName[def.Name] = ID(i)
	}
	return r, nil
}

// Type returns the block type for id. Unknown identifiers are programming
// errors and panic.
func (r *Registry) Type(id ID) Type {
	if !r.Has(id) {
		panic(fmt.Sprintf("block: unregistered id %d (registry has %d types)", id, len(r.types)))
	}
	return r.types[id]
}

func (r *Registry) IsSolid(id ID) bool {
	return r.Type(id).Solid
}

// TextureIndex returns the atlas cell drawn on the given face of id.
func (r *Registry) TextureIndex(id ID, face Face) int {
	if face < Back || face > Right {
		panic(fmt.Sprintf("block: invalid face %d", int(face)))
	}
	return r.Type(id).Textures[face]
}

// Lookup resolves a block name.
func (r *Registry) Lookup(name string) (ID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	return int(id) < len(r.types)
}

func (r *Registry) Len() int {
	return len(r.types)
}
