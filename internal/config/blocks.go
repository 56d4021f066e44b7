package config

import "fmt"

// BlockDefinition declares one block type. Its position in the block list is
// its numeric identifier, so entry 0 is always air.
type BlockDefinition struct {
	Name     string       `json:"name" yaml:"name"`
	Solid    bool         `json:"solid" yaml:"solid"`
	Color    string       `json:"color" yaml:"color"`
	Textures FaceTextures `json:"textures" yaml:"textures"`
}

// FaceTextures holds the texture atlas cell used for each face of a block.
type FaceTextures struct {
	Back   int `json:"back" yaml:"back"`
	Front  int `json:"front" yaml:"front"`
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
}

// UniformTexture uses the same atlas cell on every face.
func UniformTexture(index int) FaceTextures {
	return FaceTextures{Back: index, Front: index, Top: index, Bottom: index, Left: index, Right: index}
}

// DefaultBlocks returns the block table used for world generation when the
// configuration does not provide one.
func DefaultBlocks() []BlockDefinition {
	return []BlockDefinition{
		{Name: "air", Solid: false, Color: "#000000"},
		{Name: "bedrock", Solid: true, Color: "#3A3A3A", Textures: UniformTexture(9)},
		{Name: "stone", Solid: true, Color: "#8A8A8A", Textures: UniformTexture(0)},
		{
			Name:  "grass",
			Solid: true,
			Color: "#5B8C32",
			Textures: FaceTextures{
				Back:   2,
				Front:  2,
				Top:    7,
				Bottom: 1,
				Left:   2,
				Right:  2,
			},
		},
		{Name: "dirt", Solid: true, Color: "#8B5A2B", Textures: UniformTexture(1)},
		{Name: "sand", Solid: true, Color: "#C2B280", Textures: UniformTexture(10)},
		{Name: "coal_ore", Solid: true, Color: "#2B2B2B", Textures: UniformTexture(11)},
		{Name: "iron_ore", Solid: true, Color: "#B7410E", Textures: UniformTexture(12)},
	}
}

func validateBlocks(blocks []BlockDefinition, atlasSize int) error {
	if len(blocks) == 0 {
		return fmt.Errorf("blocks cannot be empty")
	}
	if len(blocks) > 256 {
		return fmt.Errorf("blocks cannot define more than 256 entries")
	}
	if blocks[0].Solid {
		return fmt.Errorf("blocks[0] is reserved for air and cannot be solid")
	}
	cells := atlasSize * atlasSize
	seen := make(map[string]int, len(blocks))
	for i, block := range blocks {
		if block.Name == "" {
			return fmt.Errorf("blocks[%d].name must be set", i)
		}
		if prev, ok := seen[block.Name]; ok {
			return fmt.Errorf("blocks[%d].name %q duplicates blocks[%d]", i, block.Name, prev)
		}
		seen[block.Name] = i
		if !isValidHexColor(block.Color) {
			return fmt.Errorf("blocks[%d].color must be a hex RGB value", i)
		}
		t := block.Textures
		for _, index := range []int{t.Back, t.Front, t.Top, t.Bottom, t.Left, t.Right} {
			if index < 0 || index >= cells {
				return fmt.Errorf("blocks[%d].textures index %d outside atlas of %d cells", i, index, cells)
			}
		}
	}
	return nil
}

func isValidHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, ch := range s[1:] {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
