package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a JSON and YAML friendly wrapper around time.Duration that
// accepts human readable strings such as "33ms" in configuration files while
// still allowing numeric nanosecond values.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null values decode
// to zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(time.Duration(f))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration as its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar, got kind %d", node.Kind)
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	if node.Tag == "!!null" {
		*d = 0
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures every tunable of the engine. All values are fixed once the
// world is created; nothing is hot-reloaded.
type Config struct {
	Engine EngineConfig      `json:"engine" yaml:"engine"`
	World  WorldConfig       `json:"world" yaml:"world"`
	Atlas  AtlasConfig       `json:"atlas" yaml:"atlas"`
	Biome  BiomeConfig       `json:"biome" yaml:"biome"`
	Blocks []BlockDefinition `json:"blocks" yaml:"blocks"`
	Viewer ViewerConfig      `json:"viewer" yaml:"viewer"`
	Output OutputConfig      `json:"output" yaml:"output"`
}

type EngineConfig struct {
	TickRate     Duration `json:"tickRate" yaml:"tickRate"`         // e.g. "16ms"
	MaxTicks     int      `json:"maxTicks" yaml:"maxTicks"`         // 0 runs until signalled
	BuildWorkers int      `json:"buildWorkers" yaml:"buildWorkers"` // chunk builds per tick
	Seed         int64    `json:"seed" yaml:"seed"`
}

type WorldConfig struct {
	ChunkWidth       int  `json:"chunkWidth" yaml:"chunkWidth"`
	ChunkHeight      int  `json:"chunkHeight" yaml:"chunkHeight"`
	SizeInChunks     int  `json:"sizeInChunks" yaml:"sizeInChunks"`
	ViewDistance     int  `json:"viewDistance" yaml:"viewDistance"`
	SymmetricView    bool `json:"symmetricView" yaml:"symmetricView"`       // [c-d, c+d] instead of [c-d, c+d)
	CancelOutOfRange bool `json:"cancelOutOfRange" yaml:"cancelOutOfRange"` // drop queued builds that left view
}

type AtlasConfig struct {
	SizeInBlocks int `json:"sizeInBlocks" yaml:"sizeInBlocks"`
}

// BiomeConfig drives the terrain generator. Block fields name entries of the
// block list.
type BiomeConfig struct {
	Name              string       `json:"name" yaml:"name"`
	SolidGroundHeight int          `json:"solidGroundHeight" yaml:"solidGroundHeight"`
	TerrainHeight     float64      `json:"terrainHeight" yaml:"terrainHeight"`
	TerrainScale      float64      `json:"terrainScale" yaml:"terrainScale"`
	Octaves           int          `json:"octaves" yaml:"octaves"`
	Persistence       float64      `json:"persistence" yaml:"persistence"`
	Lacunarity        float64      `json:"lacunarity" yaml:"lacunarity"`
	BedrockBlock      string       `json:"bedrockBlock" yaml:"bedrockBlock"`
	SurfaceBlock      string       `json:"surfaceBlock" yaml:"surfaceBlock"`
	SubSurfaceBlock   string       `json:"subSurfaceBlock" yaml:"subSurfaceBlock"`
	BaseBlock         string       `json:"baseBlock" yaml:"baseBlock"`
	Lodes             []LodeConfig `json:"lodes" yaml:"lodes"`
}

// LodeConfig describes a noise gated ore band. Lodes apply in list order.
type LodeConfig struct {
	Name        string  `json:"name" yaml:"name"`
	Block       string  `json:"block" yaml:"block"`
	MinHeight   int     `json:"minHeight" yaml:"minHeight"`
	MaxHeight   int     `json:"maxHeight" yaml:"maxHeight"`
	Scale       float64 `json:"scale" yaml:"scale"`
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	NoiseOffset float64 `json:"noiseOffset" yaml:"noiseOffset"`
}

type ViewerConfig struct {
	Speed   float64 `json:"speed" yaml:"speed"`     // blocks per second
	Heading float64 `json:"heading" yaml:"heading"` // degrees, 0 = +X
}

type OutputConfig struct {
	ArchivePath string `json:"archivePath" yaml:"archivePath"`
	PreviewPath string `json:"previewPath" yaml:"previewPath"`
}

// Load reads configuration from a JSON or YAML file if provided. An empty path
// returns defaults. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate:     Duration(16 * time.Millisecond),
			MaxTicks:     0,
			BuildWorkers: 1,
			Seed:         1337,
		},
		World: WorldConfig{
			ChunkWidth:       16,
			ChunkHeight:      128,
			SizeInChunks:     50,
			ViewDistance:     5,
			SymmetricView:    false,
			CancelOutOfRange: true,
		},
		Atlas: AtlasConfig{
			SizeInBlocks: 16,
		},
		Biome:  DefaultBiome(),
		Blocks: DefaultBlocks(),
		Viewer: ViewerConfig{
			Speed:   8,
			Heading: 0,
		},
	}
}

// DefaultBiome returns the rolling grassland biome used when no biome is
// configured.
func DefaultBiome() BiomeConfig {
	return BiomeConfig{
		Name:              "grasslands",
		SolidGroundHeight: 42,
		TerrainHeight:     42,
		TerrainScale:      0.25,
		Octaves:           1,
		Persistence:       0.5,
		Lacunarity:        2,
		BedrockBlock:      "bedrock",
		SurfaceBlock:      "grass",
		SubSurfaceBlock:   "dirt",
		BaseBlock:         "stone",
		Lodes: []LodeConfig{
			{Name: "dirt pockets", Block: "dirt", MinHeight: 1, MaxHeight: 255, Scale: 0.1, Threshold: 0.5, NoiseOffset: 0},
			{Name: "sand pockets", Block: "sand", MinHeight: 30, MaxHeight: 60, Scale: 0.2, Threshold: 0.6, NoiseOffset: 500},
			{Name: "coal", Block: "coal_ore", MinHeight: 5, MaxHeight: 60, Scale: 0.3, Threshold: 0.72, NoiseOffset: 1000},
			{Name: "iron", Block: "iron_ore", MinHeight: 5, MaxHeight: 40, Scale: 0.35, Threshold: 0.78, NoiseOffset: 2000},
		},
	}
}

func (c *Config) Validate() error {
	if c.Engine.TickRate < 0 {
		return errors.New("engine.tickRate cannot be negative")
	}
	if c.Engine.MaxTicks < 0 {
		return errors.New("engine.maxTicks cannot be negative")
	}
	if c.Engine.BuildWorkers < 0 {
		return errors.New("engine.buildWorkers cannot be negative")
	}
	if c.World.ChunkWidth <= 0 || c.World.ChunkHeight <= 0 {
		return errors.New("world chunk dimensions must be positive")
	}
	if c.World.SizeInChunks < 3 {
		return errors.New("world.sizeInChunks must be at least 3")
	}
	if c.World.ViewDistance <= 0 {
		return errors.New("world.viewDistance must be positive")
	}
	if c.World.ViewDistance > c.World.SizeInChunks {
		return fmt.Errorf("world.viewDistance %d exceeds sizeInChunks %d", c.World.ViewDistance, c.World.SizeInChunks)
	}
	if c.Atlas.SizeInBlocks <= 0 {
		return errors.New("atlas.sizeInBlocks must be positive")
	}
	if err := validateBlocks(c.Blocks, c.Atlas.SizeInBlocks); err != nil {
		return err
	}
	if err := c.Biome.validate(c.Blocks, c.World.ChunkHeight); err != nil {
		return err
	}
	if c.Viewer.Speed < 0 {
		return errors.New("viewer.speed cannot be negative")
	}
	return nil
}

func (b BiomeConfig) validate(blocks []BlockDefinition, chunkHeight int) error {
	if b.TerrainScale <= 0 {
		return errors.New("biome.terrainScale must be positive")
	}
	if b.SolidGroundHeight < 0 || b.SolidGroundHeight >= chunkHeight {
		return fmt.Errorf("biome.solidGroundHeight must be within [0,%d)", chunkHeight)
	}
	if b.Octaves < 0 {
		return errors.New("biome.octaves cannot be negative")
	}
	named := map[string]string{
		"biome.bedrockBlock":    b.BedrockBlock,
		"biome.surfaceBlock":    b.SurfaceBlock,
		"biome.subSurfaceBlock": b.SubSurfaceBlock,
		"biome.baseBlock":       b.BaseBlock,
	}
	for field, name := range named {
		if !hasBlock(blocks, name) {
			return fmt.Errorf("%s %q is not a defined block", field, name)
		}
	}
	for i, lode := range b.Lodes {
		if !hasBlock(blocks, lode.Block) {
			return fmt.Errorf("biome.lodes[%d].block %q is not a defined block", i, lode.Block)
		}
		if lode.Scale <= 0 {
			return fmt.Errorf("biome.lodes[%d].scale must be positive", i)
		}
		if lode.Threshold < 0 || lode.Threshold > 1 {
			return fmt.Errorf("biome.lodes[%d].threshold must be within [0,1]", i)
		}
		if lode.MinHeight > lode.MaxHeight {
			return fmt.Errorf("biome.lodes[%d].minHeight cannot exceed maxHeight", i)
		}
	}
	return nil
}

func hasBlock(blocks []BlockDefinition, name string) bool {
	for _, block := range blocks {
		if block.Name == name {
			return true
		}
	}
	return false
}
