package main

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"voxelworld/internal/config"
)

func TestWriteConfigFromEnvJSON(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{"engine":{"seed":99},"world":{"viewDistance":3}}`)

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	wrote, err := writeConfigFromEnv(path)
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if !wrote {
		t.Fatalf("expected config to be written")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Engine.Seed != 99 || cfg.World.ViewDistance != 3 {
		t.Fatalf("payload not applied: seed=%d viewDistance=%d", cfg.Engine.Seed, cfg.World.ViewDistance)
	}
	if cfg.World.ChunkWidth != 16 {
		t.Fatalf("defaults should fill omitted fields, chunkWidth=%d", cfg.World.ChunkWidth)
	}
}

func TestWriteConfigFromEnvYAML(t *testing.T) {
	cfg := config.Default()
	cfg.Biome.Name = "yaml-biome"
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	t.Setenv(envConfigJSON, "")
	t.Setenv(envConfigYAMLB64, base64.StdEncoding.EncodeToString(data))

	path := filepath.Join(t.TempDir(), "config.yaml")
	wrote, err := writeConfigFromEnv(path)
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if !wrote {
		t.Fatalf("expected config to be written")
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if loaded.Biome.Name != "yaml-biome" {
		t.Fatalf("unexpected biome name %q", loaded.Biome.Name)
	}
	if loaded.Engine.TickRate != cfg.Engine.TickRate {
		t.Fatalf("tick rate %v did not survive, got %v", cfg.Engine.TickRate.Duration(), loaded.Engine.TickRate.Duration())
	}
}

func TestWriteConfigFromEnvUppercaseYAMLExtension(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{"engine":{"seed":5}}`)

	path := filepath.Join(t.TempDir(), "world.YAML")
	if _, err := writeConfigFromEnv(path); err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "engine:") {
		t.Fatalf("expected yaml output, got %q", string(data[:min(len(data), 40)]))
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Engine.Seed != 5 {
		t.Fatalf("unexpected seed %d", cfg.Engine.Seed)
	}
}

func TestWriteConfigFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{"world":{"sizeInChunks":1}}`)

	path := filepath.Join(t.TempDir(), "config.json")
	_, err := writeConfigFromEnv(path)
	if err == nil || !strings.Contains(err.Error(), "world.sizeInChunks must be at least 3") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("invalid config should not be written")
	}
}

func TestWriteConfigFromEnvNeedsPath(t *testing.T) {
	cfg, _ := json.Marshal(config.Default())
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, string(cfg))
	if _, err := writeConfigFromEnv(""); err == nil {
		t.Fatalf("expected error without a config path")
	}
}

func TestWriteConfigFromEnvNoPayload(t *testing.T) {
	t.Setenv(envConfigJSON, "")
	t.Setenv(envConfigYAMLB64, "")

	wrote, err := writeConfigFromEnv(filepath.Join(t.TempDir(), "unused.json"))
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if wrote {
		t.Fatalf("expected no config to be written")
	}
}
