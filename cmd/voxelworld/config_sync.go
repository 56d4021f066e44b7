package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"voxelworld/internal/config"
)

const (
	envConfigJSON    = "VOXEL_CONFIG_JSON"
	envConfigYAMLB64 = "VOXEL_CONFIG_YAML_B64"
)

// writeConfigFromEnv persists a configuration passed through the environment
// to cfgPath so config.Load picks it up. Payloads are layered over the
// defaults and validated before anything is written.
func writeConfigFromEnv(cfgPath string) (bool, error) {
	jsonPayload := os.Getenv(envConfigJSON)
	yamlPayload := os.Getenv(envConfigYAMLB64)

	if jsonPayload == "" && yamlPayload == "" {
		return false, nil
	}
	if cfgPath == "" {
		return false, errors.New("configuration provided in the environment but no -config path supplied")
	}

	cfg := config.Default()
	if jsonPayload != "" {
		if err := json.Unmarshal([]byte(jsonPayload), cfg); err != nil {
			return false, fmt.Errorf("decode %s: %w", envConfigJSON, err)
		}
	} else {
		data, err := base64.StdEncoding.DecodeString(yamlPayload)
		if err != nil {
			return false, fmt.Errorf("decode %s: %w", envConfigYAMLB64, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("parse %s: %w", envConfigYAMLB64, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("validate environment config: %w", err)
	}

	if dir := filepath.Dir(cfgPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create config directory: %w", err)
		}
	}
	// Match the format config.Load picks from the extension.
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(cfgPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
