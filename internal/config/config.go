// Package config provides configuration loading and structs for the Kimawashi server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig holds the feature snapshot location and format.
type StoreConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	// Format is "binary", "sqlite" or empty for extension-based detection.
	Format string `yaml:"format"`
}

// EmbeddingConfig holds query embedder settings.
type EmbeddingConfig struct {
	// Type is "onnx" (default) or "mock" (deterministic, for development and tests).
	Type       string `yaml:"type"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	ImageSize  int    `yaml:"image_size"`
	CacheSize  int    `yaml:"cache_size"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	DefaultTopK       int      `yaml:"default_top_k"`
	MaxTopK           int      `yaml:"max_top_k"`
	DefaultCategories []string `yaml:"default_categories"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Store.SnapshotPath = expandPath(cfg.Store.SnapshotPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
