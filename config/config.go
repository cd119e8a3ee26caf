package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the blueprint matcher.
type Config struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Match   MatchConfig   `yaml:"match"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// CorpusConfig locates the corpus artifact and the PNG cache.
type CorpusConfig struct {
	DBPath    string `yaml:"db_path"`   // bbolt corpus artifact
	CacheDir  string `yaml:"cache_dir"` // contains empty/ and filled/
	Dimension int    `yaml:"dimension"` // embedding dimension
}

// MatchConfig holds matching behavior.
type MatchConfig struct {
	Threshold float64 `yaml:"threshold"` // minimum accepted similarity
	Mode      string  `yaml:"mode"`      // "embedding" or "fallback"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Modes for MatchConfig.Mode.
const (
	ModeEmbedding = "embedding"
	ModeFallback  = "fallback"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DBPath:    filepath.Join("blueprint_db", "corpus.db"),
			CacheDir:  filepath.Join("blueprint_db", "png_cache"),
			Dimension: 1280,
		},
		Match: MatchConfig{
			Threshold: 0.70,
			Mode:      ModeEmbedding,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for florify.yaml,
// then .florify/config.yaml, then falls back to defaults).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "florify.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".florify", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EmptyCacheDir returns the directory of cached empty floorplans.
func (c *Config) EmptyCacheDir() string {
	return filepath.Join(c.Corpus.CacheDir, "empty")
}

// FilledCacheDir returns the directory of cached filled floorplans.
func (c *Config) FilledCacheDir() string {
	return filepath.Join(c.Corpus.CacheDir, "filled")
}
