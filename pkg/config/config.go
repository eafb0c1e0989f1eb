// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig contains the configuration of the shipyard tools
type AppConfig struct {
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Render   RenderConfig   `json:"render" yaml:"render"`
	Upload   UploadConfig   `json:"upload" yaml:"upload"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
}

// AnalysisConfig controls the physics analysis
type AnalysisConfig struct {
	BoostEnabled bool `json:"boostEnabled" yaml:"boost_enabled"`
	// MaxParts rejects blueprints with more parts than this
	MaxParts int `json:"maxParts" yaml:"max_parts"`
	// MaxExtent rejects parts placed further than this from the origin
	MaxExtent int `json:"maxExtent" yaml:"max_extent"`
}

// RenderConfig selects what goes into the diagnostic image
type RenderConfig struct {
	Draw        bool   `json:"draw" yaml:"draw"`
	DrawCoM     bool   `json:"drawCoM" yaml:"draw_com"`
	DrawAllCoM  bool   `json:"drawAllCoM" yaml:"draw_all_com"`
	DrawCoT     bool   `json:"drawCoT" yaml:"draw_cot"`
	DrawAllCoT  bool   `json:"drawAllCoT" yaml:"draw_all_cot"`
	FlipVectors bool   `json:"flipVectors" yaml:"flip_vectors"`
	SpriteDir   string `json:"spriteDir" yaml:"sprite_dir"`
}

// UploadConfig configures the image host client
type UploadConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	APIKey   string        `json:"apiKey" yaml:"api_key"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	Retries  int           `json:"retries" yaml:"retries"`
	Breaker  BreakerConfig `json:"breaker" yaml:"breaker"`
}

// BreakerConfig mirrors gobreaker.Settings
type BreakerConfig struct {
	MaxRequests         uint32        `json:"maxRequests" yaml:"max_requests"`
	Interval            time.Duration `json:"interval" yaml:"interval"`
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`
	MaxConsecutiveFails uint32        `json:"maxConsecutiveFails" yaml:"max_consecutive_fails"`
}

// ServerConfig configures the HTTP analysis service
type ServerConfig struct {
	Addr             string        `json:"addr" yaml:"addr"`
	ReadTimeout      time.Duration `json:"readTimeout" yaml:"read_timeout"`
	WriteTimeout     time.Duration `json:"writeTimeout" yaml:"write_timeout"`
	ShutdownTimeout  time.Duration `json:"shutdownTimeout" yaml:"shutdown_timeout"`
	MaxBodyBytes     int64         `json:"maxBodyBytes" yaml:"max_body_bytes"`
	RequestsPerMin   int           `json:"requestsPerMin" yaml:"requests_per_min"`
	Burst            int           `json:"burst" yaml:"burst"`
	CacheSize        int           `json:"cacheSize" yaml:"cache_size"`
	BatchConcurrency int           `json:"batchConcurrency" yaml:"batch_concurrency"`
}

// CatalogConfig points at an optional part catalog replacing the embedded one
type CatalogConfig struct {
	Path string `json:"path" yaml:"path"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig reads a configuration file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON. Missing fields keep their defaults.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveConfig writes a configuration file in the format implied by its name
func SaveConfig(config *AppConfig, path string) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadOrDefault loads path when it exists and uses DefaultConfig when it
// does not. SHIPYARD_* overrides are applied either way. The second result
// reports whether the file was found.
func LoadOrDefault(path string) (*AppConfig, bool, error) {
	config := DefaultConfig()
	found := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, false, err
			}
			config, found = loaded, true
		} else if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("failed to stat config file: %w", err)
		}
	}
	if err := ApplyEnvironmentOverrides(config); err != nil {
		return nil, found, err
	}
	return config, found, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Analysis: AnalysisConfig{
			BoostEnabled: true,
			MaxParts:     20000,
			MaxExtent:    60,
		},
		Render: RenderConfig{
			Draw:       true,
			DrawCoM:    true,
			DrawAllCoM: false,
			DrawCoT:    true,
			DrawAllCoT: true,
		},
		Upload: UploadConfig{
			Endpoint: "https://api.imgbb.com/1/upload",
			Timeout:  30 * time.Second,
			Retries:  3,
			Breaker: BreakerConfig{
				MaxRequests:         3,
				Interval:            60 * time.Second,
				Timeout:             30 * time.Second,
				MaxConsecutiveFails: 5,
			},
		},
		Server: ServerConfig{
			Addr:             ":8080",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			ShutdownTimeout:  15 * time.Second,
			MaxBodyBytes:     4 << 20,
			RequestsPerMin:   60,
			Burst:            10,
			CacheSize:        512,
			BatchConcurrency: 4,
		},
	}
}
