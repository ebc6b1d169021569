// Package config loads and hot-reloads the engine's two off-path
// configuration documents — the filter pipeline (FilterDocument,
// compiled into a pipeline.Pipeline) and the control policy
// (ControlPolicy, consumed by the FMEA/watchdog subsystems) — from a
// single YAML file, with environment-variable overrides and a
// deep-merging JSON patch endpoint for live updates.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the engine's full configuration surface.
type Config struct {
	mu sync.RWMutex

	Filter FilterDocument `yaml:"filter" json:"filter"`
	Policy ControlPolicy  `yaml:"policy" json:"policy"`
	Listen string         `yaml:"listen_addr" json:"listenAddr"`

	path string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Filter: DefaultFilterDocument(),
		Policy: DefaultControlPolicy(),
		Listen: ":8090",
	}
}

// LoadConfig reads config from a YAML file, then applies .env and
// environment variable overrides. Falls back to defaults if the file
// is missing or fails to parse.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] no config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] error parsing %s: %v, using defaults", path, err)
		cfg = DefaultConfig()
		cfg.path = path
	} else {
		log.Printf("[config] loaded from %s", path)
	}

	envPaths := []string{
		filepath.Join(filepath.Dir(path), ".env"),
		".env",
	}
	for _, ep := range envPaths {
		loadEnvFile(ep)
	}

	cfg.applyEnvOverrides()
	return cfg
}

// loadEnvFile reads a simple KEY=VALUE .env file and sets os env vars.
func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	log.Printf("[config] loading .env from %s", path)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// applyEnvOverrides reads environment variables and overrides config
// values. Supported: FFB_LISTEN_ADDR, FFB_THERMAL_LIMIT_C,
// FFB_OVERCURRENT_A, FFB_SOFT_STOP_DURATION_MS, FFB_PLUGIN_BUDGET_US.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FFB_LISTEN_ADDR"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("FFB_THERMAL_LIMIT_C"); v != "" {
		if n, err := strconv.ParseFloat(v, 32); err == nil {
			c.Policy.ThermalLimitC = float32(n)
		}
	}
	if v := os.Getenv("FFB_OVERCURRENT_A"); v != "" {
		if n, err := strconv.ParseFloat(v, 32); err == nil {
			c.Policy.OvercurrentA = float32(n)
		}
	}
	if v := os.Getenv("FFB_SOFT_STOP_DURATION_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Policy.SoftStopDurationMs = n
		}
	}
	if v := os.Getenv("FFB_PLUGIN_BUDGET_US"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Policy.PluginBudgetUS = n
		}
	}
}

// Save writes the config to its YAML file.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		c.path = "/etc/ffbengine/config.yaml"
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// ToJSON serializes config for the snapshot/config API.
func (c *Config) ToJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c)
}

// UpdateFromJSON applies a partial JSON config update by deep-merging
// incoming fields into the existing config. Fields not present in the
// incoming JSON are preserved.
func (c *Config) UpdateFromJSON(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	currentBytes, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal current config: %w", err)
	}
	var base map[string]interface{}
	if err := json.Unmarshal(currentBytes, &base); err != nil {
		return fmt.Errorf("unmarshal current config: %w", err)
	}

	var patch map[string]interface{}
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("unmarshal patch: %w", err)
	}

	deepMerge(base, patch)

	merged, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("marshal merged config: %w", err)
	}
	return json.Unmarshal(merged, c)
}

// Snapshot returns a copy of the current Filter/Policy pair under the
// read lock, safe to hand to the compilation worker or the snapshot API.
func (c *Config) Snapshot() (FilterDocument, ControlPolicy, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Filter, c.Policy, c.Listen
}

// deepMerge recursively merges src into dst. For nested maps, values
// are merged rather than replaced. For all other types, src overwrites
// dst.
func deepMerge(dst, src map[string]interface{}) {
	for key, srcVal := range src {
		if srcMap, ok := srcVal.(map[string]interface{}); ok {
			if dstMap, ok := dst[key].(map[string]interface{}); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[key] = srcVal
	}
}
