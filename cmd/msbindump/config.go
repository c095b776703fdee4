package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/tidwall/jsonc"
)

// config holds the settings a JSONC file may supply. Command-line flags
// override it.
type config struct {
	Format       string `json:"format"`
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
	VisioVersion int    `json:"visio_version"`
	MaxDepth     int    `json:"max_depth"`
	CommandTable string `json:"command_table"`
	Registry     string `json:"registry"`
	// MaxInput bounds the size of an input after decompression.
	MaxInput int `json:"max_input"`
}

func defaultConfig() config {
	return config{
		Format:       "text",
		LogLevel:     "warn",
		LogFormat:    "text",
		VisioVersion: 11,
		MaxDepth:     64,
		Registry:     "hslf",
		MaxInput:     256 << 20,
	}
}

var formats = []string{"text", "json", "yaml", "cbor"}

func (c config) validate() error {
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("invalid output format %q", c.Format)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.MaxInput <= 0 {
		return fmt.Errorf("max_input must be positive, got %d", c.MaxInput)
	}
	if _, err := registryByName(c.Registry); err != nil {
		return err
	}
	return nil
}

// parseConfig strips JSONC comments and trailing commas from data and
// decodes it over the defaults.
func parseConfig(data []byte) (config, error) {
	cfg := defaultConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func loadConfig(path string) (config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
