// Package config loads the ambient shellbridge.yaml settings: default
// frame rate and quality, a port range, and any extra WebSocket origins to
// trust beyond the built-in webview set. shellbridged currently consumes
// only the extra origins; the other values are loaded but not applied to
// stream requests or to port validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of shellbridge.yaml, loaded the same way
// the teacher repo's project.yaml is: a single yaml.v3 Unmarshal into a
// plain struct, with defaults applied for anything the file omits.
type Config struct {
	Stream StreamDefaults `yaml:"stream"`
}

// StreamDefaults holds default stream parameters, a port range and extra
// allowed origins. The stream manager does not fill omitted fields from
// these defaults, and its port check uses its own fixed 9100-9199 bounds
// rather than PortRangeStart/PortRangeEnd.
type StreamDefaults struct {
	FPS            int      `yaml:"fps"`
	Quality        int      `yaml:"quality"`
	PortRangeStart int      `yaml:"port_range_start"`
	PortRangeEnd   int      `yaml:"port_range_end"`
	ExtraOrigins   []string `yaml:"extra_origins"`
}

// Default returns the built-in configuration used when no config file is
// present.
func Default() Config {
	return Config{
		Stream: StreamDefaults{
			FPS:            10,
			Quality:        80,
			PortRangeStart: 9100,
			PortRangeEnd:   9199,
		},
	}
}

// Load reads and parses the YAML config file at path, overlaying it onto
// Default(). A missing file is not an error: it simply yields the
// defaults, matching how an absent project.yaml is treated.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// FirstAvailablePort returns the lowest port in the configured range. It
// does not probe whether that port is free, and neither host binary calls
// it; the stream manager validates whatever port the caller passes.
func (c Config) FirstAvailablePort() int {
	return c.Stream.PortRangeStart
}
