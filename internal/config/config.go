// Package config loads the collector's YAML configuration file.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the collector's full runtime configuration.
type Config struct {
	ListenAddr  string `yaml:"listenAddr"`  // IPv4 address, e.g. "0.0.0.0"
	ListenPort  uint16 `yaml:"listenPort"`  // default 4739
	ParserCount uint32 `yaml:"parserCount"` // must be > 0
	MetricsAddr string `yaml:"metricsAddr"` // e.g. "127.0.0.1:9090", empty disables
	LogLevel    string `yaml:"logLevel"`    // "debug"|"info"|"error"
}

// Default returns a Config with the values a bare install should run with.
func Default() *Config {
	return &Config{
		ListenAddr:  "0.0.0.0",
		ListenPort:  4739,
		ParserCount: 4,
		MetricsAddr: "127.0.0.1:9090",
		LogLevel:    "info",
	}
}

// Load reads and parses a YAML config file at path, starting from Default()
// so a partial file only overrides the fields it sets.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate enforces the invariants Start requires before it will bind a
// socket: a positive parser count and a listen address that parses as an
// IP literal (host names are rejected). It also checks that MetricsAddr,
// when set, is a host:port pair and that LogLevel is a known level.
func (c *Config) Validate() error {
	if c.ParserCount == 0 {
		return fmt.Errorf("config: parserCount must be > 0")
	}
	if net.ParseIP(c.ListenAddr) == nil {
		return fmt.Errorf("config: listenAddr %q is not a valid IP address", c.ListenAddr)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("config: metricsAddr %q: %w", c.MetricsAddr, err)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		return fmt.Errorf("config: logLevel %q must be debug, info, or error", c.LogLevel)
	}
	return nil
}

// ListenAddrPort formats ListenAddr/ListenPort as a net.Dial-style address.
func (c *Config) ListenAddrPort() string {
	return fmt.Sprintf("%s:%d", c.ListenAddr, c.ListenPort)
}
