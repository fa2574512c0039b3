// Package config loads hydrograph's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full server configuration.
type Config struct {
	Server    Server            `yaml:"server"`
	DB        DB                `yaml:"db"`
	Databases map[string]string `yaml:"databases"`
	Cache     Cache             `yaml:"cache"`
	Otel      Otel              `yaml:"otel"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `yaml:"addr"`
	APIKey       string   `yaml:"api_key"`
	Pretty       bool     `yaml:"pretty"`
	Timeout      Duration `yaml:"timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

// DB locates the application database.
type DB struct {
	Path string `yaml:"path"`
}

// Cache configures query-result caching. An empty RedisAddr selects the
// in-process cache.
type Cache struct {
	RedisAddr string   `yaml:"redis_addr"`
	TTL       Duration `yaml:"ttl"`
}

// Otel configures tracing. An empty Endpoint disables it.
type Otel struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:    ":8080",
			Timeout: Duration(10 * time.Second),
		},
		DB:        DB{Path: "hydrograph.db"},
		Databases: map[string]string{},
		Cache:     Cache{TTL: Duration(60 * time.Second)},
		Otel:      Otel{Service: "hydrograph"},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
