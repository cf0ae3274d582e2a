// Package config loads the repoingest.toml service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Config holds the process-wide configuration. It is initialized once at
// startup and never mutated afterwards.
type Config struct {
	// OutputDir receives the ingestion artifacts.
	OutputDir string `toml:"output_dir"`
	// ReposDir receives local clones and local-path marker files.
	ReposDir string `toml:"repos_dir"`
	// IndexesDir is the root of externally produced index directories.
	IndexesDir string `toml:"indexes_dir"`
	// IngestTimeoutSec bounds a single ingestion-tool invocation.
	IngestTimeoutSec float64 `toml:"ingest_timeout_sec"`
	// Clone controls whether remote refs are cloned after ingestion.
	Clone bool `toml:"clone"`
	// GitHubToken is the default access credential. The GITHUB_TOKEN
	// environment variable is used when this is empty.
	GitHubToken string `toml:"github_token"`

	Server ServerConfig `toml:"server"`
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		OutputDir:        "gitingest_outputs",
		ReposDir:         "my_repos",
		IndexesDir:       "indexes",
		IngestTimeoutSec: 300.0,
		Clone:            true,
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
	}
}

// Load reads a repoingest.toml file. A missing file yields the defaults; a
// malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Back-fill defaults for fields the file zeroed out.
	def := Default()
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}
	if cfg.ReposDir == "" {
		cfg.ReposDir = def.ReposDir
	}
	if cfg.IndexesDir == "" {
		cfg.IndexesDir = def.IndexesDir
	}
	if cfg.IngestTimeoutSec <= 0 {
		cfg.IngestTimeoutSec = def.IngestTimeoutSec
	}
	if !md.IsDefined("clone") {
		cfg.Clone = def.Clone
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills the credential from the environment when the file left it
// empty.
func (c *Config) applyEnv() {
	if c.GitHubToken == "" {
		c.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
}

// IngestTimeout returns the ingestion timeout as a duration.
func (c Config) IngestTimeout() time.Duration {
	return time.Duration(c.IngestTimeoutSec * float64(time.Second))
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
