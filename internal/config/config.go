package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ScanPaths     []string      `toml:"scan_paths"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Fix           Fix           `toml:"fix"`
	Builtins      Builtins      `toml:"builtins"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// MaxPerSecond caps how many re-analyses watch mode may trigger.
	MaxPerSecond float64 `toml:"max_per_second"`
}

type Fix struct {
	// DefaultCallArgs is used when -add-call names a function without an
	// argument list.
	DefaultCallArgs []string `toml:"default_call_args"`
	// StripLocalImports removes relative imports during -fix.
	StripLocalImports bool `toml:"strip_local_imports"`
	// StripFalseyBlocks removes statically false guards during -fix.
	StripFalseyBlocks bool `toml:"strip_falsey_blocks"`
}

type Builtins struct {
	// Extra names treated as always-defined on top of the builtin catalog,
	// e.g. framework globals or conftest fixtures.
	Extra []string `toml:"extra"`
}

type History struct {
	Path string `toml:"path"`
}

type Observability struct {
	Listen       string `toml:"listen"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.ScanPaths) == 0 {
		cfg.ScanPaths = []string{"."}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".venv", "venv", "__pycache__", "node_modules"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxPerSecond == 0 {
		cfg.Watch.MaxPerSecond = 4
	}
	if len(cfg.Fix.DefaultCallArgs) == 0 {
		cfg.Fix.DefaultCallArgs = []string{"db"}
	}
	if cfg.Observability.Listen == "" {
		cfg.Observability.Listen = "localhost:9090"
	}
}

func (c *Config) validate() error {
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	if c.Watch.MaxPerSecond < 0 {
		return fmt.Errorf("watch.max_per_second must not be negative, got %v", c.Watch.MaxPerSecond)
	}
	for _, path := range c.ScanPaths {
		if path == "" {
			return fmt.Errorf("scan_paths must not contain empty entries")
		}
	}
	return nil
}
