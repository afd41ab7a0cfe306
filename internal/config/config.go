// Package config loads the service configuration: listen address, log level,
// opening files and the ordered provider list.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/freeeve/chesscoach/internal/engine"
)

// Config is the file format.
type Config struct {
	Addr      string           `yaml:"addr"`
	LogLevel  string           `yaml:"log_level"`
	ECODir    string           `yaml:"eco_dir"`
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig is one entry of the provider chain, in priority order.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxDepth    int           `yaml:"max_depth"`
	MaxLines    int           `yaml:"max_lines"`
	Perspective string        `yaml:"perspective"`
	Disabled    bool          `yaml:"disabled"`

	EnginePath string `yaml:"engine_path"`
	Threads    int    `yaml:"threads"`
	HashMB     int    `yaml:"hash_mb"`
}

// DefaultPath is $XDG_CONFIG_HOME/chesscoach/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "chesscoach", "config.yaml")
}

// Default returns the built-in configuration: the three remote providers in
// priority order.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
		Providers: []ProviderConfig{
			{Kind: engine.KindChessAPI, URL: "https://chess-api.com/v1", Timeout: 8 * time.Second, MaxDepth: 18, MaxLines: 5},
			{Kind: engine.KindStockfishOnline, URL: "https://stockfish.online/api/s/v2.php", Timeout: 15 * time.Second, MaxDepth: 15, MaxLines: 1, Perspective: string(engine.PerspectiveWhite)},
			{Kind: engine.KindMultiPV, URL: "http://127.0.0.1:5000", Timeout: 12 * time.Second, MaxDepth: 20, MaxLines: 5},
		},
	}
}

// Load reads path (DefaultPath when empty). A missing file yields Default.
// Fields left out of the file keep their defaults; a providers list in the
// file replaces the default chain.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.ECODir != "" {
		cfg.ECODir = file.ECODir
	}
	if file.Providers != nil {
		cfg.Providers = file.Providers
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every provider entry.
func (c *Config) Validate() error {
	for i, p := range c.Providers {
		if err := p.validate(); err != nil {
			return fmt.Errorf("providers[%d]: %w", i, err)
		}
	}
	return nil
}

func (p ProviderConfig) validate() error {
	known := false
	for _, k := range engine.Kinds() {
		if p.Kind == k {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown kind %q (known: %v)", p.Kind, engine.Kinds())
	}
	if p.Kind != engine.KindUCI && p.URL == "" {
		return fmt.Errorf("%s: url required", p.Kind)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%s: timeout must be positive", p.Kind)
	}
	if p.MaxDepth < 0 || p.MaxLines < 0 {
		return fmt.Errorf("%s: max_depth and max_lines must not be negative", p.Kind)
	}
	if _, err := engine.ParsePerspective(p.Perspective); err != nil {
		return fmt.Errorf("%s: %w", p.Kind, err)
	}
	return nil
}

// BuildProviders turns the enabled entries into adapters, keeping their order.
// A uci entry without engine_path uses stockfishPath; with neither it is
// skipped. When stockfishPath is set and no uci entry exists, a local engine
// is appended as the last resort.
func (c *Config) BuildProviders(log zerolog.Logger, client *http.Client, stockfishPath string) ([]engine.Provider, error) {
	entries := c.Providers
	if stockfishPath != "" && !c.hasKind(engine.KindUCI) {
		entries = append(entries[:len(entries):len(entries)], ProviderConfig{Kind: engine.KindUCI})
	}

	var out []engine.Provider
	for _, p := range entries {
		if p.Disabled {
			log.Debug().Str("kind", p.Kind).Str("name", p.Name).Msg("provider disabled")
			continue
		}
		enginePath := p.EnginePath
		if p.Kind == engine.KindUCI && enginePath == "" {
			enginePath = stockfishPath
			if enginePath == "" {
				log.Warn().Str("name", p.Name).Msg("uci provider has no engine path, skipping")
				continue
			}
		}
		var perspective engine.Perspective
		if p.Perspective != "" {
			pp, err := engine.ParsePerspective(p.Perspective)
			if err != nil {
				return nil, err
			}
			perspective = pp
		}

		name := p.Name
		if name == "" {
			name = p.Kind
		}
		pc := engine.ProviderConfig{
			Name:        name,
			URL:         p.URL,
			Timeout:     p.Timeout,
			MaxDepth:    p.MaxDepth,
			MaxLines:    p.MaxLines,
			Perspective: perspective,
			Logger:      log.With().Str("provider", name).Logger(),
			EnginePath:  enginePath,
			Threads:     p.Threads,
			HashMB:      p.HashMB,
		}
		if client != nil {
			pc.Client = client
		}
		prov, err := engine.New(p.Kind, pc)
		if err != nil {
			return nil, err
		}
		out = append(out, prov)
	}
	return out, nil
}

func (c *Config) hasKind(kind string) bool {
	for _, p := range c.Providers {
		if p.Kind == kind {
			return true
		}
	}
	return false
}
