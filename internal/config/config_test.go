package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/chesscoach/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	kinds := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []string{engine.KindChessAPI, engine.KindStockfishOnline, engine.KindMultiPV}, kinds)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
log_level: debug
eco_dir: /tmp/eco
providers:
  - kind: multipv
    url: http://engine.local
    timeout: 3s
    max_depth: 12
  - name: backup
    kind: chessapi
    url: https://example.com/v1
    perspective: white
    disabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/eco", cfg.ECODir)
	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, 3*time.Second, cfg.Providers[0].Timeout)
	assert.Equal(t, 12, cfg.Providers[0].MaxDepth)
	assert.True(t, cfg.Providers[1].Disabled)

	provs, err := cfg.BuildProviders(zerolog.Nop(), nil, "")
	require.NoError(t, err)
	require.Len(t, provs, 1)
	assert.Equal(t, "multipv", provs[0].Name())
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Len(t, cfg.Providers, 3)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not yaml", "providers: [\n"},
		{"unknown kind", "providers:\n  - kind: oracle\n    url: http://x\n"},
		{"missing url", "providers:\n  - kind: chessapi\n"},
		{"negative timeout", "providers:\n  - kind: chessapi\n    url: http://x\n    timeout: -1s\n"},
		{"bad perspective", "providers:\n  - kind: chessapi\n    url: http://x\n    perspective: black\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestBuildProvidersLocalEngine(t *testing.T) {
	cfg := Default()
	provs, err := cfg.BuildProviders(zerolog.Nop(), nil, "")
	require.NoError(t, err)
	require.Len(t, provs, 3)
	assert.Equal(t, "chessapi", provs[0].Name())
	assert.Equal(t, "stockfishonline", provs[1].Name())

	provs, err = cfg.BuildProviders(zerolog.Nop(), nil, "/usr/bin/stockfish")
	require.NoError(t, err)
	require.Len(t, provs, 4)
	assert.Equal(t, "uci", provs[3].Name())
	assert.Len(t, cfg.Providers, 3)

	cfg.Providers = []ProviderConfig{{Kind: engine.KindUCI, Name: "local"}}
	provs, err = cfg.BuildProviders(zerolog.Nop(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, provs)
}
