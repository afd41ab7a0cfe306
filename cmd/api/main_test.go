package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServesUntilCanceled(t *testing.T) {
	t.Setenv("STOCKFISH_PATH", "")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := run(ctx, []string{
		"-config", filepath.Join(t.TempDir(), "missing.yaml"),
		"-addr", "127.0.0.1:0",
		"-log-level", "info",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "api listening")
	assert.Contains(t, out.String(), "shutdown complete")
}

func TestRunRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - kind: oracle\n"), 0o644))

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", path}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")

	err = run(context.Background(), []string{"-no-such-flag"}, &out)
	assert.Error(t, err)
}
