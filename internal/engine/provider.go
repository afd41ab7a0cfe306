package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// Provider is one external analysis service behind a common contract.
type Provider interface {
	Name() string
	Query(ctx context.Context, req Request) (*Result, error)
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxBodyBytes caps provider response bodies after decompression.
const maxBodyBytes = 4 << 20

// ProviderConfig configures one adapter instance.
type ProviderConfig struct {
	Name        string
	URL         string
	Timeout     time.Duration
	MaxDepth    int // depth ceiling enforced before the request is issued
	MaxLines    int // candidate line ceiling (1 = single-line provider)
	Perspective Perspective
	Client      HTTPDoer
	Logger      zerolog.Logger

	// Local engine only.
	EnginePath string
	Threads    int
	HashMB     int
}

// withDefaults fills zero fields with the adapter's defaults.
func (cfg ProviderConfig) withDefaults(name string, timeout time.Duration, maxDepth, maxLines int) ProviderConfig {
	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeout
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = maxDepth
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = maxLines
	}
	if cfg.Perspective == "" {
		cfg.Perspective = PerspectiveSideToMove
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return cfg
}

func (cfg ProviderConfig) clampDepth(depth int) int {
	if depth < 1 {
		depth = 1
	}
	if depth > cfg.MaxDepth {
		depth = cfg.MaxDepth
	}
	return depth
}

func (cfg ProviderConfig) clampLines(lines int) int {
	if lines < 1 {
		lines = 1
	}
	if lines > cfg.MaxLines {
		lines = cfg.MaxLines
	}
	return lines
}

// doJSON performs one HTTP exchange and decodes the JSON body into out.
// A nil body sends no request payload.
func doJSON(ctx context.Context, cfg ProviderConfig, method, url string, body, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return providerErr(cfg.Name, KindDecode, fmt.Errorf("encode request: %w", err))
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return providerErr(cfg.Name, KindNetwork, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return requestErr(ctx, cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &ProviderError{Provider: cfg.Name, Kind: KindStatus, Status: resp.StatusCode}
	}

	r, closeFn, err := decodedBody(resp)
	if err != nil {
		return providerErr(cfg.Name, KindDecode, err)
	}
	defer closeFn()

	if err := json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(out); err != nil {
		if ctx.Err() != nil {
			return requestErr(ctx, cfg.Name, err)
		}
		return providerErr(cfg.Name, KindDecode, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

// decodedBody unwraps gzip or zstd content encodings. We set Accept-Encoding
// ourselves, so net/http does not decompress for us.
func decodedBody(resp *http.Response) (io.Reader, func(), error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, func() {}, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip body: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd body: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

// checkLines enforces the line-count contract of multi-line providers.
func checkLines(cfg ProviderConfig, lines []Line, want int) error {
	if len(lines) == 0 {
		return providerErr(cfg.Name, KindNoLines, fmt.Errorf("no usable candidate lines"))
	}
	if len(lines) < want {
		return providerErr(cfg.Name, KindUnderdelivered, fmt.Errorf("got %d of %d lines", len(lines), want))
	}
	return nil
}
