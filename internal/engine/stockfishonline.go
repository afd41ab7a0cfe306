package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/freeeve/chesscoach/internal/move"
)

// StockfishOnlineProvider queries a GET endpoint that returns a single best
// move with a pawn evaluation from White's point of view.
type StockfishOnlineProvider struct {
	cfg ProviderConfig
}

type stockfishOnlineResponse struct {
	Success      *bool           `json:"success"`
	Evaluation   json.RawMessage `json:"evaluation"`
	Mate         json.RawMessage `json:"mate"`
	BestMove     string          `json:"bestmove"`
	Continuation string          `json:"continuation"`
	Data         string          `json:"data"`
}

// NewStockfishOnlineProvider creates the adapter. Defaults: 15s timeout,
// depth 15, white-perspective scores. It never returns more than one line.
func NewStockfishOnlineProvider(cfg ProviderConfig) *StockfishOnlineProvider {
	if cfg.Perspective == "" {
		cfg.Perspective = PerspectiveWhite
	}
	cfg = cfg.withDefaults("stockfishonline", 15*time.Second, 15, 1)
	cfg.MaxLines = 1
	return &StockfishOnlineProvider{cfg: cfg}
}

func (p *StockfishOnlineProvider) Name() string { return p.cfg.Name }

func (p *StockfishOnlineProvider) Query(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	depth := p.cfg.clampDepth(req.Depth)

	u, err := url.Parse(p.cfg.URL)
	if err != nil {
		return nil, providerErr(p.cfg.Name, KindNetwork, fmt.Errorf("parse url: %w", err))
	}
	q := u.Query()
	q.Set("fen", req.Position)
	q.Set("depth", strconv.Itoa(depth))
	u.RawQuery = q.Encode()

	var resp stockfishOnlineResponse
	if err := doJSON(ctx, p.cfg, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, providerErr(p.cfg.Name, KindIncomplete, fmt.Errorf("provider reported failure: %s", resp.Data))
	}

	mv := move.Sanitize(resp.BestMove)
	if mv == "" {
		return nil, providerErr(p.cfg.Name, KindIncomplete, fmt.Errorf("missing best move in %q", resp.BestMove))
	}

	score, ok := mateScore(resp.Mate)
	if !ok {
		score = NormalizeScore(resp.Evaluation, UnitPawns)
	}

	var continuation []string
	for _, tok := range strings.Fields(resp.Continuation) {
		if m := move.Sanitize(tok); m != "" {
			continuation = append(continuation, m)
		}
	}

	line := Line{
		Rank:  1,
		Move:  mv,
		Score: orient(score, p.cfg.Perspective, req.Position),
		PV:    continuation,
	}
	return newResult(p.cfg.Name, depth, []Line{line}, continuation)
}
