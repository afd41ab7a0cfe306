package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freeeve/chesscoach/internal/move"
)

// MultiPVProvider talks to a hosted engine exposing a line-oriented /analyze
// endpoint and a best-move-only /bestmove endpoint. The second is used when
// /analyze answers with an unusable shape.
type MultiPVProvider struct {
	cfg ProviderConfig
}

type multiPVRequest struct {
	FEN     string `json:"fen"`
	Depth   int    `json:"depth"`
	MultiPV int    `json:"multipv,omitempty"`
}

type multiPVLine struct {
	MultiPV int             `json:"multipv"`
	Move    string          `json:"move"`
	Score   json.RawMessage `json:"score"`
	PV      []string        `json:"pv"`
}

type multiPVResponse struct {
	Depth json.RawMessage `json:"depth"`
	Lines json.RawMessage `json:"lines"`
}

type bestMoveResponse struct {
	BestMove string `json:"bestmove"`
}

// NewMultiPVProvider creates the adapter. Defaults: 12s timeout, depth 20, 5 lines.
func NewMultiPVProvider(cfg ProviderConfig) *MultiPVProvider {
	return &MultiPVProvider{cfg: cfg.withDefaults("multipv", 12*time.Second, 20, 5)}
}

func (p *MultiPVProvider) Name() string { return p.cfg.Name }

func (p *MultiPVProvider) Query(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	depth := p.cfg.clampDepth(req.Depth)
	want := p.cfg.clampLines(req.Lines)
	base := strings.TrimRight(p.cfg.URL, "/")

	var raw json.RawMessage
	err := doJSON(ctx, p.cfg, http.MethodPost, base+"/analyze",
		multiPVRequest{FEN: req.Position, Depth: depth, MultiPV: want}, &raw)
	if err != nil {
		return nil, err
	}

	lines, resultDepth, shaped := p.analyzeLines(raw, req.Position)
	if !shaped || len(lines) == 0 {
		p.cfg.Logger.Debug().
			Bool("shaped", shaped).
			Msg("analyze returned no usable lines, falling back to bestmove mode")
		return p.bestMoveOnly(ctx, base, req.Position, depth)
	}
	if err := checkLines(p.cfg, lines, want); err != nil {
		return nil, err
	}

	if resultDepth == 0 {
		resultDepth = depth
	}
	return newResult(p.cfg.Name, resultDepth, lines, nil)
}

// analyzeLines extracts the usable lines of an /analyze body. shaped is false
// when the body is not an object holding a lines array. Lines that do not
// decode are skipped; bad scores become neutral.
func (p *MultiPVProvider) analyzeLines(raw json.RawMessage, fen string) ([]Line, int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, 0, false
	}
	var resp multiPVResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, false
	}
	arr := bytes.TrimSpace(resp.Lines)
	if len(arr) == 0 || arr[0] != '[' {
		return nil, 0, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, 0, false
	}

	var depth int
	_ = json.Unmarshal(resp.Depth, &depth)

	lines := make([]Line, 0, len(items))
	for i, item := range items {
		var l multiPVLine
		if err := json.Unmarshal(item, &l); err != nil {
			p.cfg.Logger.Debug().Err(err).Int("index", i).Msg("skipping undecodable line")
			continue
		}
		mvRaw := l.Move
		if mvRaw == "" && len(l.PV) > 0 {
			mvRaw = l.PV[0]
		}
		mv := move.Sanitize(mvRaw)
		if mv == "" {
			continue
		}
		rank := l.MultiPV
		if rank < 1 {
			rank = i + 1
		}
		lines = append(lines, Line{
			Rank:  rank,
			Move:  mv,
			Score: orient(NormalizeScore(l.Score, UnitCentipawns), p.cfg.Perspective, fen),
			PV:    l.PV,
		})
	}
	return lines, depth, true
}

// bestMoveOnly has no evaluation to offer, so it reports the neutral score.
func (p *MultiPVProvider) bestMoveOnly(ctx context.Context, base, fen string, depth int) (*Result, error) {
	var resp bestMoveResponse
	err := doJSON(ctx, p.cfg, http.MethodPost, base+"/bestmove",
		multiPVRequest{FEN: fen, Depth: depth}, &resp)
	if err != nil {
		return nil, err
	}
	mv := move.Sanitize(resp.BestMove)
	if mv == "" {
		return nil, providerErr(p.cfg.Name, KindNoLines, fmt.Errorf("bestmove mode returned %q", resp.BestMove))
	}
	return newResult(p.cfg.Name, depth, []Line{{Rank: 1, Move: mv, Score: Neutral}}, nil)
}
