package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/freeeve/chesscoach/internal/move"
)

// ChessAPIProvider talks to a chess-api style JSON endpoint that accepts a
// POST with a variants count and answers with one object or an array of them.
type ChessAPIProvider struct {
	cfg ProviderConfig
}

type chessAPIRequest struct {
	FEN             string `json:"fen"`
	Depth           int    `json:"depth"`
	Variants        int    `json:"variants"`
	MaxThinkingTime int    `json:"maxThinkingTime"`
}

type chessAPIMove struct {
	Move         string          `json:"move"`
	Eval         json.RawMessage `json:"eval"`
	Centipawns   json.RawMessage `json:"centipawns"`
	Mate         json.RawMessage `json:"mate"`
	Depth        int             `json:"depth"`
	Continuation []string        `json:"continuationArr"`
	Variant      int             `json:"variant"`
}

// NewChessAPIProvider creates the adapter. Defaults: 8s timeout, depth 18, 5 lines.
func NewChessAPIProvider(cfg ProviderConfig) *ChessAPIProvider {
	return &ChessAPIProvider{cfg: cfg.withDefaults("chessapi", 8*time.Second, 18, 5)}
}

func (p *ChessAPIProvider) Name() string { return p.cfg.Name }

func (p *ChessAPIProvider) Query(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	depth := p.cfg.clampDepth(req.Depth)
	want := p.cfg.clampLines(req.Lines)

	var raw json.RawMessage
	body := chessAPIRequest{
		FEN:             req.Position,
		Depth:           depth,
		Variants:        want,
		MaxThinkingTime: int(p.cfg.Timeout / time.Millisecond),
	}
	if err := doJSON(ctx, p.cfg, http.MethodPost, p.cfg.URL, body, &raw); err != nil {
		return nil, err
	}

	moves, err := decodeChessAPIMoves(raw)
	if err != nil {
		return nil, providerErr(p.cfg.Name, KindDecode, err)
	}

	lines := make([]Line, 0, len(moves))
	resultDepth := 0
	for i, m := range moves {
		mv := move.Sanitize(m.Move)
		if mv == "" {
			p.cfg.Logger.Debug().Str("raw", m.Move).Msg("skipping line without usable move")
			continue
		}
		rank := m.Variant
		if rank < 1 {
			rank = i + 1
		}
		lines = append(lines, Line{
			Rank:  rank,
			Move:  mv,
			Score: orient(chessAPIScore(m), p.cfg.Perspective, req.Position),
			PV:    m.Continuation,
		})
		if m.Depth > resultDepth {
			resultDepth = m.Depth
		}
	}
	if err := checkLines(p.cfg, lines, want); err != nil {
		return nil, err
	}
	if resultDepth == 0 {
		resultDepth = depth
	}
	return newResult(p.cfg.Name, resultDepth, lines, nil)
}

// decodeChessAPIMoves accepts either a single move object or an array.
func decodeChessAPIMoves(raw json.RawMessage) ([]chessAPIMove, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if raw[0] == '[' {
		var moves []chessAPIMove
		if err := json.Unmarshal(raw, &moves); err != nil {
			return nil, fmt.Errorf("decode move array: %w", err)
		}
		return moves, nil
	}
	var m chessAPIMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode move: %w", err)
	}
	return []chessAPIMove{m}, nil
}

// chessAPIScore prefers mate, then the centipawns string, then eval.
func chessAPIScore(m chessAPIMove) Score {
	if s, ok := mateScore(m.Mate); ok {
		return s
	}
	if c := bytes.TrimSpace(m.Centipawns); len(c) > 0 && !bytes.Equal(c, []byte("null")) {
		return NormalizeScore(c, UnitCentipawns)
	}
	return NormalizeScore(m.Eval, UnitCentipawns)
}
