// Package coach turns engine results into annotated analysis for the
// outer surfaces: SAN lines, opening names and move-quality reviews.
package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/freeeve/chesscoach/internal/board"
	"github.com/freeeve/chesscoach/internal/eco"
	"github.com/freeeve/chesscoach/internal/engine"
)

var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrIllegalMove     = errors.New("illegal move")
	ErrGameOver        = errors.New("no legal moves in position")
)

// BestMover is implemented by *engine.Client.
type BestMover interface {
	BestMove(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// OpeningBook is implemented by *eco.Database.
type OpeningBook interface {
	Lookup(fen string) *eco.Opening
}

// Service is safe for concurrent use.
type Service struct {
	engine   BestMover
	openings OpeningBook
	log      zerolog.Logger
}

// NewService creates a Service. openings may be nil.
func NewService(log zerolog.Logger, e BestMover, openings OpeningBook) *Service {
	return &Service{engine: e, openings: openings, log: log}
}

// AnnotatedLine is an engine line with SAN rendering.
type AnnotatedLine struct {
	engine.Line
	SAN   string   `json:"san,omitempty"`
	PVSAN []string `json:"pvSan,omitempty"`
}

// Analysis is an engine result annotated for display.
type Analysis struct {
	FEN             string          `json:"fen"`
	BestMove        string          `json:"bestMove"`
	BestMoveSAN     string          `json:"bestMoveSan,omitempty"`
	Score           engine.Score    `json:"score"`
	Depth           int             `json:"searchDepth"`
	Lines           []AnnotatedLine `json:"lines"`
	Continuation    []string        `json:"principalContinuation,omitempty"`
	ContinuationSAN []string        `json:"principalContinuationSan,omitempty"`
	Opening         *eco.Opening    `json:"opening,omitempty"`
	Provider        string          `json:"provider"`
}

// Analyze validates fen, asks the engine client and annotates the result.
func (s *Service) Analyze(ctx context.Context, fen string, depth, lines int) (*Analysis, error) {
	pos, err := board.Parse(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if len(pos.LegalMoves()) == 0 {
		return nil, ErrGameOver
	}
	return s.analyze(ctx, pos, depth, lines)
}

func (s *Service) analyze(ctx context.Context, pos *board.Position, depth, lines int) (*Analysis, error) {
	res, err := s.engine.BestMove(ctx, engine.Request{Position: pos.FEN(), Depth: depth, Lines: lines})
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		FEN:             pos.FEN(),
		BestMove:        res.BestMove,
		BestMoveSAN:     pos.SAN(res.BestMove),
		Score:           res.Score,
		Depth:           res.Depth,
		Lines:           make([]AnnotatedLine, 0, len(res.Lines)),
		Continuation:    res.Continuation,
		ContinuationSAN: pos.LineSAN(res.Continuation),
		Provider:        res.Provider,
	}
	for _, l := range res.Lines {
		al := AnnotatedLine{Line: l, SAN: pos.SAN(l.Move)}
		if len(l.PV) > 0 {
			al.PVSAN = pos.LineSAN(l.PV)
		}
		a.Lines = append(a.Lines, al)
	}
	if a.BestMoveSAN == "" {
		s.log.Warn().Str("fen", pos.FEN()).Str("move", res.BestMove).Str("provider", res.Provider).
			Msg("engine suggested a move that is not legal here")
	}
	if s.openings != nil {
		a.Opening = s.openings.Lookup(pos.FEN())
	}
	return a, nil
}
