package coach

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/freeeve/chesscoach/internal/board"
	"github.com/freeeve/chesscoach/internal/engine"
	"github.com/freeeve/chesscoach/internal/move"
)

// Classification labels a played move by how much it lost.
type Classification string

const (
	ClassBest       Classification = "best"
	ClassExcellent  Classification = "excellent"
	ClassGood       Classification = "good"
	ClassInaccuracy Classification = "inaccuracy"
	ClassMistake    Classification = "mistake"
	ClassBlunder    Classification = "blunder"
)

// mateCentipawns is the centipawn value of mate in zero.
const mateCentipawns = 10000

// Review grades a single move. Scores are from the mover's point of view.
type Review struct {
	FEN            string         `json:"fen"`
	Move           string         `json:"move"`
	MoveSAN        string         `json:"moveSan"`
	BestMove       string         `json:"bestMove"`
	BestMoveSAN    string         `json:"bestMoveSan,omitempty"`
	ScoreBefore    engine.Score   `json:"scoreBefore"`
	ScoreAfter     engine.Score   `json:"scoreAfter"`
	CentipawnLoss  int            `json:"centipawnLoss"`
	Classification Classification `json:"classification"`
	Reply          string         `json:"reply,omitempty"`
	ReplySAN       string         `json:"replySan,omitempty"`
}

// Review compares the played move against the engine's choice. The positions
// before and after the move are analyzed concurrently.
func (s *Service) Review(ctx context.Context, fen, uci string, depth int) (*Review, error) {
	pos, err := board.Parse(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	child, san, err := pos.Play(uci)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	playedUCI := move.Sanitize(uci)

	var before, after *Analysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.analyze(gctx, pos, depth, 1)
		before = a
		return err
	})
	terminal := len(child.LegalMoves()) == 0
	if !terminal {
		g.Go(func() error {
			a, err := s.analyze(gctx, child, depth, 1)
			after = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Review{
		FEN:         pos.FEN(),
		Move:        playedUCI,
		MoveSAN:     san,
		BestMove:    before.BestMove,
		BestMoveSAN: before.BestMoveSAN,
		ScoreBefore: before.Score,
	}
	switch {
	case child.IsCheckmate():
		r.ScoreAfter = engine.MateIn(0)
	case terminal:
		r.ScoreAfter = engine.Neutral
	default:
		r.ScoreAfter = after.Score.Negate()
		r.Reply = after.BestMove
		r.ReplySAN = after.BestMoveSAN
	}

	r.CentipawnLoss = centipawns(r.ScoreBefore) - centipawns(r.ScoreAfter)
	if r.CentipawnLoss < 0 {
		r.CentipawnLoss = 0
	}
	r.Classification = classify(r.CentipawnLoss, playedUCI == before.BestMove)

	s.log.Debug().Str("fen", r.FEN).Str("move", r.Move).Int("loss", r.CentipawnLoss).
		Str("class", string(r.Classification)).Msg("reviewed move")
	return r, nil
}

// centipawns maps a score onto one centipawn scale. Mate in n for the side
// to move is worth mateCentipawns - 10n; being mated is the negation. A
// mate-in-zero score belongs to the side that just delivered mate.
func centipawns(s engine.Score) int {
	if !s.IsMate() {
		return s.Value
	}
	n := s.Value
	if n < 0 {
		return -(mateCentipawns - 10*(-n))
	}
	return mateCentipawns - 10*n
}

func classify(loss int, best bool) Classification {
	switch {
	case best || loss <= 0:
		return ClassBest
	case loss <= 20:
		return ClassExcellent
	case loss <= 50:
		return ClassGood
	case loss <= 100:
		return ClassInaccuracy
	case loss <= 300:
		return ClassMistake
	default:
		return ClassBlunder
	}
}
