// Package engine queries remote chess-analysis providers in priority order and
// normalizes their responses into one evaluation model.
package engine

import (
	"fmt"
	"sort"
	"strings"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Request is one analysis request.
type Request struct {
	Position string // FEN, never modified
	Depth    int    // search depth hint
	Lines    int    // desired candidate lines (<= 0 means 1)
}

// Line is one ranked candidate move.
type Line struct {
	Rank  int      `json:"rank"`
	Move  string   `json:"move"` // coordinate move, e.g. "e2e4"
	Score Score    `json:"score"`
	PV    []string `json:"pv,omitempty"`
}

// Result is the canonical engine response. Build it with newResult so that
// BestMove and Score always mirror Lines[0].
type Result struct {
	BestMove     string   `json:"bestMove"`
	Score        Score    `json:"score"`
	Depth        int      `json:"searchDepth"`
	Lines        []Line   `json:"lines"`
	Continuation []string `json:"principalContinuation,omitempty"`
	Provider     string   `json:"provider"`
}

// newResult orders lines by rank and derives the best move and score from rank 1.
func newResult(provider string, depth int, lines []Line, continuation []string) (*Result, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("no candidate lines")
	}
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	if len(continuation) == 0 && len(sorted[0].PV) > 0 {
		continuation = sorted[0].PV
	}
	return &Result{
		BestMove:     sorted[0].Move,
		Score:        sorted[0].Score,
		Depth:        depth,
		Lines:        sorted,
		Continuation: continuation,
		Provider:     provider,
	}, nil
}

// Perspective says whose point of view a provider reports scores from.
type Perspective string

const (
	PerspectiveSideToMove Perspective = "side_to_move"
	PerspectiveWhite      Perspective = "white"
)

// ParsePerspective accepts "" (side to move), "side_to_move" or "white".
func ParsePerspective(s string) (Perspective, error) {
	switch Perspective(strings.ToLower(strings.TrimSpace(s))) {
	case "", PerspectiveSideToMove:
		return PerspectiveSideToMove, nil
	case PerspectiveWhite:
		return PerspectiveWhite, nil
	}
	return "", fmt.Errorf("unknown score perspective %q", s)
}

// blackToMove reads the side-to-move field of a FEN.
func blackToMove(fen string) bool {
	fields := strings.Fields(fen)
	return len(fields) > 1 && fields[1] == "b"
}

// orient converts a score reported from p's point of view to the side to move.
func orient(s Score, p Perspective, fen string) Score {
	if p == PerspectiveWhite && blackToMove(fen) {
		return s.Negate()
	}
	return s
}
