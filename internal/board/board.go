// Package board wraps the pgn library with the few position helpers the
// coach needs: FEN validation, coordinate moves and SAN rendering.
package board

import (
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"

	"github.com/freeeve/chesscoach/internal/move"
)

// Position is an immutable view of a parsed FEN. Methods that play moves
// return a new Position.
type Position struct {
	gs  *pgn.GameState
	fen string
}

// Parse validates a FEN.
func Parse(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, fmt.Errorf("empty FEN")
	}
	gs, err := pgn.NewGame(fen)
	if err != nil {
		return nil, fmt.Errorf("parse FEN %q: %w", fen, err)
	}
	return &Position{gs: gs, fen: gs.ToFEN()}, nil
}

// Start returns the standard starting position.
func Start() *Position {
	gs := pgn.NewStartingPosition()
	return &Position{gs: gs, fen: gs.ToFEN()}
}

// FEN returns the normalized FEN.
func (p *Position) FEN() string {
	return p.fen
}

// BlackToMove reports the side to move.
func (p *Position) BlackToMove() bool {
	return strings.Contains(p.fen, " b ")
}

// LegalMoves returns every legal move in coordinate notation.
func (p *Position) LegalMoves() []string {
	moves := pgn.GenerateLegalMoves(p.gs)
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mvToMove(mv).String())
	}
	return out
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.gs.IsInCheck() && len(pgn.GenerateLegalMoves(p.gs)) == 0
}

// Find returns the legal move matching a coordinate move.
func (p *Position) Find(uci string) (pgn.Mv, bool) {
	want, err := move.Parse(strings.ToLower(strings.TrimSpace(uci)))
	if err != nil {
		return pgn.Mv{}, false
	}
	for _, mv := range pgn.GenerateLegalMoves(p.gs) {
		if mvToMove(mv) == want {
			return mv, true
		}
	}
	return pgn.Mv{}, false
}

// Play applies a coordinate move and returns the child position and the
// move's SAN. p itself is left untouched.
func (p *Position) Play(uci string) (*Position, string, error) {
	mv, ok := p.Find(uci)
	if !ok {
		return nil, "", fmt.Errorf("illegal move %q in %s", uci, p.fen)
	}
	san := mvToSAN(p.gs, mv)
	child := p.gs.Pack().Unpack()
	if child == nil {
		return nil, "", fmt.Errorf("copy position %s", p.fen)
	}
	if err := pgn.ApplyMove(child, mv); err != nil {
		return nil, "", fmt.Errorf("apply %q: %w", uci, err)
	}
	return &Position{gs: child, fen: child.ToFEN()}, san, nil
}

// SAN renders a coordinate move in SAN, or "" if it is not legal here.
func (p *Position) SAN(uci string) string {
	mv, ok := p.Find(uci)
	if !ok {
		return ""
	}
	return mvToSAN(p.gs, mv)
}

// LineSAN converts a coordinate move sequence to SAN, stopping at the first
// move that is not legal.
func (p *Position) LineSAN(ucis []string) []string {
	out := make([]string, 0, len(ucis))
	cur := p
	for _, uci := range ucis {
		next, san, err := cur.Play(uci)
		if err != nil {
			break
		}
		out = append(out, san)
		cur = next
	}
	return out
}

func mvToMove(mv pgn.Mv) move.Move {
	m := move.Move{From: move.Square(mv.From), To: move.Square(mv.To)}
	switch mv.Promo {
	case pgn.PromoQueen:
		m.Promo = 'q'
	case pgn.PromoRook:
		m.Promo = 'r'
	case pgn.PromoBishop:
		m.Promo = 'b'
	case pgn.PromoKnight:
		m.Promo = 'n'
	}
	return m
}

// mvToSAN converts a move to SAN notation
func mvToSAN(pos *pgn.GameState, mv pgn.Mv) string {
	// Castling
	if mv.Flags == 4 {
		if mv.To > mv.From {
			return "O-O" + checkSuffix(pos, mv)
		}
		return "O-O-O" + checkSuffix(pos, mv)
	}

	fromSq := int(mv.From)
	toSq := int(mv.To)
	fromFile := fromSq % 8
	toFile := toSq % 8
	toRank := toSq / 8

	files := "abcdefgh"
	ranks := "12345678"

	// 'P', 'N', 'B', 'R', 'Q', 'K' for white, lowercase for black
	piece := pos.PieceAt(mv.From)
	isPawn := piece == 'P' || piece == 'p'
	isCapture := pos.PieceAt(mv.To) != 0 || (isPawn && mv.Flags == 2) // en passant

	var san string

	if isPawn {
		if isCapture {
			san = string(files[fromFile]) + "x" + string(files[toFile]) + string(ranks[toRank])
		} else {
			san = string(files[toFile]) + string(ranks[toRank])
		}
		switch mv.Promo {
		case pgn.PromoQueen:
			san += "=Q"
		case pgn.PromoRook:
			san += "=R"
		case pgn.PromoBishop:
			san += "=B"
		case pgn.PromoKnight:
			san += "=N"
		}
	} else {
		pieceChar := piece
		if piece >= 'a' && piece <= 'z' {
			pieceChar = piece - 32
		}
		san = string(pieceChar)

		// Another piece of the same type reaching the same square needs disambiguation.
		disambig := ""
		for _, other := range pgn.GenerateLegalMoves(pos) {
			if other.To != mv.To || other.From == mv.From {
				continue
			}
			otherPiece := pos.PieceAt(other.From)
			if otherPiece >= 'a' && otherPiece <= 'z' {
				otherPiece -= 32
			}
			if otherPiece != pieceChar {
				continue
			}
			otherFromFile := int(other.From) % 8
			otherFromRank := int(other.From) / 8
			if fromFile != otherFromFile {
				disambig = string(files[fromFile])
			} else if fromSq/8 != otherFromRank {
				disambig = string(ranks[fromSq/8])
			} else {
				disambig = string(files[fromFile]) + string(ranks[fromSq/8])
			}
			break
		}
		san += disambig

		if isCapture {
			san += "x"
		}
		san += string(files[toFile]) + string(ranks[toRank])
	}

	return san + checkSuffix(pos, mv)
}

func checkSuffix(pos *pgn.GameState, mv pgn.Mv) string {
	posCopy := pos.Pack().Unpack()
	if posCopy == nil {
		return ""
	}
	if err := pgn.ApplyMove(posCopy, mv); err != nil {
		return ""
	}
	if !posCopy.IsInCheck() {
		return ""
	}
	if len(pgn.GenerateLegalMoves(posCopy)) == 0 {
		return "#"
	}
	return "+"
}
