// Package move parses and normalizes coordinate moves ("e2e4", "e7e8q")
// as providers and clients send them.
package move

import "fmt"

// Square is a board index, a1=0 through h8=63.
type Square int

// ParseSquare parses a square name such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("bad square %q", s)
	}
	file, rank := int(s[0])-'a', int(s[1])-'1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, fmt.Errorf("bad square %q", s)
	}
	return Square(rank*8 + file), nil
}

func (sq Square) File() int { return int(sq) % 8 }
func (sq Square) Rank() int { return int(sq) / 8 }

func (sq Square) String() string {
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// Move is a coordinate move. Promo is one of 'q', 'r', 'b', 'n' or 0.
// Moves are comparable, so two spellings of the same move are ==.
type Move struct {
	From  Square
	To    Square
	Promo byte
}

// Parse reads a coordinate move. The promotion letter may be upper case.
func Parse(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("bad coordinate move length: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("from square in %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("to square in %q: %w", s, err)
	}
	if from == to {
		return Move{}, fmt.Errorf("null move: %q", s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch p := s[4] | 0x20; p {
		case 'q', 'r', 'b', 'n':
			m.Promo = p
		default:
			return Move{}, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}
	return m, nil
}

// String renders the move in lower-case coordinate notation.
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promo != 0 {
		s += string(m.Promo)
	}
	return s
}
