package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestParse(t *testing.T) {
	pos, err := Parse(startFEN)
	require.NoError(t, err)
	assert.False(t, pos.BlackToMove())
	assert.Len(t, pos.LegalMoves(), 20)
	assert.Contains(t, pos.LegalMoves(), "e2e4")

	_, err = Parse("")
	assert.Error(t, err)
	_, err = Parse("not a fen")
	assert.Error(t, err)
}

func TestPlayLeavesParentUntouched(t *testing.T) {
	pos := Start()
	child, san, err := pos.Play("e2e4")
	require.NoError(t, err)
	assert.Equal(t, "e4", san)
	assert.True(t, child.BlackToMove())
	assert.False(t, pos.BlackToMove())
	assert.Len(t, pos.LegalMoves(), 20)

	_, _, err = pos.Play("e2e5")
	assert.Error(t, err)
	_, _, err = pos.Play("junk")
	assert.Error(t, err)
}

func TestSAN(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		uci  string
		want string
	}{
		{"pawn push", startFEN, "e2e4", "e4"},
		{"knight", startFEN, "g1f3", "Nf3"},
		{"illegal", startFEN, "e1e2", ""},
		{"disambiguation", "4k3/8/8/8/8/8/8/1N2KN2 w - - 0 1", "b1d2", "Nbd2"},
		{"capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", "exd5"},
		{"promotion", "8/4P3/8/8/8/8/k7/4K3 w - - 0 1", "e7e8q", "e8=Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := Parse(tt.fen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pos.SAN(tt.uci))
		})
	}
}

func TestLineSANAndMate(t *testing.T) {
	pos := Start()
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, pos.LineSAN([]string{"e2e4", "e7e5", "g1f3", "a1a8", "d7d6"}))

	line := pos.LineSAN([]string{"f2f3", "e7e5", "g2g4", "d8h4"})
	require.Len(t, line, 4)
	assert.Equal(t, "Qh4#", line[3])

	cur := pos
	for _, uci := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		next, _, err := cur.Play(uci)
		require.NoError(t, err)
		cur = next
	}
	assert.True(t, cur.IsCheckmate())
	assert.False(t, pos.IsCheckmate())
}

func TestFind(t *testing.T) {
	pos := Start()
	_, ok := pos.Find("E2E4")
	assert.True(t, ok)
	_, ok = pos.Find("e2e5")
	assert.False(t, ok)
}

func TestFindMatchesPromotionPiece(t *testing.T) {
	pos, err := Parse("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	require.NoError(t, err)

	q, ok := pos.Find("e7e8q")
	require.True(t, ok)
	n, ok := pos.Find("e7e8N")
	require.True(t, ok)
	assert.NotEqual(t, q.Promo, n.Promo)

	_, ok = pos.Find("e7e8")
	assert.False(t, ok)
	_, ok = pos.Find("e7e8k")
	assert.False(t, ok)
}

func TestLegalMovesAreFindable(t *testing.T) {
	for _, fen := range []string{startFEN, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "8/4P3/8/8/8/8/k7/4K3 w - - 0 1"} {
		pos, err := Parse(fen)
		require.NoError(t, err)
		for _, uci := range pos.LegalMoves() {
			mv, ok := pos.Find(uci)
			require.True(t, ok, uci)
			assert.Equal(t, uci, mvToMove(mv).String())
		}
	}
}
