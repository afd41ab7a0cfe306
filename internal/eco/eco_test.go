package eco_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/chesscoach/internal/eco"
)

const sample = "eco\tname\tpgn\n" +
	"B00\tKing's Pawn Game\t1. e4\n" +
	"C50\tItalian Game\t1. e4 e5 2. Nf3 Nc6 3. Bc4\n" +
	"A00\tBroken\t1. e4 e4\n" +
	"short line\n"

func TestLoadAndLookup(t *testing.T) {
	db := eco.NewDatabase()
	require.NoError(t, db.Load(strings.NewReader(sample)))
	assert.Equal(t, 2, db.Count())

	o := db.Lookup("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.NotNil(t, o)
	assert.Equal(t, "B00", o.ECO)

	o = db.Lookup("r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3")
	require.NotNil(t, o)
	assert.Equal(t, "Italian Game", o.Name)

	assert.Nil(t, db.Lookup("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"))
	assert.Nil(t, db.Lookup("nonsense"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tsv"), []byte(sample), 0o644))

	db := eco.NewDatabase()
	require.NoError(t, db.LoadDir(dir))
	assert.Equal(t, 2, db.Count())

	assert.Error(t, eco.NewDatabase().LoadDir(t.TempDir()))
	assert.Error(t, eco.NewDatabase().LoadFile(filepath.Join(dir, "missing.tsv")))
}
