package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/freeeve/uci"

	"github.com/freeeve/chesscoach/internal/move"
)

// UCIProvider runs a local UCI engine binary. Each attempt starts its own
// engine process so concurrent calls share nothing.
type UCIProvider struct {
	cfg ProviderConfig
}

// NewUCIProvider creates the adapter. Defaults: 30s timeout, depth 30, 5 lines,
// 1 thread, 128MB hash.
func NewUCIProvider(cfg ProviderConfig) *UCIProvider {
	cfg = cfg.withDefaults("uci", 30*time.Second, 30, 5)
	if cfg.Threads == 0 {
		cfg.Threads = 1
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = 128
	}
	return &UCIProvider{cfg: cfg}
}

func (p *UCIProvider) Name() string { return p.cfg.Name }

type uciOutcome struct {
	results *uci.Results
	err     error
}

func (p *UCIProvider) Query(ctx context.Context, req Request) (*Result, error) {
	if p.cfg.EnginePath == "" {
		return nil, providerErr(p.cfg.Name, KindEngine, fmt.Errorf("engine path not configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	depth := p.cfg.clampDepth(req.Depth)
	want := p.cfg.clampLines(req.Lines)

	eng, err := uci.NewEngine(p.cfg.EnginePath)
	if err != nil {
		return nil, providerErr(p.cfg.Name, KindEngine, fmt.Errorf("start engine: %w", err))
	}

	// Setup stays on this goroutine; the search goroutine only sends "go"
	// and then reads, and it is drained before returning.
	opts := uci.Options{
		Hash:    p.cfg.HashMB,
		Threads: p.cfg.Threads,
		MultiPV: want,
		Ponder:  false,
		OwnBook: false,
	}
	if err := eng.SetOptions(opts); err != nil {
		eng.Close()
		return nil, providerErr(p.cfg.Name, KindEngine, fmt.Errorf("set options: %w", err))
	}
	if err := eng.SetFEN(req.Position); err != nil {
		eng.Close()
		return nil, providerErr(p.cfg.Name, KindEngine, fmt.Errorf("set FEN: %w", err))
	}

	done := make(chan uciOutcome, 1)
	go func() {
		res, err := eng.GoDepth(depth, uci.HighestDepthOnly)
		done <- uciOutcome{results: res, err: err}
	}()

	var out uciOutcome
	select {
	case <-ctx.Done():
		// Close kills the process, which ends the search's read with an error.
		eng.Close()
		<-done
		return nil, requestErr(ctx, p.cfg.Name, ctx.Err())
	case out = <-done:
		eng.Close()
	}
	if out.err != nil {
		return nil, providerErr(p.cfg.Name, KindEngine, out.err)
	}

	lines, resultDepth := uciLines(out.results, req.Position, p.cfg.Perspective)
	if len(lines) == 0 && out.results != nil {
		if mv := move.Sanitize(out.results.BestMove); mv != "" {
			lines = []Line{{Rank: 1, Move: mv, Score: Neutral}}
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

// uciLines keeps the deepest result per multipv slot.
func uciLines(res *uci.Results, fen string, perspective Perspective) ([]Line, int) {
	if res == nil {
		return nil, 0
	}
	best := make(map[int]uci.ScoreResult)
	for _, r := range res.Results {
		slot := r.MultiPV
		if slot < 1 {
			slot = 1
		}
		if cur, ok := best[slot]; !ok || r.Depth > cur.Depth {
			best[slot] = r
		}
	}

	lines := make([]Line, 0, len(best))
	maxDepth := 0
	for slot, r := range best {
		if len(r.BestMoves) == 0 {
			continue
		}
		mv := move.Sanitize(r.BestMoves[0])
		if mv == "" {
			continue
		}
		score := Centipawns(float64(r.Score))
		if r.Mate {
			score = MateIn(r.Score)
		}
		lines = append(lines, Line{
			Rank:  slot,
			Move:  mv,
			Score: orient(score, perspective, fen),
			PV:    r.BestMoves,
		})
		if r.Depth > maxDepth {
			maxDepth = r.Depth
		}
	}
	return lines, maxDepth
}
