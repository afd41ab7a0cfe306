package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScoreKind distinguishes centipawn evaluations from forced mates.
type ScoreKind string

const (
	KindCentipawn ScoreKind = "centipawn"
	KindMate      ScoreKind = "mate"
)

// Score is a normalized evaluation. For KindMate, Value is the signed number
// of moves to mate (positive: the side to move mates).
type Score struct {
	Kind  ScoreKind `json:"kind"`
	Value int       `json:"value"`
}

// Neutral is the score used when a provider gives no usable evaluation.
var Neutral = Score{Kind: KindCentipawn, Value: 0}

func (s Score) String() string {
	if s.Kind == KindMate {
		return fmt.Sprintf("#%d", s.Value)
	}
	return fmt.Sprintf("%+.2f", float64(s.Value)/100)
}

// IsMate reports whether the score is a forced mate.
func (s Score) IsMate() bool {
	return s.Kind == KindMate
}

// Negate flips the point of view.
func (s Score) Negate() Score {
	return Score{Kind: s.Kind, Value: -s.Value}
}

// Unit is the unit of a bare numeric score.
type Unit int

const (
	UnitCentipawns Unit = iota
	UnitPawns
)

// Centipawns rounds v to the nearest centipawn.
func Centipawns(v float64) Score {
	return Score{Kind: KindCentipawn, Value: roundInt(v)}
}

// Pawns converts a decimal pawn value to centipawns.
func Pawns(v float64) Score {
	return Score{Kind: KindCentipawn, Value: roundInt(v * 100)}
}

// MateIn returns a mate score.
func MateIn(n int) Score {
	return Score{Kind: KindMate, Value: n}
}

func fromNumber(v float64, unit Unit) Score {
	if unit == UnitPawns {
		return Pawns(v)
	}
	return Centipawns(v)
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// ParseScore normalizes textual scores: "mate 3", "#-2", "cp 35", "CP -12.5",
// or a bare number in unit. Anything unparseable becomes Neutral.
func ParseScore(s string, unit Unit) Score {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return Neutral
	}

	if i := strings.Index(t, "mate"); i >= 0 {
		n, ok := parseInt(t[i+len("mate"):])
		if !ok {
			return Neutral
		}
		return MateIn(n)
	}
	if strings.HasPrefix(t, "#") {
		n, ok := parseInt(t[1:])
		if !ok {
			return Neutral
		}
		return MateIn(n)
	}
	if i := strings.Index(t, "cp"); i >= 0 {
		v, ok := parseFloat(t[i+len("cp"):])
		if !ok {
			return Neutral
		}
		return Centipawns(v)
	}

	v, ok := parseFloat(t)
	if !ok {
		return Neutral
	}
	return fromNumber(v, unit)
}

// NormalizeScore decodes a JSON score that may be a number, a string or null.
func NormalizeScore(raw json.RawMessage, unit Unit) Score {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Neutral
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Neutral
		}
		return ParseScore(s, unit)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return Neutral
	}
	return fromNumber(v, unit)
}

// mateScore decodes a mate distance sent as a number or as text such as
// "3", "-2", "mate 3" or "#3". ok is false when the field is absent or
// unreadable, so callers can fall back to the evaluation.
func mateScore(raw json.RawMessage) (Score, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Neutral, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Neutral, false
		}
		t := strings.ToLower(strings.TrimSpace(s))
		if i := strings.Index(t, "mate"); i >= 0 {
			t = t[i+len("mate"):]
		}
		n, ok := parseInt(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if !ok {
			return Neutral, false
		}
		return MateIn(n), true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || v != math.Trunc(v) {
		return Neutral, false
	}
	return MateIn(int(v)), true
}

// parseInt reads the first signed integer token, tolerating ":" and "in".
func parseInt(s string) (int, bool) {
	tok := firstToken(s)
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	tok := firstToken(s)
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func firstToken(s string) string {
	for _, f := range strings.Fields(strings.NewReplacer(":", " ", "=", " ").Replace(s)) {
		if f == "in" {
			continue
		}
		return strings.TrimPrefix(f, "+")
	}
	return ""
}
