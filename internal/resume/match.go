package resume

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Match is the outcome of scoring a resume against a job description.
type Match struct {
	Score         int
	Justification string
	// Suggestions are ordered by rank, most important first.
	Suggestions []string
	// RawScore is the score as reported by the provider.
	RawScore float64
	// Adjusted is set when RawScore had to be rounded or clamped into Score.
	Adjusted bool
}

// NewMatch normalizes raw into [MinScore, MaxScore]. Suggestions are copied
// so the caller's slice can be reused.
func NewMatch(raw float64, justification string, suggestions []string) *Match {
	score, adjusted := NormalizeScore(raw)

	copied := make([]string, len(suggestions))
	copy(copied, suggestions)

	return &Match{
		Score:         score,
		Justification: justification,
		Suggestions:   copied,
		RawScore:      raw,
		Adjusted:      adjusted,
	}
}

// Clone returns a deep copy of m.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Suggestions = append([]string(nil), m.Suggestions...)
	return &c
}

// NormalizeScore rounds raw to the nearest integer and clamps it into
// [MinScore, MaxScore]. adjusted reports whether either step changed the value.
// NaN maps to MinScore.
func NormalizeScore(raw float64) (score int, adjusted bool) {
	if math.IsNaN(raw) {
		return MinScore, true
	}

	rounded := math.Round(raw)
	adjusted = rounded != raw

	switch {
	case rounded < MinScore:
		return MinScore, true
	case rounded > MaxScore:
		return MaxScore, true
	}

	return int(rounded), adjusted
}

// ParseScore converts a decoded JSON value into a number. Numbers and numeric
// strings are accepted; anything else is an error.
func ParseScore(v any) (float64, error) {
	var (
		f   float64
		err error
	)

	switch val := v.(type) {
	case json.Number:
		f, err = val.Float64()
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		if trimmed == "" {
			return 0, fmt.Errorf("score is an empty string")
		}
		f, err = strconv.ParseFloat(trimmed, 64)
	case nil:
		return 0, fmt.Errorf("score is missing")
	default:
		return 0, fmt.Errorf("score has unsupported type %T", v)
	}

	if err != nil {
		return 0, fmt.Errorf("score is not a number: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score is not a finite number")
	}

	return f, nil
}
