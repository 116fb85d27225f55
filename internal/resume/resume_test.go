package resume

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobflow/internal/faults"
)

func TestFileMIMEType(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "/tmp/cv.pdf", want: MIMEPDF},
		{path: "/tmp/CV.PDF", want: MIMEPDF},
		{path: "cv.docx", want: MIMEDOCX},
		{path: "cv.txt.exe", wantErr: true},
		{path: "cv.doc", wantErr: true},
		{path: "cv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := NewFile(afero.NewMemMapFs(), tt.path).MIMEType()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, faults.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileReadAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cv.pdf", []byte("resume bytes"), 0o644))

	f := NewFile(fs, "/cv.pdf")
	assert.Equal(t, "cv.pdf", f.Name())

	data, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "resume bytes", string(data))
}

func TestFileReadAllMissing(t *testing.T) {
	_, err := NewFile(afero.NewMemMapFs(), "/absent.pdf").ReadAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.IO)
}

func TestFileAccessPropagatesCallbackError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cv.pdf", []byte("x"), 0o644))

	sentinel := errors.New("callback failed")
	err := NewFile(fs, "/cv.pdf").Access(func(io.Reader) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestZeroFile(t *testing.T) {
	var f File
	assert.True(t, f.IsZero())
	_, err := f.ReadAll()
	assert.ErrorIs(t, err, faults.IO)
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      float64
		score    int
		adjusted bool
	}{
		{name: "in range", raw: 87, score: 87},
		{name: "lower bound", raw: 0, score: 0},
		{name: "upper bound", raw: 100, score: 100},
		{name: "above range", raw: 140, score: 100, adjusted: true},
		{name: "below range", raw: -3, score: 0, adjusted: true},
		{name: "fraction", raw: 72.6, score: 73, adjusted: true},
		{name: "nan", raw: math.NaN(), score: 0, adjusted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, adjusted := NormalizeScore(tt.raw)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.adjusted, adjusted)
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{name: "json number", in: json.Number("87"), want: 87},
		{name: "float", in: 0.5, want: 0.5},
		{name: "int", in: 12, want: 12},
		{name: "numeric string", in: " 64 ", want: 64},
		{name: "percent string", in: "91%", want: 91},
		{name: "missing", in: nil, wantErr: true},
		{name: "word", in: "high", wantErr: true},
		{name: "bool", in: true, wantErr: true},
		{name: "object", in: map[string]any{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScore(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMatchPreservesSuggestionOrder(t *testing.T) {
	suggestions := []string{"first", "second", "third"}
	m := NewMatch(150, "ok", suggestions)

	suggestions[0] = "mutated"

	assert.Equal(t, 100, m.Score)
	assert.True(t, m.Adjusted)
	assert.Equal(t, float64(150), m.RawScore)
	assert.Equal(t, []string{"first", "second", "third"}, m.Suggestions)

	clone := m.Clone()
	clone.Suggestions[1] = "changed"
	assert.Equal(t, "second", m.Suggestions[1])
}

func TestCompanyResearchSections(t *testing.T) {
	r := &CompanyResearch{CompanyOverview: "Acme builds rockets", KeyProducts: "Rockets"}
	sections := r.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "Company overview", sections[0][0])
	assert.Equal(t, "Key products", sections[1][0])

	var nilResearch *CompanyResearch
	assert.Nil(t, nilResearch.Sections())
}

func TestDecodeFields(t *testing.T) {
	type fields struct {
		Justification string   `json:"justification"`
		Suggestions   []string `json:"suggestions"`
	}

	t.Run("accepts strings and nulls", func(t *testing.T) {
		var got fields
		err := DecodeFields(map[string]any{
			"justification": nil,
			"suggestions":   []any{"a", "b"},
			"unknown":       json.Number("1"),
		}, &got)
		require.NoError(t, err)
		assert.Equal(t, fields{Suggestions: []string{"a", "b"}}, got)
	})

	tests := map[string]map[string]any{
		"number as string":  {"justification": json.Number("5")},
		"numbers in list":   {"suggestions": []any{json.Number("1"), json.Number("2")}},
		"null in list":      {"suggestions": []any{nil, "a"}},
		"object in list":    {"suggestions": []any{map[string]any{"text": "x"}}},
		"string for a list": {"suggestions": "do better"},
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			var got fields
			assert.Error(t, DecodeFields(src, &got))
		})
	}
}
