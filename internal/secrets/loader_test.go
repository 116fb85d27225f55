package secrets

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobflow/internal/faults"
)

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/keys/gemini", []byte("  file-key\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/keys/empty", []byte("\n\t"), 0o600))

	tests := []struct {
		name    string
		src     Source
		want    string
		errKind faults.Kind
	}{
		{name: "inline value", src: Source{Value: " inline "}, want: "inline"},
		{name: "file wins over value", src: Source{Value: "inline", File: "/keys/gemini"}, want: "file-key"},
		{name: "missing", src: Source{Name: "gemini api key"}, errKind: faults.Input},
		{name: "empty file", src: Source{Value: "inline", File: "/keys/empty"}, errKind: faults.Input},
		{name: "unreadable file", src: Source{File: "/keys/nope"}, errKind: faults.IO},
	}

	loader := Loader{Fs: fs}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.Load(tt.src)
			if tt.errKind != faults.Unknown {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.errKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadErrorMentionsName(t *testing.T) {
	_, err := Load(Source{Name: "gemini api key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini api key is not configured")
}
