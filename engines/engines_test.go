package engines

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r := Default()

	v8, err := r.Lookup("v8")
	require.NoError(t, err)
	require.Equal(t, "d8", v8.HostType)

	xs, err := r.Lookup("xs")
	require.NoError(t, err)
	require.Equal(t, "xs", xs.Binary())
	require.Equal(t, "preprocessors/xs.js", xs.Preprocessor)

	_, err = r.Lookup("nashorn")
	var uErr *UnknownEngineError
	require.ErrorAs(t, err, &uErr)
	require.Contains(t, uErr.Error(), "spidermonkey")
	require.Equal(t, r.Names(), uErr.Supported)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing hostType", doc: "engines:\n  - name: v8\n"},
		{name: "duplicate", doc: "engines:\n  - name: v8\n    hostType: d8\n  - name: v8\n    hostType: d8\n"},
		{name: "not yaml", doc: "engines: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestResolveVersion(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		status  string
		engine  Engine
		want    string
		wantErr bool
	}{
		{
			name:   "flat",
			status: `{"os":"linux64","v8":"12.1.1"}`,
			engine: Engine{Name: "v8", HostType: "d8"},
			want:   "12.1.1",
		},
		{
			name:   "installed with status key",
			status: `{"installed":{"jsc":{"version":"272014"}}}`,
			engine: Engine{Name: "javascriptcore", HostType: "jsc", StatusKey: "jsc"},
			want:   "272014",
		},
		{
			name:    "missing",
			status:  `{"installed":{}}`,
			engine:  Engine{Name: "xs", HostType: "xs"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.status), 0644))

			got, err := ResolveVersion(path, tt.engine)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
