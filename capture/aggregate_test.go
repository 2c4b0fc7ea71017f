package capture

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/test262-automator/automator/history"
	"github.com/test262-automator/automator/model"
	"github.com/test262-automator/automator/report"
	"github.com/test262-automator/automator/resultstream"
)

func seedCapture(t *testing.T, layout Layout, meta model.RunMetadata, output string) {
	t.Helper()
	require.NoError(t, layout.Ensure())
	require.NoError(t, history.Save(meta, layout.Current(MetaFile(meta)), layout.HistoricPath(MetaFile(meta))))
	require.NoError(t, os.WriteFile(layout.Current(OutputFile(meta)), []byte(output), 0644))
}

func testMeta() model.RunMetadata {
	return model.RunMetadata{
		Name:      "v8",
		Engine:    "v8",
		Version:   "12.1.1",
		Revision:  "deadbeef",
		AllRuns:   []int64{1700000000000},
		TimeStamp: 1700000000000,
	}
}

func TestAggregator_Run(t *testing.T) {
	layout := NewLayout(filepath.Join(t.TempDir(), "capture"), t1)
	meta := testMeta()
	seedCapture(t, layout, meta, sampleOutput)

	var out bytes.Buffer
	agg := NewAggregator(zerolog.Nop(), layout, &out)
	agg.Profiles = true
	require.NoError(t, agg.Run(context.Background()))

	rep, err := LoadReport(layout.Current("parsed-v8.json"))
	require.NoError(t, err)
	require.Equal(t, meta, rep.Host)

	array, ok := report.Lookup(rep.Children, "built-ins/Array")
	require.True(t, ok)
	require.Equal(t, report.Summary{Total: 2, Passing: 1, Failing: 1}, *array.Summary)

	historic, err := os.ReadFile(layout.HistoricPath("parsed-v8.json"))
	require.NoError(t, err)
	current, err := os.ReadFile(layout.Current("parsed-v8.json"))
	require.NoError(t, err)
	require.Equal(t, current, historic)

	f, err := os.Open(layout.Current("profile-v8.pb.gz"))
	require.NoError(t, err)
	defer f.Close()
	prof, err := profile.Parse(f)
	require.NoError(t, err)
	require.Len(t, prof.Sample, 2)

	require.Contains(t, out.String(), "- test/built-ins/: 2 tests run, 1 passing, 1 failing.\n")
}

func TestAggregator_RunFailures(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr error
	}{
		{
			name:    "empty artifact",
			output:  "[\n]\n",
			wantErr: resultstream.ErrNoResults,
		},
		{
			name:   "malformed line",
			output: "[\n" + `{"relative":"built-ins/a.js","result":{"pass":true}}` + "\n,{\"relative\":\n]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := NewLayout(filepath.Join(t.TempDir(), "capture"), t1)
			seedCapture(t, layout, testMeta(), tt.output)

			agg := NewAggregator(zerolog.Nop(), layout, &bytes.Buffer{})
			err := agg.Run(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				var mErr *resultstream.MalformedRecordError
				require.ErrorAs(t, err, &mErr)
				require.Equal(t, 3, mErr.Line)
			}

			_, statErr := os.Stat(layout.Current("parsed-v8.json"))
			require.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestAggregator_MissingDirectory(t *testing.T) {
	layout := NewLayout(filepath.Join(t.TempDir(), "missing"), t1)
	agg := NewAggregator(zerolog.Nop(), layout, &bytes.Buffer{})
	require.ErrorContains(t, agg.Run(context.Background()), "run the capture command first")
}

func TestAggregator_NoMetadata(t *testing.T) {
	dir := t.TempDir()
	agg := NewAggregator(zerolog.Nop(), NewLayout(dir, t1), &bytes.Buffer{})
	require.NoError(t, agg.Run(context.Background()))
}
