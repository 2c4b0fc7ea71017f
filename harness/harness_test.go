package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "without preprocessor",
			opts: Options{
				HostType:   "d8",
				HostPath:   "binpath/v8",
				Test262Dir: filepath.Join(cwd, "test262"),
				HostArgs:   "--harmony",
			},
			want: []string{
				"--t=8",
				"--reporter=json",
				"--hostType=d8",
				"--hostPath=binpath/v8",
				"--test262Dir=test262",
				"--hostArgs=--harmony",
				"--reporter-keys=relative,scenario,result,rawResult,attrs.features",
				"--",
				"test262/test/**/*",
			},
		},
		{
			name: "with preprocessor and threads",
			opts: Options{
				Threads:      2,
				HostType:     "xs",
				HostPath:     "binpath/xs",
				Preprocessor: "preprocessors/xs.js",
				Test262Dir:   filepath.Join(cwd, "t"),
			},
			want: []string{
				"--t=2",
				"--reporter=json",
				"--hostType=xs",
				"--hostPath=binpath/xs",
				"--test262Dir=t",
				"--hostArgs=",
				"--preprocessor=preprocessors/xs.js",
				"--reporter-keys=relative,scenario,result,rawResult,attrs.features",
				"--",
				"t/test/**/*",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, BuildArgs(tt.opts))
		})
	}
}

func TestResolvePreprocessor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xs.js"), []byte("module.exports = x => x;"), 0644))

	got := ResolvePreprocessor(Options{HostType: "xs", PreprocessorDir: dir})
	require.Equal(t, filepath.Join(dir, "xs.js"), got.Preprocessor)

	got = ResolvePreprocessor(Options{HostType: "d8", PreprocessorDir: dir})
	require.Empty(t, got.Preprocessor)

	got = ResolvePreprocessor(Options{HostType: "xs", PreprocessorDir: dir, Preprocessor: "custom.js"})
	require.Equal(t, "custom.js", got.Preprocessor)
}

func TestCommandLine(t *testing.T) {
	got := CommandLine("./node_modules/.bin/test262-harness", []string{"--hostArgs=--foo bar", "--", "test262/test/**/*"})
	require.Equal(t, `./node_modules/.bin/test262-harness '--hostArgs=--foo bar' -- 'test262/test/**/*'`, got)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "harness.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestRunner_Run(t *testing.T) {
	script := writeScript(t, `echo '['
echo '{"relative":"a.js","result":{"pass":true}}'
echo ']'
echo 'diagnostics' >&2
exit 1
`)

	var stdout, stderr bytes.Buffer
	r := New(zerolog.Nop())
	r.Stderr = &stderr

	err := r.Run(context.Background(), Options{Binary: script, HostType: "d8", Test262Dir: t.TempDir()}, &stdout)
	require.NoError(t, err)
	require.Equal(t, "[\n{\"relative\":\"a.js\",\"result\":{\"pass\":true}}\n]\n", stdout.String())
	require.Equal(t, "diagnostics\n", stderr.String())
}

func TestRunner_RunMissingBinary(t *testing.T) {
	r := New(zerolog.Nop())
	err := r.Run(context.Background(), Options{Binary: filepath.Join(t.TempDir(), "missing")}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestProgressWriter(t *testing.T) {
	var out bytes.Buffer
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	clock := time.Unix(0, 0)
	p := newProgressWriter(logger, &out, time.Second)
	p.now = func() time.Time { return clock }
	p.start, p.last = clock, clock

	_, err := p.Write([]byte("abc"))
	require.NoError(t, err)
	require.Empty(t, logs.String())

	clock = clock.Add(2 * time.Second)
	_, err = p.Write([]byte("de"))
	require.NoError(t, err)
	require.Contains(t, logs.String(), `"transferred":5`)
	require.Equal(t, int64(0), p.delta)
	require.Equal(t, "abcde", out.String())
}
