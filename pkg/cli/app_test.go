package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/brisque/pkg/assets"
	"github.com/mchmarny/brisque/pkg/data"
	"github.com/mchmarny/brisque/pkg/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, engine quality.Engine, args []string, storeOpts ...assets.Option) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"brisque"}, args...),
		strings.NewReader(stdin), &stdout, &stderr, engine, storeOpts...)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

type sizedImage struct{ w, h int }

func (i sizedImage) Size() (int, int) { return i.w, i.h }
func (i sizedImage) Close() error     { return nil }

// staticEngine reads image headers with the standard library and returns res
// for every image.
type staticEngine struct {
	res   quality.Result
	calls *int
}

func newStaticEngine(res quality.Result, calls *int) quality.Engine {
	return &staticEngine{res: res, calls: calls}
}

func (e *staticEngine) Decode(b []byte) (quality.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return sizedImage{w: cfg.Width, h: cfg.Height}, nil
}

func (e *staticEngine) Resize(_ quality.Image, w, h int) (quality.Image, error) {
	return sizedImage{w: w, h: h}, nil
}

func (e *staticEngine) Score(_ context.Context, _ quality.Image, _, _ string) (quality.Result, error) {
	if e.calls != nil {
		*e.calls++
	}
	return e.res, nil
}

func populatedCacheDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, a := range assets.BRISQUE {
		require.NoError(t, os.WriteFile(filepath.Join(dir, a.Name), []byte("%YAML:1.0\n"), 0o644))
	}
	return dir
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < 10; i++ {
		img.Set(i, i, color.White)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func unreachableSources(t *testing.T) (string, assets.Option) {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url, assets.WithSources(
		assets.Asset{Name: assets.ModelFileName, URL: url + "/" + assets.ModelFileName},
		assets.Asset{Name: assets.RangeFileName, URL: url + "/" + assets.RangeFileName},
	)
}

func TestRun_Score(t *testing.T) {
	dir := populatedCacheDir(t)
	res := runCLI(t, pngBase64(t)+"\n", newStaticEngine(quality.Scalar(18.7), nil), []string{"--cache-dir", dir})

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, `{"score": 18.7}`, res.stdout)
	assert.Empty(t, res.stderr)

	var out map[string]float64
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, map[string]float64{"score": 18.7}, out)
}

func TestRun_ScoreNormalization(t *testing.T) {
	dir := populatedCacheDir(t)
	in := pngBase64(t)

	results := []quality.Result{
		quality.Scalar(27.125),
		quality.Sequence(27.125),
		quality.Sequence(27.125, 0, 0, 0),
	}
	for _, r := range results {
		res := runCLI(t, in, newStaticEngine(r, nil), []string{"--cache-dir", dir})
		assert.Equal(t, 0, res.code)
		assert.Equal(t, `{"score": 27.125}`, res.stdout)
	}
}

func TestRun_ScoreYAML(t *testing.T) {
	dir := populatedCacheDir(t)
	res := runCLI(t, pngBase64(t), newStaticEngine(quality.Scalar(3.5), nil), []string{"--cache-dir", dir, "--format", "yaml"})

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "score: 3.5\n", res.stdout)
}

func TestRun_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "  \n\t"} {
		res := runCLI(t, in, newStaticEngine(quality.Scalar(1), nil), []string{"--cache-dir", t.TempDir()})
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "No base64 data on stdin")
		assert.Empty(t, res.stdout)
	}
}

func TestRun_InvalidBase64(t *testing.T) {
	res := runCLI(t, "not-base64!!", newStaticEngine(quality.Scalar(1), nil), []string{"--cache-dir", populatedCacheDir(t)})
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Failed to decode base64")
	assert.Empty(t, res.stdout)
}

func TestRun_WrappedBase64(t *testing.T) {
	in := pngBase64(t)
	var wrapped strings.Builder
	for len(in) > 76 {
		wrapped.WriteString(in[:76] + "\n")
		in = in[76:]
	}
	wrapped.WriteString(in + "\n")

	res := runCLI(t, wrapped.String(), newStaticEngine(quality.Scalar(1), nil), []string{"--cache-dir", populatedCacheDir(t)})
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Failed to decode base64")
	assert.Empty(t, res.stdout)
}

func TestRun_NotAnImage(t *testing.T) {
	in := base64.StdEncoding.EncodeToString([]byte("hello"))
	res := runCLI(t, in, newStaticEngine(quality.Scalar(1), nil), []string{"--cache-dir", populatedCacheDir(t)})
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Could not decode image buffer\n", res.stderr)
	assert.Empty(t, res.stdout)
}

func TestRun_FetchFailure(t *testing.T) {
	url, opt := unreachableSources(t)
	res := runCLI(t, pngBase64(t), newStaticEngine(quality.Scalar(1), nil), []string{"--cache-dir", t.TempDir()}, opt)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "could not fetch")
	assert.Contains(t, res.stderr, url+"/"+assets.ModelFileName)
	assert.Empty(t, res.stdout)
}

func TestRun_ScoreCache(t *testing.T) {
	dir := populatedCacheDir(t)
	dbPath := filepath.Join(t.TempDir(), "scores.db")
	in := pngBase64(t)
	args := []string{"--cache-dir", dir, "--score-cache", dbPath}

	calls := 0
	res := runCLI(t, in, newStaticEngine(quality.Scalar(12.5), &calls), args)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, `{"score": 12.5}`, res.stdout)

	res = runCLI(t, in, newStaticEngine(quality.Scalar(99), &calls), args)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, `{"score": 12.5}`, res.stdout)
	assert.Equal(t, 1, calls)
}

func TestRun_ScoreCacheDir(t *testing.T) {
	dbDir := t.TempDir()
	args := []string{"--cache-dir", populatedCacheDir(t), "--score-cache", dbDir}

	res := runCLI(t, pngBase64(t), newStaticEngine(quality.Scalar(7.5), nil), args)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, `{"score": 7.5}`, res.stdout)
	assert.FileExists(t, filepath.Join(dbDir, data.DataFileName))
}

func TestRun_Assets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%YAML:1.0\n"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), assets.CacheDirName)
	opt := assets.WithSources(
		assets.Asset{Name: assets.ModelFileName, URL: srv.URL + "/" + assets.ModelFileName},
		assets.Asset{Name: assets.RangeFileName, URL: srv.URL + "/" + assets.RangeFileName},
	)

	res := runCLI(t, "", nil, []string{"--cache-dir", dir, "assets"}, opt)
	require.Equal(t, 0, res.code, res.stderr)

	var list []*assets.Status
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &list))
	require.Len(t, list, 2)
	for _, st := range list {
		assert.True(t, st.Present)
		assert.Equal(t, filepath.Join(dir, st.Name), st.Path)
	}
}

func TestRun_AssetsFetchFailure(t *testing.T) {
	url, opt := unreachableSources(t)
	res := runCLI(t, "", nil, []string{"--cache-dir", t.TempDir(), "assets"}, opt)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "could not fetch "+url)
}

func TestWriteScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{42, `{"score": 42.0}`},
		{18.7, `{"score": 18.7}`},
		{-3.25, `{"score": -3.25}`},
		{0, `{"score": 0.0}`},
		{0.0001, `{"score": 0.0001}`},
		{0.00001, `{"score": 1e-05}`},
		{1e16, `{"score": 1e+16}`},
		{123456789012345.6, `{"score": 123456789012345.6}`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeScore(&buf, formatJSON, tt.score))
			assert.Equal(t, tt.want, buf.String())

			var out map[string]float64
			require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
			assert.Equal(t, tt.score, out["score"])
		})
	}
}

func TestWriteScore_NonFinite(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeScore(&buf, formatJSON, math.Inf(1)))
	assert.Empty(t, buf.String())
}

func TestDefaultCacheDir(t *testing.T) {
	assert.Equal(t, assets.CacheDirName, filepath.Base(defaultCacheDir()))
}
