package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/config"
	"github.com/texmill/texmill/internal/metrics"
	"github.com/texmill/texmill/internal/report"
	"github.com/texmill/texmill/internal/runner"
)

// stubRunner returns a fixed result and records what the workspace
// contained at invocation time. When artifact is set, typeset calls
// write it the way the real engine would.
type stubRunner struct {
	output   string
	artifact []byte
	seen     map[string]string
}

func (s *stubRunner) Run(_ context.Context, argv []string, dir string) *runner.Result {
	if s.seen == nil {
		s.seen = map[string]string{}
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		data, _ := os.ReadFile(path)
		s.seen[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if s.artifact != nil && argv[0] != "bibtex" {
		if err := os.WriteFile(filepath.Join(dir, compile.ArtifactName), s.artifact, 0o644); err != nil {
			panic(err)
		}
	}
	return &runner.Result{Outcome: runner.Success, Output: s.output}
}

func newTestServer(t *testing.T, r compile.CommandRunner) *Server {
	t.Helper()
	cfg := &config.Config{}
	store, err := report.NewLRUStore(4, report.NewDiskStoreAt(t.TempDir()))
	require.NoError(t, err)
	rec := metrics.NewPrometheusRecorder(prom.NewRegistry())
	engine := &compile.Engine{Config: cfg, Runner: r, Metrics: rec}
	return New(cfg, engine, store, rec)
}

func postCompile(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "texmill", body["service"])
	assert.NotEmpty(t, body["version"])
}

func TestCompile_ProducesArtifact(t *testing.T) {
	stub := &stubRunner{output: "Output written on main.pdf", artifact: []byte("%PDF-data")}
	s := newTestServer(t, stub)

	w := postCompile(t, s, `{"main": "\\documentclass{article}", "files": {"refs.bib": "@book{k}"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Log, "=== Initial LaTeX compilation ===")
	require.NotEmpty(t, resp.BuildID)

	pdf, err := base64.StdEncoding.DecodeString(resp.File)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-data", string(pdf))

	// Inputs were materialized for the engine run.
	assert.Equal(t, "\\documentclass{article}", stub.seen["main.tex"])
	assert.Equal(t, "@book{k}", stub.seen["refs.bib"])

	// The build record is retrievable afterwards.
	req := httptest.NewRequest(http.MethodGet, "/builds/"+resp.BuildID, nil)
	rw := httptest.NewRecorder()
	s.Handler().ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
	var rec report.BuildRecord
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &rec))
	assert.Equal(t, resp.BuildID, rec.ID)
	assert.Equal(t, "artifact", rec.Outcome)
	assert.Len(t, rec.Passes, 1)
}

func TestCompile_BinaryFiles(t *testing.T) {
	stub := &stubRunner{artifact: []byte("pdf")}
	s := newTestServer(t, stub)

	encoded := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})
	w := postCompile(t, s, `{"main": "\\includegraphics{figures/logo}", "binary_files": {"figures/logo.png": "`+encoded+`"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "\x89PNG", stub.seen["figures/logo.png"])
}

func TestCompile_MissingMain(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	w := postCompile(t, s, `{"files": {"chapter.tex": "no entry point"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "main.tex must be provided", resp.Detail)
}

func TestCompile_InvalidJSON(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	w := postCompile(t, s, `{"main": `)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompile_BadBase64(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	w := postCompile(t, s, `{"main": "x", "binary_files": {"img.png": "not-base64!!"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "img.png")
}

func TestCompile_UnsafePath(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	w := postCompile(t, s, `{"main": "x", "files": {"../escape.tex": "bad"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "escapes")
}

func TestCompile_NoArtifact(t *testing.T) {
	s := newTestServer(t, &stubRunner{output: "! Emergency stop."})
	w := postCompile(t, s, `{"main": "broken"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp compileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.File)
	assert.Contains(t, resp.Log, "=== ERROR: PDF file was not generated ===")
}

func TestBuildRecord_NotFound(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	req := httptest.NewRequest(http.MethodGet, "/builds/unknown-id", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubRunner{artifact: []byte("pdf")})
	postCompile(t, s, `{"main": "x"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "texmill_builds_total")
	assert.Contains(t, w.Body.String(), "texmill_passes_total")
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
