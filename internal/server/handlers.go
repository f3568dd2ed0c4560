package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/texmill/texmill"
	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/logfields"
	"github.com/texmill/texmill/internal/report"
	"github.com/texmill/texmill/internal/workspace"
)

// maxRequestBytes caps the decoded request body. Document sources plus
// embedded figures fit comfortably; anything larger is rejected early.
const maxRequestBytes = 64 << 20

// compileRequest is the compile endpoint's wire format. Text files are
// sent verbatim, binary files base64-encoded in a separate map.
type compileRequest struct {
	Main        string            `json:"main"`
	Files       map[string]string `json:"files"`
	BinaryFiles map[string]string `json:"binary_files"`
}

func (req *compileRequest) fileSet() (workspace.FileSet, error) {
	return compile.AssembleFileSet(req.Main, req.Files, req.BinaryFiles)
}

type compileResponse struct {
	Log     string `json:"log"`
	File    string `json:"file"` // base64 artifact, empty when none was produced
	BuildID string `json:"build_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "texmill",
		"version": texmill.Version,
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	files, err := req.fileSet()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A build runs to natural completion once started; a dropped client
	// connection must not kill passes mid-flight.
	ctx := context.WithoutCancel(r.Context())

	res, err := s.engine.Compile(ctx, files)
	switch {
	case errors.Is(err, compile.ErrMissingEntry) || errors.Is(err, workspace.ErrUnsafePath):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Compilation error: "+err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.Save(report.FromResult(res)); err != nil {
			// Record keeping is best effort; the build result still goes out.
			slog.Warn("saving build record failed", logfields.BuildID(res.ID), logfields.Error(err))
		}
	}

	file := ""
	if res.ArtifactProduced() {
		file = base64.StdEncoding.EncodeToString(res.Artifact)
	}
	writeJSON(w, http.StatusOK, compileResponse{Log: res.Log, File: file, BuildID: res.ID})
}

func (s *Server) handleBuildRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "build records not enabled")
		return
	}
	rec, err := s.store.Load(r.PathValue("id"))
	switch {
	case errors.Is(err, report.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// writeJSON encodes v into a buffer first so that a marshalling failure
// never produces a half-written response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encoding response failed", logfields.Error(err))
		http.Error(w, `{"detail":"internal encoding error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("writing response failed", logfields.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
