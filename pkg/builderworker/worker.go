// Package builderworker implements the Builder node's own side of the
// dispatch protocol pkg/builderclient talks to: accept a build,
// accept a cancel, and serve the running job's log. PipeBuilder itself
// never compiles anything -- the worker records the phases an actual
// build executor would drive through BuildStatus and appends to an
// in-memory log a real implementation would stream from the build
// process's stdout/stderr.
package builderworker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

type jobKey struct {
	namespace string
	id        string
	version   uint64
}

type job struct {
	status apis.BuildStatus
	log    bytes.Buffer
}

// Worker tracks every build this node has accepted, keyed by
// (namespace, id, version).
type Worker struct {
	mu   sync.Mutex
	jobs map[jobKey]*job
	log  *zap.Logger
}

func New(log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{jobs: map[jobKey]*job{}, log: log}
}

// Router mounts the endpoints builderclient.Client dials once a build
// has been scheduled onto this node.
func (w *Worker) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/internal/v1/build", func(r chi.Router) {
		r.Post("/", w.handleBuild)
		r.Post("/cancel", w.handleCancel)
		r.Get("/log", w.handleLog)
	})
	return r
}

type buildRequest struct {
	Namespace       string              `json:"namespace"`
	ID              string              `json:"id"`
	Version         uint64              `json:"version"`
	ManifestVersion uint64              `json:"manifest_version"`
	TargetPlatform  apis.TargetPlatform `json:"target_platform"`
}

func (w *Worker) handleBuild(rw http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(rw, err)
		return
	}
	key := jobKey{req.Namespace, req.ID, req.Version}
	j := &job{status: apis.BuildStatusCreate}
	fmt.Fprintf(&j.log, "%s accepted build %s/%s version %d for manifest version %d, target %s\n",
		time.Now().UTC().Format(time.RFC3339), req.Namespace, req.ID, req.Version, req.ManifestVersion, req.TargetPlatform)

	w.mu.Lock()
	w.jobs[key] = j
	w.mu.Unlock()

	w.log.Info("build accepted", zap.String("namespace", req.Namespace), zap.String("id", req.ID), zap.Uint64("version", req.Version))
	writeJSON(rw, http.StatusOK, map[string]bool{"accepted": true})
}

type cancelRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
	Version   uint64 `json:"version"`
}

func (w *Worker) handleCancel(rw http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(rw, err)
		return
	}
	key := jobKey{req.Namespace, req.ID, req.Version}
	w.mu.Lock()
	j, ok := w.jobs[key]
	if ok {
		j.status = apis.BuildStatusCancel
		fmt.Fprintf(&j.log, "%s build cancelled\n", time.Now().UTC().Format(time.RFC3339))
	}
	w.mu.Unlock()
	if !ok {
		writeError(rw, pberrors.NotFoundf("builderworker: no job %s/%s/%d", req.Namespace, req.ID, req.Version))
		return
	}
	writeJSON(rw, http.StatusOK, map[string]bool{"cancelled": true})
}

func (w *Worker) handleLog(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := jobKey{namespace: q.Get("namespace"), id: q.Get("id")}
	var err error
	key.version, err = parseVersion(q.Get("version"))
	if err != nil {
		writeError(rw, err)
		return
	}

	w.mu.Lock()
	j, ok := w.jobs[key]
	var contents []byte
	if ok {
		contents = j.log.Bytes()
	}
	w.mu.Unlock()
	if !ok {
		writeError(rw, pberrors.NotFoundf("builderworker: no job %s/%s/%d", key.namespace, key.id, key.version))
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	_, _ = io.Copy(rw, bytes.NewReader(contents))
}

// RecordTransition is how a real build executor would report a phase
// change; the stub worker exposes it so tests (and a future real
// executor) can drive status without a second RPC surface.
func (w *Worker) RecordTransition(ctx context.Context, namespace, id string, version uint64, status apis.BuildStatus, message string) error {
	key := jobKey{namespace, id, version}
	w.mu.Lock()
	defer w.mu.Unlock()
	j, ok := w.jobs[key]
	if !ok {
		return pberrors.NotFoundf("builderworker: no job %s/%s/%d", namespace, id, version)
	}
	j.status = status
	fmt.Fprintf(&j.log, "%s -> %s: %s\n", time.Now().UTC().Format(time.RFC3339), status, message)
	return nil
}
