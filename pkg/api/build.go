package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/build"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

func (s *Server) mountBuild(r chi.Router) {
	r.Route("/build", func(r chi.Router) {
		r.Post("/", s.handleCreateBuild)
		r.Get("/metadata", s.handleGetBuildMetadata)
		r.Post("/cancel", s.handleCancelBuild)
		r.Delete("/", s.handleDeleteBuild)
		r.Get("/log", s.handleGetBuildLog)
	})
}

type createBuildRequest struct {
	Namespace       string               `json:"namespace"`
	ID              string               `json:"id"`
	ManifestVersion uint64               `json:"manifest_version"`
	TargetPlatform  *apis.TargetPlatform `json:"target_platform,omitempty"`
}

func (s *Server) handleCreateBuild(w http.ResponseWriter, r *http.Request) {
	var req createBuildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Namespace == "" || req.ID == "" {
		writeError(w, pberrors.InvalidRequestf("api: namespace and id are required"))
		return
	}
	for _, key := range []string{registry.NamespaceKey(req.Namespace), registry.ProjectKey(req.Namespace, req.ID)} {
		if _, _, err := s.reg.Get(r.Context(), key); err != nil {
			if pberrors.KindOf(err) == pberrors.KindNotFound {
				err = pberrors.InvalidRequestf("api: %s not found", key)
			}
			writeError(w, err)
			return
		}
	}
	if req.TargetPlatform != nil && !req.TargetPlatform.Supported() {
		writeError(w, pberrors.InvalidRequestf("api: unsupported target platform %q", *req.TargetPlatform))
		return
	}
	meta, err := s.build.Build(r.Context(), build.Request{
		Namespace:       req.Namespace,
		ID:              req.ID,
		ManifestVersion: req.ManifestVersion,
		TargetPlatform:  req.TargetPlatform,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, meta)
}

func buildCoordinates(r *http.Request) (namespace, id string, version uint64, err error) {
	q := r.URL.Query()
	namespace, id = q.Get("namespace"), q.Get("id")
	if namespace == "" || id == "" {
		return "", "", 0, pberrors.InvalidRequestf("api: namespace and id query parameters are required")
	}
	version, perr := strconv.ParseUint(q.Get("version"), 10, 64)
	if perr != nil {
		return "", "", 0, pberrors.InvalidRequestf("api: invalid version %q", q.Get("version"))
	}
	return namespace, id, version, nil
}

func (s *Server) handleGetBuildMetadata(w http.ResponseWriter, r *http.Request) {
	namespace, id, version, err := buildCoordinates(r)
	if err != nil {
		writeError(w, err)
		return
	}
	meta, err := s.build.GetBuildMetadata(r.Context(), namespace, id, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, meta)
}

type buildVersionRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
	Version   uint64 `json:"version"`
}

func (s *Server) handleCancelBuild(w http.ResponseWriter, r *http.Request) {
	var req buildVersionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.build.CancelBuild(r.Context(), req.Namespace, req.ID, req.Version); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, req)
}

func (s *Server) handleDeleteBuild(w http.ResponseWriter, r *http.Request) {
	var req buildVersionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.build.DeleteBuild(r.Context(), req.Namespace, req.ID, req.Version); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, req)
}

func (s *Server) handleGetBuildLog(w http.ResponseWriter, r *http.Request) {
	namespace, id, version, err := buildCoordinates(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rc, err := s.build.GetBuildLog(r.Context(), namespace, id, version)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
