package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

func (s *Server) mountProject(r chi.Router) {
	r.Route("/project", func(r chi.Router) {
		r.Post("/", s.handleCreateProject)
		r.Get("/", s.handleListProject)
		r.Delete("/", s.handleDeleteProject)
	})
}

type projectRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Namespace == "" || req.ID == "" {
		writeError(w, pberrors.InvalidRequestf("api: namespace and id are required"))
		return
	}
	if _, err := registry.GetResource[apis.Namespace](r.Context(), s.reg, registry.NamespaceKey(req.Namespace), 0); err != nil {
		writeError(w, err)
		return
	}
	err := registry.UpdateDefaultResource(r.Context(), s.reg, registry.ProjectKey(req.Namespace, req.ID), 0, func() apis.Project {
		return apis.Project{Namespace: req.Namespace, ID: req.ID, Created: nowUTC()}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]string{"namespace": req.Namespace, "id": req.ID})
}

func (s *Server) handleListProject(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		writeError(w, pberrors.InvalidRequestf("api: namespace query parameter is required"))
		return
	}
	items, err := registry.ListResource[apis.Project](r.Context(), s.reg, registry.ProjectPrefix(namespace))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]apis.Project, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value)
	}
	writeOK(w, out)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	for _, prefix := range registry.ProjectBlobPrefixes(req.Namespace, req.ID) {
		exists, err := registry.ResourceExists(r.Context(), s.reg, prefix)
		if err != nil {
			writeError(w, err)
			return
		}
		if exists {
			writeError(w, pberrors.InvalidRequestf("api: project %s/%s still has versioned content under %q", req.Namespace, req.ID, prefix))
			return
		}
	}
	if err := registry.DeleteResource(r.Context(), s.reg, registry.ProjectKey(req.Namespace, req.ID), false); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]string{"namespace": req.Namespace, "id": req.ID})
}
