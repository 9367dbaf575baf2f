package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

func (s *Server) mountNamespace(r chi.Router) {
	r.Route("/namespace", func(r chi.Router) {
		r.Post("/", s.handleCreateNamespace)
		r.Get("/", s.handleListNamespace)
		r.Delete("/", s.handleDeleteNamespace)
	})
}

type namespaceRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateNamespace(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, pberrors.InvalidRequestf("api: namespace id is required"))
		return
	}
	err := registry.UpdateDefaultResource(r.Context(), s.reg, registry.NamespaceKey(req.ID), 0, func() apis.Namespace {
		return apis.Namespace{ID: req.ID, Created: nowUTC()}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]string{"id": req.ID})
}

func (s *Server) handleListNamespace(w http.ResponseWriter, r *http.Request) {
	items, err := registry.ListResource[apis.Namespace](r.Context(), s.reg, registry.NamespacePrefix())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]apis.Namespace, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value)
	}
	writeOK(w, out)
}

func (s *Server) handleDeleteNamespace(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	exists, err := registry.ResourceExists(r.Context(), s.reg, registry.ProjectPrefix(req.ID))
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, pberrors.InvalidRequestf("api: namespace %q still has projects", req.ID))
		return
	}
	if err := registry.DeleteResource(r.Context(), s.reg, registry.NamespaceKey(req.ID), false); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]string{"id": req.ID})
}
