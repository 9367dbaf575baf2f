package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/catalog"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

// The four versioned content kinds (manifest, catalogs, catalog
// schema, app) share one handler set: put/get/delete the blob, list
// its snapshots, list its metadata. Server.Router mounts this set once
// per kind, supplying only the ContentKind and the route prefix.

const (
	manifestKind      = apis.ContentKindManifest
	catalogsKind      = apis.ContentKindCatalogs
	catalogSchemaKind = apis.ContentKindCatalogSchema
	appKind           = apis.ContentKindApp
)

func (s *Server) mountBlob(r chi.Router, prefix string, kind apis.ContentKind) {
	r.Route(prefix, func(r chi.Router) {
		r.Post("/", s.handlePutBlob(kind))
		r.Get("/", s.handleGetBlob(kind))
		r.Delete("/", s.handleDeleteBlobVersion(kind))
		r.Route("/snapshot", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots(kind))
			r.Delete("/", s.handleDeleteSnapshot(kind))
		})
		r.Get("/metadata", s.handleListMetadata(kind))
	})
}

type putBlobRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
	Buffer    string `json:"buffer"`
}

func (s *Server) handlePutBlob(kind apis.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putBlobRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Namespace == "" || req.ID == "" {
			writeError(w, pberrors.InvalidRequestf("api: namespace and id are required"))
			return
		}
		raw, err := base64.StdEncoding.DecodeString(req.Buffer)
		if err != nil {
			writeError(w, pberrors.Wrap(pberrors.KindInvalidRequest, "api: decode buffer", err))
			return
		}
		if err := s.validateBlob(r.Context(), kind, raw); err != nil {
			writeError(w, err)
			return
		}
		version, _, err := registry.UpdateSnapshotResource(r.Context(), s.reg, kind, req.Namespace, req.ID, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		size, err := s.store.Put(r.Context(), kind, req.Namespace, req.ID, version, bytes.NewReader(raw))
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := registry.UpdateBlobResource(r.Context(), s.reg, kind, req.Namespace, req.ID, version, size, 0); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, map[string]uint64{"version": version})
	}
}

func (s *Server) handleGetBlob(kind apis.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		namespace, id := q.Get("namespace"), q.Get("id")
		version, err := strconv.ParseUint(q.Get("version"), 10, 64)
		if err != nil {
			writeError(w, pberrors.InvalidRequestf("api: invalid version %q", q.Get("version")))
			return
		}
		if _, _, err := s.reg.Get(r.Context(), registry.MetadataKey(kind, namespace, id, version)); err != nil {
			writeError(w, err)
			return
		}
		rc, err := s.store.Get(r.Context(), kind, namespace, id, version)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			writeError(w, pberrors.Wrap(pberrors.KindContentStore, "api: read blob", err))
			return
		}
		if _, err := registry.UpdateBlobResource(r.Context(), s.reg, kind, namespace, id, version, 0, 0); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, map[string]string{"buffer": base64.StdEncoding.EncodeToString(raw)})
	}
}

type deleteBlobRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
	Version   uint64 `json:"version"`
}

func (s *Server) handleDeleteBlobVersion(kind apis.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteBlobRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		key := registry.MetadataKey(kind, req.Namespace, req.ID, req.Version)
		if err := registry.DeleteResource(r.Context(), s.reg, key, false); err != nil {
			writeError(w, err)
			return
		}
		if err := s.store.DeleteVersion(r.Context(), kind, req.Namespace, req.ID, req.Version); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, map[string]uint64{"version": req.Version})
	}
}

func (s *Server) handleListSnapshots(kind apis.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		namespace := r.URL.Query().Get("namespace")
		if namespace == "" {
			writeError(w, pberrors.InvalidRequestf("api: namespace query parameter is required"))
			return
		}
		items, err := registry.ListResource[apis.Snapshot](r.Context(), s.reg, registry.SnapshotPrefix(kind, namespace, ""))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]apis.Snapshot, 0, len(items))
		for _, it := range items {
			out = append(out, it.Value)
		}
		writeOK(w, out)
	}
}

type deleteSnapshotRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

func (s *Server) handleDeleteSnapshot(kind apis.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteSnapshotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		exists, err := registry.ResourceExists(r.Context(), s.reg, registry.MetadataPrefix(kind, req.Namespace, req.ID))
		if err != nil {
			writeError(w, err)
			return
		}
		if exists {
			writeError(w, pberrors.InvalidRequestf("api: %s/%s still has metadata, cannot delete snapshot", req.Namespace, req.ID))
			return
		}
		key := registry.SnapshotKey(kind, req.Namespace, req.ID)
		if err := registry.DeleteResource(r.Context(), s.reg, key, false); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, map[string]string{"namespace": req.Namespace, "id": req.ID})
	}
}

func (s *Server) handleListMetadata(kind apis.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		namespace := r.URL.Query().Get("namespace")
		id := r.URL.Query().Get("id")
		if namespace == "" {
			writeError(w, pberrors.InvalidRequestf("api: namespace query parameter is required"))
			return
		}
		items, err := registry.ListResource[apis.BlobMetadata](r.Context(), s.reg, registry.MetadataPrefix(kind, namespace, id))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]apis.BlobMetadata, 0, len(items))
		for _, it := range items {
			out = append(out, it.Value)
		}
		writeOK(w, out)
	}
}

// validateBlob runs the content-specific validation §4.6 requires
// before a blob is ever written to the store: a catalog schema must
// itself parse as a schema document, and a catalogs manifest's entries
// must have valid, unique names and conform to the catalog schema each
// one references. Manifest and app content are opaque and skip this.
func (s *Server) validateBlob(ctx context.Context, kind apis.ContentKind, raw []byte) error {
	switch kind {
	case catalogSchemaKind:
		_, err := catalog.ParseSchema(raw)
		return err
	case catalogsKind:
		return s.validateCatalogEntries(ctx, raw)
	default:
		return nil
	}
}

func (s *Server) validateCatalogEntries(ctx context.Context, raw []byte) error {
	var entries []catalog.Entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return pberrors.Wrap(pberrors.KindInvalidRequest, "api: decode catalogs entries", err)
	}

	names := catalog.NewNameValidator()
	if err := catalog.Walk(entries, names); err != nil {
		return err
	}
	if err := names.Validate(); err != nil {
		return err
	}

	for _, e := range entries {
		schemaRaw, err := s.fetchLatestBlob(ctx, catalogSchemaKind, e.Schema.Namespace, e.Schema.SchemaID)
		if err != nil {
			return err
		}
		schema, err := catalog.ParseSchema(schemaRaw)
		if err != nil {
			return err
		}
		v := catalog.NewSchemaValidator(schema)
		if err := catalog.Walk([]catalog.Entry{e}, v); err != nil {
			return err
		}
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// fetchLatestBlob reads the current snapshot's latest version of a
// blob, used to resolve the catalog schema a catalogs entry
// references by (namespace, schema_id) rather than by an explicit
// version.
func (s *Server) fetchLatestBlob(ctx context.Context, kind apis.ContentKind, namespace, id string) ([]byte, error) {
	snap, err := registry.GetResource[apis.Snapshot](ctx, s.reg, registry.SnapshotKey(kind, namespace, id), 0)
	if err != nil {
		return nil, err
	}
	rc, err := s.store.Get(ctx, kind, namespace, id, snap.LatestVersion)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
