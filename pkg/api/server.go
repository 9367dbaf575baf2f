// Package api implements the REST surface the API node exposes:
// namespace/project CRUD, the versioned blob protocol for manifest,
// catalogs, catalog-schema and app content, the build dispatch path,
// node listing/control, and the local admin shutdown endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/build"
	"github.com/pipebase/pipebuilder-sub000/pkg/content"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

// Server holds every dependency the handlers need and exposes the
// assembled router via Router().
type Server struct {
	reg     *registry.Client
	store   content.Store
	build   *build.Coordinator
	log     *zap.Logger
	auth    AuthHook
	onAdmin func()
}

// Options configures a Server; OnShutdown is invoked by the
// /admin/shutdown handler after it has written its response.
type Options struct {
	Registry   *registry.Client
	Store      content.Store
	Build      *build.Coordinator
	Log        *zap.Logger
	Auth       AuthHook
	OnShutdown func()
}

func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		reg:     opts.Registry,
		store:   opts.Store,
		build:   opts.Build,
		log:     log,
		auth:    opts.Auth,
		onAdmin: opts.OnShutdown,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log))
	r.Use(requestLogger(s.log))
	r.Use(metrics)
	r.Use(authMiddleware(s.auth))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		s.mountNamespace(r)
		s.mountProject(r)
		s.mountBlob(r, "/manifest", manifestKind)
		s.mountBlob(r, "/catalogs", catalogsKind)
		s.mountBlob(r, "/catalog-schema", catalogSchemaKind)
		s.mountBlob(r, "/app", appKind)
		s.mountBuild(r)
		s.mountNode(r)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Post("/shutdown", s.handleAdminShutdown)
	})
	return r
}
