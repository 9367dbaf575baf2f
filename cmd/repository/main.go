// The Repository node serves raw blob bytes over its internal address:
// cmd/api's own content.Store is pointed at the same on-disk root for
// a single-host deployment, and this surface exists for direct
// fetch/debug access to that same store from elsewhere in the cluster.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/cmdutil"
	"github.com/pipebase/pipebuilder-sub000/pkg/content"
	"github.com/pipebase/pipebuilder-sub000/pkg/pbconfig"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

func main() {
	root := cmdutil.NewRootCommand("pipebuilder-repository", apis.NodeRoleRepository, serve)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *pbconfig.Config, log *zap.Logger) error {
	reg, err := cmdutil.NewRegistryClient(cfg, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	svc := cmdutil.NewNodeService(cfg, reg, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	store := content.NewFSStore(cfg.ContentRoot)

	mux := http.NewServeMux()
	mux.Handle("/internal/v1/node/", svc.ControlRouter())
	mux.Handle("/internal/v1/blob/", http.StripPrefix("/internal/v1/blob", blobRouter(store)))

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ListenPort), Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", zap.Error(err))
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HeartbeatPeriod)
	defer cancel()
	_ = httpSrv.Shutdown(closeCtx)
	return svc.Shutdown(closeCtx)
}

// blobRouter exposes raw GET by (kind, namespace, id, version); it has
// no metadata/snapshot bookkeeping of its own -- that lives in the
// registry, reached only from cmd/api.
func blobRouter(store content.Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		kind := apis.ContentKind(q.Get("kind"))
		if !kind.Valid() {
			http.Error(w, "invalid kind", http.StatusBadRequest)
			return
		}
		version, err := strconv.ParseUint(q.Get("version"), 10, 64)
		if err != nil {
			http.Error(w, "invalid version", http.StatusBadRequest)
			return
		}
		rc, err := store.Get(req.Context(), kind, q.Get("namespace"), q.Get("id"), version)
		if err != nil {
			http.Error(w, err.Error(), pberrors.HTTPStatus(err))
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
	return r
}
