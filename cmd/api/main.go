package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/api"
	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/build"
	"github.com/pipebase/pipebuilder-sub000/pkg/cmdutil"
	"github.com/pipebase/pipebuilder-sub000/pkg/content"
	"github.com/pipebase/pipebuilder-sub000/pkg/pbconfig"
	"github.com/pipebase/pipebuilder-sub000/pkg/scheduler"
)

func main() {
	root := cmdutil.NewRootCommand("pipebuilder-api", apis.NodeRoleAPI, serve)
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

	candidates := scheduler.NewCandidateSet(log)
	if err := candidates.Seed(ctx, reg); err != nil {
		return err
	}
	go candidates.Run(ctx, reg)

	coordinator := build.NewCoordinator(reg, candidates, nil, log)
	store := content.NewFSStore(cfg.ContentRoot)

	shutdownCtx, cancel := context.WithCancel(ctx)
	srv := api.NewServer(api.Options{
		Registry:   reg,
		Store:      store,
		Build:      coordinator,
		Log:        log,
		OnShutdown: cancel,
	})

	mux := http.NewServeMux()
	mux.Handle("/internal/v1/node/", svc.ControlRouter())
	mux.Handle("/", srv.Router())

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ListenPort), Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-shutdownCtx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", zap.Error(err))
		}
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.HeartbeatPeriod)
	defer closeCancel()
	_ = httpSrv.Shutdown(closeCtx)
	return svc.Shutdown(closeCtx)
}
