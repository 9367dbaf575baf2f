package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/builderworker"
	"github.com/pipebase/pipebuilder-sub000/pkg/cmdutil"
	"github.com/pipebase/pipebuilder-sub000/pkg/pbconfig"
)

func main() {
	root := cmdutil.NewRootCommand("pipebuilder-builder", apis.NodeRoleBuilder, serve)
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

	worker := builderworker.New(log)

	mux := http.NewServeMux()
	mux.Handle("/internal/v1/node/", svc.ControlRouter())
	mux.Handle("/", worker.Router())

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
