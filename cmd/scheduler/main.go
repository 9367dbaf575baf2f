// The Scheduler node's own existence in the registry is what candidate
// watchers outside this process would need if they relied solely on
// apis.NodeRoleScheduler for liveness; Schedule itself is a stateless
// read over a watched candidate set, so this binary's job is to run
// that lease/heartbeat presence and its control surface, same as any
// other node role. pkg/scheduler and pkg/build are exercised directly
// by cmd/api, which hosts the one public dispatch surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/cmdutil"
	"github.com/pipebase/pipebuilder-sub000/pkg/pbconfig"
)

func main() {
	root := cmdutil.NewRootCommand("pipebuilder-scheduler", apis.NodeRoleScheduler, serve)
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

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ListenPort), Handler: svc.ControlRouter()}
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
