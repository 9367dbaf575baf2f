// Package cmdutil is the cobra/viper bootstrap every node binary
// shares: parse --config/--dev, load pbconfig.Config, build a logger,
// wire a cancellable context to SIGINT/SIGTERM, and hand control to the
// role's own ServeFunc.
package cmdutil

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pblog"
	"github.com/pipebase/pipebuilder-sub000/pkg/pbconfig"
)

// ServeFunc is a node role's entire runtime: it blocks until ctx is
// cancelled, then returns after releasing its resources.
type ServeFunc func(ctx context.Context, cfg *pbconfig.Config, log *zap.Logger) error

// NewRootCommand builds the root command for a node binary: a bare
// "<use>" root with one "serve" subcommand, consistent across every
// role so operators only need to learn the flags once.
func NewRootCommand(use string, role apis.NodeRole, run ServeFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s node", use),
	}

	var configPath string
	var dev bool

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the node until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := pblog.Must(dev)
			defer func() { _ = log.Sync() }()

			cfg, err := pbconfig.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Role == "" {
				cfg.Role = role
			} else if cfg.Role != role {
				return fmt.Errorf("cmdutil: config role %q does not match %s binary", cfg.Role, use)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			log.Info("starting node", zap.String("node_id", cfg.NodeID), zap.String("role", string(cfg.Role)))
			return run(ctx, cfg, log)
		},
	}
	serve.Flags().StringVar(&configPath, "config", "", "path to the node's YAML config file (defaults to $PIPEBUILDER_CONFIG_FILE)")
	serve.Flags().BoolVar(&dev, "dev", false, "use a human-readable development logger instead of the production JSON encoder")

	root.AddCommand(serve)
	return root
}
