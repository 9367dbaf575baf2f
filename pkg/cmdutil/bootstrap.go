package cmdutil

import (
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/node"
	"github.com/pipebase/pipebuilder-sub000/pkg/pbconfig"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

// NewRegistryClient dials the etcd endpoints named in cfg.
func NewRegistryClient(cfg *pbconfig.Config, log *zap.Logger) (*registry.Client, error) {
	return registry.NewClient(registry.Config{Endpoints: cfg.RegistryEndpoints}, log)
}

// NewNodeService builds the lease/heartbeat Service every role embeds,
// from the subset of Config fields common to all four.
func NewNodeService(cfg *pbconfig.Config, reg *registry.Client, log *zap.Logger) *node.Service {
	return node.NewService(node.Config{
		ID:              cfg.NodeID,
		Role:            cfg.Role,
		Arch:            cfg.Arch,
		OS:              cfg.OS,
		InternalAddress: cfg.InternalAddress,
		ExternalAddress: cfg.ExternalAddress,
		LeaseTTL:        cfg.LeaseTTL,
		HeartbeatPeriod: cfg.HeartbeatPeriod,
	}, reg, log)
}
