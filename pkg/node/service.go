// Package node implements the per-node lifecycle shared by every node
// kind (API, Scheduler, Repository, Builder): lease acquisition,
// keep-alive, periodic heartbeat, and the activate/deactivate/shutdown
// control surface.
package node

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

const (
	// DefaultLeaseTTL is the default node lease lifetime.
	DefaultLeaseTTL = 45 * time.Second
	// DefaultHeartbeatPeriod matches the Rust source's
	// DEFAULT_NODE_HEARTBEAT_PERIOD constant.
	DefaultHeartbeatPeriod = 30 * time.Second
)

// Config describes a single node's identity.
type Config struct {
	ID              string
	Role            apis.NodeRole
	Arch            string
	OS              string
	InternalAddress string
	ExternalAddress string
	LeaseTTL        time.Duration
	HeartbeatPeriod time.Duration
}

// Service drives a single node's lease/heartbeat lifecycle. It holds
// no business logic of its own -- Schedulers, Builders etc. embed a
// Service and add their own behavior around it.
type Service struct {
	cfg            Config
	targetPlatform apis.TargetPlatform
	reg            *registry.Client
	log            *zap.Logger

	leaseID atomic.Int64 // clientv3.LeaseID, 0 == not yet granted
	status  atomic.Value // apis.NodeStatus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService constructs a Service; it does not contact the registry
// until Start is called.
func NewService(cfg Config, reg *registry.Client, log *zap.Logger) *Service {
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.HeartbeatPeriod == 0 {
		cfg.HeartbeatPeriod = DefaultHeartbeatPeriod
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		cfg:            cfg,
		targetPlatform: apis.DeriveTargetPlatform(cfg.Arch, cfg.OS),
		reg:            reg,
		log:            log.With(zap.String("node_id", cfg.ID), zap.String("role", string(cfg.Role))),
	}
	s.status.Store(apis.NodeStatusActive)
	return s
}

// TargetPlatform returns the triple derived from this node's arch/os,
// or apis.TargetPlatformUnsupported.
func (s *Service) TargetPlatform() apis.TargetPlatform { return s.targetPlatform }

// Status returns the advisory in-process status flag.
func (s *Service) Status() apis.NodeStatus {
	return s.status.Load().(apis.NodeStatus)
}

// Activate flips the status flag back to Active; the next heartbeat
// publishes it.
func (s *Service) Activate() { s.status.Store(apis.NodeStatusActive) }

// Deactivate flips the status flag to Inactive; the scheduler will
// stop picking this node once the next heartbeat lands.
func (s *Service) Deactivate() { s.status.Store(apis.NodeStatusInactive) }

// Start grants the lease and spawns the keep-alive and heartbeat
// goroutines. It returns once the lease is granted and the first
// heartbeat has been written.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	leaseID, err := s.reg.LeaseGrant(ctx, int64(s.cfg.LeaseTTL/time.Second))
	if err != nil {
		cancel()
		return err
	}
	s.leaseID.Store(int64(leaseID))

	if err := s.writeHeartbeat(ctx); err != nil {
		cancel()
		return err
	}

	s.wg.Add(2)
	go s.keepAliveLoop(runCtx)
	go s.heartbeatLoop(runCtx)
	return nil
}

// Shutdown runs the two-phase shutdown: set status, emit one final
// heartbeat, stop the background loops, release the lease.
func (s *Service) Shutdown(ctx context.Context) error {
	s.status.Store(apis.NodeStatusShutdown)
	err := s.writeHeartbeat(ctx)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if leaseID := clientv3.LeaseID(s.leaseID.Load()); leaseID != 0 {
		if revokeErr := s.reg.LeaseRevoke(ctx, leaseID); revokeErr != nil && err == nil {
			err = revokeErr
		}
	}
	return err
}

func (s *Service) keepAliveLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.LeaseTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			leaseID := clientv3.LeaseID(s.leaseID.Load())
			if _, err := s.reg.LeaseKeepAliveOnce(ctx, leaseID); err != nil {
				s.log.Warn("lease keep-alive failed, re-registering", zap.Error(err))
				newLease, grantErr := s.reg.LeaseGrant(ctx, int64(s.cfg.LeaseTTL/time.Second))
				if grantErr != nil {
					s.log.Error("failed to re-grant lease", zap.Error(grantErr))
					continue
				}
				s.leaseID.Store(int64(newLease))
			}
		}
	}
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeHeartbeat(ctx); err != nil {
				s.log.Warn("heartbeat write failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) writeHeartbeat(ctx context.Context) error {
	state := apis.NodeState{
		ID:              s.cfg.ID,
		Role:            s.cfg.Role,
		Arch:            s.cfg.Arch,
		OS:              s.cfg.OS,
		TargetPlatform:  s.targetPlatform,
		InternalAddress: s.cfg.InternalAddress,
		ExternalAddress: s.cfg.ExternalAddress,
		Status:          s.Status(),
		Timestamp:       time.Now().UTC(),
	}
	raw, err := marshalNodeState(state)
	if err != nil {
		return err
	}
	leaseID := clientv3.LeaseID(s.leaseID.Load())
	return s.reg.Put(ctx, registry.NodeKey(s.cfg.Role, s.cfg.ID), raw, leaseID)
}
