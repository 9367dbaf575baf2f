// Package build coordinates a build request end to end: validate,
// schedule a builder, verify it is active, forward the request, and
// record the outcome in the registry. PipeBuilder itself never
// compiles anything -- it only places the work and tracks the phases
// an externally-modeled builder executor reports back through
// BuildMetadata updates.
package build

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/builderclient"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
	"github.com/pipebase/pipebuilder-sub000/pkg/scheduler"
)

// Scheduler is the subset of *scheduler.CandidateSet the coordinator
// depends on, so tests can substitute a fake candidate set.
type Scheduler interface {
	Schedule(namespace, id string, target *apis.TargetPlatform) (*scheduler.BuilderInfo, error)
}

// BuilderDialer constructs the client used to reach a scheduled
// builder's own REST surface; production code passes
// builderclient.New, tests substitute a stub.
type BuilderDialer func(address string) BuilderClient

// BuilderClient is the subset of *builderclient.Client the
// coordinator depends on.
type BuilderClient interface {
	Build(ctx context.Context, req builderclient.BuildRequest) (*builderclient.BuildResponse, error)
	Cancel(ctx context.Context, req builderclient.CancelBuildRequest) error
	NodeStatus(ctx context.Context) (apis.NodeStatus, error)
	Log(ctx context.Context, namespace, id string, version uint64) (io.ReadCloser, error)
}

// Coordinator is the API node's build path: accept a build request,
// place it on a builder, and track its lifecycle.
type Coordinator struct {
	reg       *registry.Client
	scheduler Scheduler
	dial      BuilderDialer
	log       *zap.Logger
}

func NewCoordinator(reg *registry.Client, sched Scheduler, dial BuilderDialer, log *zap.Logger) *Coordinator {
	if dial == nil {
		dial = func(address string) BuilderClient { return builderclient.New(address) }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{reg: reg, scheduler: sched, dial: dial, log: log}
}

// Request is a new build request for a project's manifest version.
type Request struct {
	Namespace       string
	ID              string
	ManifestVersion uint64
	TargetPlatform  *apis.TargetPlatform
}

// Build schedules a builder for req, verifies it is active, forwards
// the build, and records the resulting BuildMetadata at the version
// allocated for this (namespace, id).
func (c *Coordinator) Build(ctx context.Context, req Request) (*apis.BuildMetadata, error) {
	builder, err := c.scheduler.Schedule(req.Namespace, req.ID, req.TargetPlatform)
	if err != nil {
		return nil, err
	}
	if req.TargetPlatform != nil && builder.TargetPlatform != *req.TargetPlatform {
		return nil, pberrors.Unavailablef("build: scheduled builder platform %q does not match requested %q", builder.TargetPlatform, *req.TargetPlatform)
	}

	client := c.dial(builder.Address)
	status, err := client.NodeStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status != apis.NodeStatusActive {
		return nil, pberrors.Unavailablef("build: builder %q is %s", builder.ID, status)
	}

	version, _, err := registry.UpdateSnapshotResource(ctx, c.reg, apis.ContentKindBuild, req.Namespace, req.ID, 0)
	if err != nil {
		return nil, err
	}

	if _, err := client.Build(ctx, builderclient.BuildRequest{
		Namespace:       req.Namespace,
		ID:              req.ID,
		Version:         version,
		ManifestVersion: req.ManifestVersion,
		TargetPlatform:  builder.TargetPlatform,
	}); err != nil {
		return nil, err
	}

	meta := apis.BuildMetadata{
		Namespace:       req.Namespace,
		ID:              req.ID,
		Version:         version,
		ManifestVersion: req.ManifestVersion,
		TargetPlatform:  builder.TargetPlatform,
		Status:          apis.BuildStatusCreate,
		Timestamp:       nowUTC(),
		BuilderID:       builder.ID,
		BuilderAddress:  builder.Address,
	}
	if err := registry.PutBuildMetadata(ctx, c.reg, meta); err != nil {
		return nil, err
	}
	c.log.Info("build scheduled",
		zap.String("namespace", req.Namespace), zap.String("id", req.ID),
		zap.Uint64("version", version), zap.String("builder_id", builder.ID))
	return &meta, nil
}

// GetBuildMetadata reads the current BuildMetadata record for
// (namespace, id, version).
func (c *Coordinator) GetBuildMetadata(ctx context.Context, namespace, id string, version uint64) (*apis.BuildMetadata, error) {
	return registry.GetBuildMetadata(ctx, c.reg, namespace, id, version)
}

// CancelBuild forwards a cancel request to the builder recorded in
// BuildMetadata for (namespace, id, version). A build already in a
// terminal phase is a no-op: cancel is idempotent, not an error.
func (c *Coordinator) CancelBuild(ctx context.Context, namespace, id string, version uint64) error {
	meta, err := registry.GetBuildMetadata(ctx, c.reg, namespace, id, version)
	if err != nil {
		return err
	}
	if meta.Status.Terminal() {
		return nil
	}
	client := c.dial(meta.BuilderAddress)
	if err := client.Cancel(ctx, builderclient.CancelBuildRequest{Namespace: namespace, ID: id, Version: version}); err != nil {
		return err
	}
	meta.Status = apis.BuildStatusCancel
	meta.Timestamp = nowUTC()
	return registry.PutBuildMetadata(ctx, c.reg, *meta)
}

// DeleteBuild removes a build's metadata record; it refuses builds
// that have not reached a terminal status.
func (c *Coordinator) DeleteBuild(ctx context.Context, namespace, id string, version uint64) error {
	meta, err := registry.GetBuildMetadata(ctx, c.reg, namespace, id, version)
	if err != nil {
		return err
	}
	if !meta.Status.Terminal() {
		return pberrors.InvalidRequestf("build: %s/%s/%d not in a terminal status, currently %s", namespace, id, version, meta.Status)
	}
	key := registry.MetadataKey(apis.ContentKindBuild, namespace, id, version)
	return registry.DeleteResource(ctx, c.reg, key, false)
}

// GetBuildLog streams the build log from the builder recorded against
// (namespace, id, version)'s BuildMetadata.
func (c *Coordinator) GetBuildLog(ctx context.Context, namespace, id string, version uint64) (io.ReadCloser, error) {
	meta, err := registry.GetBuildMetadata(ctx, c.reg, namespace, id, version)
	if err != nil {
		return nil, err
	}
	client := c.dial(meta.BuilderAddress)
	return client.Log(ctx, namespace, id, version)
}

// RecordTransition advances a non-terminal build's BuildStatus and
// records message alongside it. No route or status callback in this
// module calls it.
func (c *Coordinator) RecordTransition(ctx context.Context, namespace, id string, version uint64, status apis.BuildStatus, message string) error {
	if !status.Valid() {
		return pberrors.InvalidRequestf("build: invalid status %q", status)
	}
	meta, err := registry.GetBuildMetadata(ctx, c.reg, namespace, id, version)
	if err != nil {
		return err
	}
	if meta.Status.Terminal() {
		return pberrors.InvalidRequestf("build: %s/%s/%d already terminal at %s", namespace, id, version, meta.Status)
	}
	meta.Status = status
	meta.Message = message
	meta.Timestamp = nowUTC()
	return registry.PutBuildMetadata(ctx, c.reg, *meta)
}
