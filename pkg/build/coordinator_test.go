package build

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/builderclient"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/scheduler"
)

type fakeScheduler struct {
	builder *scheduler.BuilderInfo
	err     error
}

func (f *fakeScheduler) Schedule(namespace, id string, target *apis.TargetPlatform) (*scheduler.BuilderInfo, error) {
	return f.builder, f.err
}

type fakeBuilderClient struct {
	status     apis.NodeStatus
	buildErr   error
	cancelErr  error
	builds     []builderclient.BuildRequest
	cancels    []builderclient.CancelBuildRequest
	logContent string
}

func (f *fakeBuilderClient) Build(_ context.Context, req builderclient.BuildRequest) (*builderclient.BuildResponse, error) {
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	f.builds = append(f.builds, req)
	return &builderclient.BuildResponse{Accepted: true}, nil
}

func (f *fakeBuilderClient) Cancel(_ context.Context, req builderclient.CancelBuildRequest) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancels = append(f.cancels, req)
	return nil
}

func (f *fakeBuilderClient) NodeStatus(_ context.Context) (apis.NodeStatus, error) {
	return f.status, nil
}

func (f *fakeBuilderClient) Log(_ context.Context, namespace, id string, version uint64) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewBufferString(f.logContent)), nil
}

func TestCoordinator_Build_RejectsInactiveBuilder(t *testing.T) {
	sched := &fakeScheduler{builder: &scheduler.BuilderInfo{
		ID: "builder-a", Address: "builder-a:8080",
		TargetPlatform: apis.TargetPlatformX86_64UnknownLinuxGNU,
		Status:         apis.NodeStatusActive,
	}}
	fc := &fakeBuilderClient{status: apis.NodeStatusInactive}
	coord := NewCoordinator(nil, sched, func(string) BuilderClient { return fc }, nil)

	_, err := coord.Build(context.Background(), Request{Namespace: "ns", ID: "proj"})
	require.Error(t, err)
	assert.Equal(t, pberrors.KindUnavailable, pberrors.KindOf(err))
}

func TestCoordinator_Build_RejectsTargetPlatformMismatch(t *testing.T) {
	sched := &fakeScheduler{builder: &scheduler.BuilderInfo{
		ID: "builder-a", Address: "builder-a:8080",
		TargetPlatform: apis.TargetPlatformAarch64UnknownLinuxGNU,
		Status:         apis.NodeStatusActive,
	}}
	fc := &fakeBuilderClient{status: apis.NodeStatusActive}
	coord := NewCoordinator(nil, sched, func(string) BuilderClient { return fc }, nil)

	want := apis.TargetPlatformX86_64UnknownLinuxGNU
	_, err := coord.Build(context.Background(), Request{Namespace: "ns", ID: "proj", TargetPlatform: &want})
	require.Error(t, err)
	assert.Equal(t, pberrors.KindUnavailable, pberrors.KindOf(err))
	assert.Empty(t, fc.builds)
}
