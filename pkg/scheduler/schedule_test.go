package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

func linuxBuilder(id string, status apis.NodeStatus) BuilderInfo {
	return BuilderInfo{
		ID:             id,
		Address:        id + ":8080",
		TargetPlatform: apis.TargetPlatformX86_64UnknownLinuxGNU,
		Status:         status,
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	candidates := []BuilderInfo{
		linuxBuilder("builder-a", apis.NodeStatusActive),
		linuxBuilder("builder-b", apis.NodeStatusActive),
		linuxBuilder("builder-c", apis.NodeStatusActive),
	}

	first, err := Schedule(candidates, "ns", "proj", nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Schedule(candidates, "ns", "proj", nil)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestSchedule_ExcludesInactive(t *testing.T) {
	candidates := []BuilderInfo{
		linuxBuilder("builder-a", apis.NodeStatusInactive),
		linuxBuilder("builder-b", apis.NodeStatusActive),
	}
	chosen, err := Schedule(candidates, "ns", "proj", nil)
	require.NoError(t, err)
	assert.Equal(t, "builder-b", chosen.ID)
}

func TestSchedule_FiltersByExactTargetPlatform(t *testing.T) {
	darwin := BuilderInfo{ID: "builder-mac", TargetPlatform: apis.TargetPlatformX86_64AppleDarwin, Status: apis.NodeStatusActive}
	linux := linuxBuilder("builder-linux", apis.NodeStatusActive)
	candidates := []BuilderInfo{darwin, linux}

	want := apis.TargetPlatformX86_64AppleDarwin
	chosen, err := Schedule(candidates, "ns", "proj", &want)
	require.NoError(t, err)
	assert.Equal(t, "builder-mac", chosen.ID)
}

func TestSchedule_NoEligibleReturnsUnavailable(t *testing.T) {
	candidates := []BuilderInfo{linuxBuilder("builder-a", apis.NodeStatusInactive)}
	_, err := Schedule(candidates, "ns", "proj", nil)
	require.Error(t, err)
	assert.Equal(t, pberrors.KindUnavailable, pberrors.KindOf(err))
}
