package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
)

func TestCandidateSet_SnapshotExcludesStaleEntry(t *testing.T) {
	cs := NewCandidateSet(nil)
	cs.builders["builder-a"] = linuxBuilder("builder-a", apis.NodeStatusActive)
	cs.fresh.SetDefault("builder-a", struct{}{})

	assert.Len(t, cs.Snapshot(), 1)

	cs.fresh.Delete("builder-a")
	assert.Empty(t, cs.Snapshot())
}

func TestCandidateSet_NewIsEmpty(t *testing.T) {
	cs := NewCandidateSet(nil)
	assert.Empty(t, cs.Snapshot())
}

func TestCandidateSet_ScheduleUsesOnlyFreshCandidates(t *testing.T) {
	cs := NewCandidateSet(nil)
	cs.builders["builder-a"] = linuxBuilder("builder-a", apis.NodeStatusActive)
	cs.builders["builder-b"] = linuxBuilder("builder-b", apis.NodeStatusActive)
	cs.fresh.SetDefault("builder-a", struct{}{})
	// builder-b never refreshed: simulates a wedged heartbeat loop.

	chosen, err := cs.Schedule("ns", "proj", nil)
	assert.NoError(t, err)
	assert.Equal(t, "builder-a", chosen.ID)
}
