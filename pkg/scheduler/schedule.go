package scheduler

import (
	"sort"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// Schedule picks the builder that should run the build identified by
// (namespace, id). When target is non-nil only builders whose
// advertised platform matches exactly are eligible; otherwise any
// builder advertising a supported platform is eligible. Among
// eligible, Active builders, the one whose id has the smallest
// FNV-1a hash-distance from "namespace/id" wins, with lexicographic
// builder id as the tiebreak so the choice is a pure function of the
// candidate set and never depends on map iteration order.
func Schedule(candidates []BuilderInfo, namespace, id string, target *apis.TargetPlatform) (*BuilderInfo, error) {
	key := namespace + "/" + id

	eligible := make([]BuilderInfo, 0, len(candidates))
	for _, b := range candidates {
		if b.Status != apis.NodeStatusActive {
			continue
		}
		if target != nil {
			if b.TargetPlatform != *target {
				continue
			}
		} else if !b.TargetPlatform.Supported() {
			continue
		}
		eligible = append(eligible, b)
	}
	if len(eligible) == 0 {
		return nil, pberrors.Unavailablef("scheduler: no eligible builder for %s", key)
	}

	sort.Slice(eligible, func(i, j int) bool {
		di, dj := hashDistance(key, eligible[i].ID), hashDistance(key, eligible[j].ID)
		if di != dj {
			return di < dj
		}
		return eligible[i].ID < eligible[j].ID
	})
	chosen := eligible[0]
	return &chosen, nil
}

// Schedule is also exposed as a CandidateSet method so callers holding
// only a live set (not a pre-taken snapshot) can schedule directly.
func (c *CandidateSet) Schedule(namespace, id string, target *apis.TargetPlatform) (*BuilderInfo, error) {
	return Schedule(c.Snapshot(), namespace, id, target)
}
