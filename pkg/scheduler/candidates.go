// Package scheduler maintains the live view of builder candidates and
// answers Schedule requests. The candidate map has a single writer
// (the watch loop) and many readers (Schedule calls); readers take a
// copy-on-read snapshot under a RWMutex and never hold the lock across
// an RPC, the same read-mostly-map discipline an evicting in-memory
// cache uses to stay lock-cheap under concurrent reads.
package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

// freshnessTTL bounds how long a builder stays schedulable without a
// heartbeat Put refreshing it, independent of its lease: the
// keep-alive and heartbeat loops a node runs tick on separate timers,
// so a wedged heartbeat goroutine would otherwise leave a dead
// candidate schedulable for as long as keep-alive holds its lease.
// Matches three times the node package's default heartbeat period.
const freshnessTTL = 90 * time.Second

// BuilderInfo is a scheduler candidate's advertised address, platform
// and status, copied out of the builder's NodeState heartbeat.
type BuilderInfo struct {
	ID             string
	Address        string
	TargetPlatform apis.TargetPlatform
	Status         apis.NodeStatus
}

// CandidateSet is the scheduler's entire state; it is rebuildable from
// the registry watch at any time and holds no write state of its own
// in the registry.
type CandidateSet struct {
	mu       sync.RWMutex
	builders map[string]BuilderInfo
	fresh    *gocache.Cache
	log      *zap.Logger
}

func NewCandidateSet(log *zap.Logger) *CandidateSet {
	if log == nil {
		log = zap.NewNop()
	}
	return &CandidateSet{
		builders: map[string]BuilderInfo{},
		fresh:    gocache.New(freshnessTTL, freshnessTTL/2),
		log:      log,
	}
}

// Seed performs the one-shot prefix list that bootstraps the candidate
// map before the watch loop takes over.
func (c *CandidateSet) Seed(ctx context.Context, reg *registry.Client) error {
	prefix := registry.NodePrefix(apis.NodeRoleBuilder)
	resp, err := reg.GetPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kv := range resp.Kvs {
		var state apis.NodeState
		if err := json.Unmarshal(kv.Value, &state); err != nil {
			continue
		}
		c.builders[state.ID] = toBuilderInfo(state)
		c.fresh.SetDefault(state.ID, struct{}{})
	}
	return nil
}

// Run consumes the builder-prefix watch until ctx is cancelled or the
// watch stream closes. It is meant to be run in its own goroutine.
func (c *CandidateSet) Run(ctx context.Context, reg *registry.Client) {
	prefix := registry.NodePrefix(apis.NodeRoleBuilder)
	events := reg.WatchPrefix(ctx, prefix)
	for ev := range events {
		switch ev.Type {
		case apis.EventPut:
			var state apis.NodeState
			if err := json.Unmarshal(ev.Value, &state); err != nil {
				c.log.Warn("scheduler: failed to decode builder heartbeat", zap.String("key", ev.Key), zap.Error(err))
				continue
			}
			c.mu.Lock()
			c.builders[state.ID] = toBuilderInfo(state)
			c.mu.Unlock()
			c.fresh.SetDefault(state.ID, struct{}{})
		case apis.EventDelete:
			id, ok := registry.ParseNodeKey(apis.NodeRoleBuilder, ev.Key)
			if !ok {
				continue
			}
			c.mu.Lock()
			delete(c.builders, id)
			c.mu.Unlock()
			c.fresh.Delete(id)
		}
	}
}

// Snapshot returns a point-in-time copy of every known builder; it is
// safe to range over without holding any lock.
func (c *CandidateSet) Snapshot() []BuilderInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BuilderInfo, 0, len(c.builders))
	for id, b := range c.builders {
		if _, fresh := c.fresh.Get(id); !fresh {
			continue
		}
		out = append(out, b)
	}
	return out
}

func toBuilderInfo(state apis.NodeState) BuilderInfo {
	return BuilderInfo{
		ID:             state.ID,
		Address:        state.ExternalAddress,
		TargetPlatform: state.TargetPlatform,
		Status:         state.Status,
	}
}
