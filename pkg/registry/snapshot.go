package registry

import (
	"context"
	"encoding/json"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

const (
	maxSnapshotRetries   = 8
	snapshotInitialDelay = 5 * time.Millisecond
)

// UpdateSnapshotResource is the only way to allocate a new version for
// a (namespace, id) pair of a given resource kind. It is a
// read-modify-write of the snapshot record guarded by an optimistic
// compare-and-swap on the stored revision, bounded-retried with
// exponential backoff. Two concurrent callers never observe the same
// returned version.
func UpdateSnapshotResource(ctx context.Context, c *Client, kind apis.ContentKind, namespace, id string, leaseID clientv3.LeaseID) (uint64, apis.Snapshot, error) {
	key := SnapshotKey(kind, namespace, id)
	delay := snapshotInitialDelay
	for attempt := 0; attempt < maxSnapshotRetries; attempt++ {
		current, modRev, err := readSnapshot(ctx, c, key, id)
		if err != nil {
			return 0, apis.Snapshot{}, err
		}
		// modRev == 0 means no snapshot has ever been written for this
		// (namespace, id): the first version allocated is 0, not 1.
		// Every later allocation bumps the last stored version by one.
		version := current.LatestVersion + 1
		if modRev == 0 {
			version = 0
		}
		next := apis.Snapshot{ID: id, LatestVersion: version}
		raw, err := json.Marshal(next)
		if err != nil {
			return 0, apis.Snapshot{}, pberrors.Wrap(pberrors.KindRegistry, "registry: encode snapshot", err)
		}

		var cmp clientv3.Cmp
		if modRev == 0 {
			cmp = clientv3.Compare(clientv3.CreateRevision(key), "=", 0)
		} else {
			cmp = clientv3.Compare(clientv3.ModRevision(key), "=", modRev)
		}
		putOpts := []clientv3.OpOption{}
		if leaseID != 0 {
			putOpts = append(putOpts, clientv3.WithLease(leaseID))
		}
		putOp := clientv3.OpPut(key, string(raw), putOpts...)

		txnResp, err := c.Raw().Txn(ctx).If(cmp).Then(putOp).Commit()
		if err != nil {
			return 0, apis.Snapshot{}, pberrors.Wrap(pberrors.KindRegistry, "registry: snapshot CAS failed", err)
		}
		if txnResp.Succeeded {
			return next.LatestVersion, next, nil
		}

		c.Logger().Debug("snapshot CAS contended, retrying",
			zap.String("key", key), zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return 0, apis.Snapshot{}, pberrors.Wrap(pberrors.KindRegistry, "registry: snapshot CAS cancelled", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return 0, apis.Snapshot{}, pberrors.New(pberrors.KindRegistry, "registry: snapshot CAS exhausted retries")
}

func readSnapshot(ctx context.Context, c *Client, key, id string) (apis.Snapshot, int64, error) {
	raw, modRev, err := c.Get(ctx, key)
	if err != nil {
		if pberrors.KindOf(err) == pberrors.KindNotFound {
			return apis.Snapshot{ID: id, LatestVersion: 0}, 0, nil
		}
		return apis.Snapshot{}, 0, err
	}
	var s apis.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return apis.Snapshot{}, 0, pberrors.Wrap(pberrors.KindRegistry, "registry: decode snapshot", err)
	}
	return s, modRev, nil
}
