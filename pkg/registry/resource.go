package registry

import (
	"context"
	"encoding/json"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// GetResource decodes the JSON value at key into a new R. leaseID is
// accepted for symmetry with the put-side helpers but unused by Get
// itself; it exists so call sites that also want to refresh a bound
// key's TTL can do so in the same call in a future revision without
// changing the signature.
func GetResource[R any](ctx context.Context, c *Client, key string, leaseID clientv3.LeaseID) (*R, error) {
	raw, _, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var r R
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, pberrors.Wrap(pberrors.KindRegistry, "registry: decode resource", err)
	}
	return &r, nil
}

// KeyedResource pairs a decoded resource with the registry key it was
// read from, for ListResource callers that need to parse ids out of
// the key shape.
type KeyedResource[R any] struct {
	Key   string
	Value R
}

// ListResource performs a prefix scan and decodes every value as R,
// skipping values that fail to decode (defensive against a metadata
// write racing a concurrent delete).
func ListResource[R any](ctx context.Context, c *Client, prefix string) ([]KeyedResource[R], error) {
	resp, err := c.GetPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]KeyedResource[R], 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var r R
		if err := json.Unmarshal(kv.Value, &r); err != nil {
			continue
		}
		out = append(out, KeyedResource[R]{Key: string(kv.Key), Value: r})
	}
	return out, nil
}

// ResourceExists is the bounded existence probe used by delete
// preconditions: it never reads values.
func ResourceExists(ctx context.Context, c *Client, prefix string) (bool, error) {
	n, err := c.CountPrefix(ctx, prefix)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateDefaultResource upserts the R that build returns (namespaces,
// projects) under a lease. Idempotent: calling it again for the same
// key overwrites the record, changing nothing beyond whatever
// timestamp build sets.
func UpdateDefaultResource[R any](ctx context.Context, c *Client, key string, leaseID clientv3.LeaseID, build func() R) error {
	r := build()
	raw, err := json.Marshal(r)
	if err != nil {
		return pberrors.Wrap(pberrors.KindRegistry, "registry: encode resource", err)
	}
	return c.Put(ctx, key, raw, leaseID)
}

// DeleteResource removes the resource at key, or every resource under
// it when prefix is true.
func DeleteResource(ctx context.Context, c *Client, key string, prefix bool) error {
	return c.Delete(ctx, key, prefix)
}

// nowUTC is split out so tests can't accidentally depend on wall-clock
// skew across assertions; it's just time.Now().UTC() in production.
func nowUTC() time.Time { return time.Now().UTC() }
