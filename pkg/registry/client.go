package registry

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// Client is the thin transport layer over clientv3: put, get, delete,
// watch, and lease primitives. Cloning a *Client is cheap and shares
// the underlying connection the same way a provider handle is passed
// by value around controllers — do not wrap it in an interface
// hierarchy.
type Client struct {
	kv     *clientv3.Client
	log    *zap.Logger
	dialed time.Duration
}

// Config controls how the underlying clientv3.Client is constructed.
type Config struct {
	Endpoints   []string
	DialTimeout time.Duration
}

// NewClient dials the etcd cluster described by cfg.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, pberrors.New(pberrors.KindConfig, "registry: no endpoints configured")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	kv, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, pberrors.Wrap(pberrors.KindRegistry, "registry: dial failed", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{kv: kv, log: log, dialed: dialTimeout}, nil
}

func (c *Client) Close() error {
	return c.kv.Close()
}

// Put writes value at key, optionally bound to leaseID (0 for no lease).
func (c *Client) Put(ctx context.Context, key string, value []byte, leaseID clientv3.LeaseID) error {
	opts := []clientv3.OpOption{}
	if leaseID != 0 {
		opts = append(opts, clientv3.WithLease(leaseID))
	}
	if _, err := c.kv.Put(ctx, key, string(value), opts...); err != nil {
		return pberrors.Wrap(pberrors.KindRegistry, fmt.Sprintf("registry: put %q", key), err)
	}
	return nil
}

// Get fetches the raw value and mod revision at key. Returns
// pberrors.KindNotFound when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) ([]byte, int64, error) {
	resp, err := c.kv.Get(ctx, key)
	if err != nil {
		return nil, 0, pberrors.Wrap(pberrors.KindRegistry, fmt.Sprintf("registry: get %q", key), err)
	}
	if len(resp.Kvs) == 0 {
		return nil, 0, pberrors.NotFoundf("registry: key %q not found", key)
	}
	return resp.Kvs[0].Value, resp.Kvs[0].ModRevision, nil
}

// GetPrefix returns every key/value pair under prefix.
func (c *Client) GetPrefix(ctx context.Context, prefix string) (*clientv3.GetResponse, error) {
	resp, err := c.kv.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, pberrors.Wrap(pberrors.KindRegistry, fmt.Sprintf("registry: list %q", prefix), err)
	}
	return resp, nil
}

// CountPrefix is the bounded, count-only existence probe used for
// delete preconditions: it never transfers values.
func (c *Client) CountPrefix(ctx context.Context, prefix string) (int64, error) {
	resp, err := c.kv.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return 0, pberrors.Wrap(pberrors.KindRegistry, fmt.Sprintf("registry: count %q", prefix), err)
	}
	return resp.Count, nil
}

// Delete removes a single key, or every key under it when prefix is true.
func (c *Client) Delete(ctx context.Context, key string, prefix bool) error {
	opts := []clientv3.OpOption{}
	if prefix {
		opts = append(opts, clientv3.WithPrefix())
	}
	if _, err := c.kv.Delete(ctx, key, opts...); err != nil {
		return pberrors.Wrap(pberrors.KindRegistry, fmt.Sprintf("registry: delete %q", key), err)
	}
	return nil
}

// LeaseGrant issues a lease with the given TTL in seconds.
func (c *Client) LeaseGrant(ctx context.Context, ttlSeconds int64) (clientv3.LeaseID, error) {
	resp, err := c.kv.Grant(ctx, ttlSeconds)
	if err != nil {
		return 0, pberrors.Wrap(pberrors.KindRegistry, "registry: lease grant failed", err)
	}
	return resp.ID, nil
}

// LeaseKeepAlive starts the client-side keep-alive stream for id. The
// returned channel is closed by the etcd client when the lease is
// revoked, expires, or the context is cancelled. pkg/node does not use
// this stream; it calls LeaseKeepAliveOnce on its own ticker.
func (c *Client) LeaseKeepAlive(ctx context.Context, id clientv3.LeaseID) (<-chan *clientv3.LeaseKeepAliveResponse, error) {
	ch, err := c.kv.KeepAlive(ctx, id)
	if err != nil {
		return nil, pberrors.Wrap(pberrors.KindRegistry, "registry: lease keep-alive failed", err)
	}
	return ch, nil
}

// LeaseKeepAliveOnce sends a single keep-alive heartbeat for id and
// returns the refreshed TTL. Node.Service calls this on its own
// TTL/2 ticker rather than draining clientv3's continuous KeepAlive
// stream, so the keep-alive cadence is explicit instead of implicit
// in the client library's defaults.
func (c *Client) LeaseKeepAliveOnce(ctx context.Context, id clientv3.LeaseID) (int64, error) {
	resp, err := c.kv.KeepAliveOnce(ctx, id)
	if err != nil {
		return 0, pberrors.Wrap(pberrors.KindRegistry, "registry: lease keep-alive-once failed", err)
	}
	return resp.TTL, nil
}

// LeaseRevoke releases id immediately; keys bound to it disappear.
func (c *Client) LeaseRevoke(ctx context.Context, id clientv3.LeaseID) error {
	if _, err := c.kv.Revoke(ctx, id); err != nil {
		return pberrors.Wrap(pberrors.KindRegistry, "registry: lease revoke failed", err)
	}
	return nil
}

// Raw exposes the underlying clientv3.Client for operations (e.g. Txn)
// that the typed helpers in snapshot.go need directly.
func (c *Client) Raw() *clientv3.Client { return c.kv }

func (c *Client) Logger() *zap.Logger { return c.log }
