package registry

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
)

// WatchPrefix streams Put/Delete events for everything under prefix
// until ctx is cancelled. The returned channel is closed once the
// underlying etcd watch channel closes; callers (the scheduler's
// candidate-set loop) treat closure the same way they treat a
// cancelled context -- stop consuming, nothing more will arrive on
// this stream.
func (c *Client) WatchPrefix(ctx context.Context, prefix string) <-chan apis.WatchEvent {
	out := make(chan apis.WatchEvent, 64)
	watchCh := c.kv.Watch(ctx, prefix, clientv3.WithPrefix())
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case resp, ok := <-watchCh:
				if !ok {
					return
				}
				if err := resp.Err(); err != nil {
					c.log.Warn("registry watch stream error", zap.String("prefix", prefix), zap.Error(err))
					return
				}
				for _, ev := range resp.Events {
					we := apis.WatchEvent{Key: string(ev.Kv.Key)}
					switch ev.Type {
					case clientv3.EventTypePut:
						we.Type = apis.EventPut
						we.Value = ev.Kv.Value
					case clientv3.EventTypeDelete:
						we.Type = apis.EventDelete
					}
					select {
					case out <- we:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}
