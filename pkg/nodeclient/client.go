// Package nodeclient dispatches operator control commands
// (activate/deactivate/shutdown) and status polls to a node's own
// internal control surface, addressed by the external address the API
// node learned from that node's last heartbeat.
package nodeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(address string) *Client {
	return &Client{
		baseURL: "http://" + address,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Status(ctx context.Context) (apis.NodeStatus, error) {
	var resp struct {
		Status apis.NodeStatus `json:"status"`
	}
	if err := c.call(ctx, http.MethodGet, "/internal/v1/node/status", &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) Activate(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/node/activate", nil)
}

func (c *Client) Deactivate(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/node/deactivate", nil)
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/node/shutdown", nil)
}

func (c *Client) call(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "nodeclient: build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "nodeclient: request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return pberrors.New(pberrors.KindUpstreamRPC, fmt.Sprintf("nodeclient: status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "nodeclient: decode response", err)
	}
	return nil
}
