// Package builderclient is the thin HTTP client the build coordinator
// uses to reach a scheduled Builder node's own REST surface: trigger
// a build, cancel one, and fetch its log. It generalizes the pattern
// of a small typed client wrapping request/response JSON over a base
// URL that appears throughout the ambient stack's provider-facing
// packages.
package builderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// Client talks to one Builder node's address for the lifetime of a
// single build dispatch; callers construct one per call using the
// address the scheduler returned.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(address string) *Client {
	return &Client{
		baseURL: "http://" + address,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// BuildRequest is what the coordinator forwards to a builder's /build
// endpoint once a node has been scheduled and verified active.
type BuildRequest struct {
	Namespace       string              `json:"namespace"`
	ID              string              `json:"id"`
	Version         uint64              `json:"version"`
	ManifestVersion uint64              `json:"manifest_version"`
	TargetPlatform  apis.TargetPlatform `json:"target_platform"`
}

type BuildResponse struct {
	Accepted bool `json:"accepted"`
}

// Build dispatches req to the builder's own /build endpoint.
func (c *Client) Build(ctx context.Context, req BuildRequest) (*BuildResponse, error) {
	var resp BuildResponse
	if err := c.postJSON(ctx, "/internal/v1/build", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type CancelBuildRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
	Version   uint64 `json:"version"`
}

// Cancel asks the builder to cancel an in-flight build.
func (c *Client) Cancel(ctx context.Context, req CancelBuildRequest) error {
	return c.postJSON(ctx, "/internal/v1/build/cancel", req, nil)
}

// Log streams the raw build log for (namespace, id, version) from the
// builder; the caller owns closing the returned reader.
func (c *Client) Log(ctx context.Context, namespace, id string, version uint64) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/internal/v1/build/log?namespace=%s&id=%s&version=%d", c.baseURL, namespace, id, version)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: build request", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: log fetch failed", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, pberrors.New(pberrors.KindUpstreamRPC, fmt.Sprintf("builderclient: log fetch status %d", resp.StatusCode))
	}
	return resp.Body, nil
}

// NodeStatus reports whether the builder's control surface currently
// advertises itself as Active.
func (c *Client) NodeStatus(ctx context.Context) (apis.NodeStatus, error) {
	var resp struct {
		Status apis.NodeStatus `json:"status"`
	}
	if err := c.getJSON(ctx, "/internal/v1/node/status", &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: encode request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: build request", err)
	}
	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return pberrors.New(pberrors.KindUpstreamRPC, fmt.Sprintf("builderclient: status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pberrors.Wrap(pberrors.KindUpstreamRPC, "builderclient: decode response", err)
	}
	return nil
}
