package gpu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the GPU compute service over HTTP. A zero BaseURL client
// is valid and reports itself unconfigured; the pipeline then skips every
// GPU phase.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeoutSecs int) *Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSecs) * time.Second,
		},
	}
}

func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Health probes the service. Any transport error is returned as-is so the
// caller can distinguish "down" from "degraded".
func (c *Client) Health() (HealthStatus, error) {
	var status HealthStatus
	if !c.IsConfigured() {
		return status, fmt.Errorf("gpu: no base URL configured")
	}

	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return status, fmt.Errorf("gpu: health probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("gpu: health probe returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("gpu: failed to decode health response: %w", err)
	}
	return status, nil
}

func (c *Client) StyleBatch(req StyleBatchRequest) (*StyleBatchResponse, error) {
	var resp StyleBatchResponse
	if err := c.postJSON("/v1/style/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FaceRetouch(req FaceRetouchRequest) (*FaceRetouchResponse, error) {
	var resp FaceRetouchResponse
	if err := c.postJSON("/v1/retouch/face", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SceneCleanup(req SceneCleanupRequest) (*SceneCleanupResponse, error) {
	var resp SceneCleanupResponse
	if err := c.postJSON("/v1/cleanup/scene", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postJSON(path string, reqBody, respOut interface{}) error {
	if !c.IsConfigured() {
		return fmt.Errorf("gpu: no base URL configured")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("gpu: failed to encode request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gpu: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gpu: %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(respOut); err != nil {
		return fmt.Errorf("gpu: failed to decode response from %s: %w", path, err)
	}
	return nil
}
