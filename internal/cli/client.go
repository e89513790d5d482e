package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/swapwatch/internal/control"
	"github.com/vietddude/swapwatch/internal/core/domain"
)

// apiClient talks to a running swapwatch control API.
type apiClient struct {
	base       string
	httpClient *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Start(ctx context.Context, chatID, poolID string) (*domain.MonitorStatus, error) {
	var out domain.MonitorStatus
	err := c.do(ctx, http.MethodPost, "/monitors", control.StartRequest{ChatID: chatID, PoolID: poolID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stop returns MonitorStopping when the server unregistered the monitor but
// its loop is still draining.
func (c *apiClient) Stop(ctx context.Context, chatID, poolID string) (domain.MonitorState, error) {
	out := control.StopResponse{State: domain.MonitorStopped}
	if err := c.do(ctx, http.MethodDelete, monitorPath(chatID, poolID), nil, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

func (c *apiClient) List(ctx context.Context, chatID string) ([]domain.MonitorStatus, error) {
	path := "/monitors"
	if chatID != "" {
		path += "?chat_id=" + url.QueryEscape(chatID)
	}
	var out []domain.MonitorStatus
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) Recent(ctx context.Context, chatID, poolID string, n int) (*control.RecentResponse, error) {
	var out control.RecentResponse
	path := fmt.Sprintf("%s/recent?n=%d", monitorPath(chatID, poolID), n)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func monitorPath(chatID, poolID string) string {
	return "/monitors/" + url.PathEscape(chatID) + "/" + url.PathEscape(poolID)
}
