package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/mens-health/internal/domain/remote"
	"github.com/yanqian/mens-health/pkg/metrics"
)

const defaultTimeout = 15 * time.Second

// Client posts JSON payloads to a static table of function URLs.
type Client struct {
	endpoints  map[string]string
	httpClient *http.Client
	recorder   *metrics.Recorder
	logger     *slog.Logger
}

// NewClient builds an invoker over endpoints (function name -> URL).
func NewClient(endpoints map[string]string, timeout time.Duration, recorder *metrics.Recorder, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	table := make(map[string]string, len(endpoints))
	for name, url := range endpoints {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			table[name] = trimmed
		}
	}
	return &Client{
		endpoints:  table,
		httpClient: &http.Client{Timeout: timeout},
		recorder:   recorder,
		logger:     logger.With("component", "remote.client"),
	}
}

// Invoke implements remote.Invoker.
func (c *Client) Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.invoke(ctx, name, payload)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		c.logger.Warn("remote function failed", "function", name, "error", err)
	}
	c.recorder.ObserveRemote(name, outcome, time.Since(start))
	return raw, err
}

func (c *Client) invoke(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	url, ok := c.endpoints[name]
	if !ok {
		return nil, &remote.UnconfiguredEndpointError{Name: name}
	}
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &remote.TransportError{Name: name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &remote.TransportError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &remote.HTTPError{Name: name, Status: resp.StatusCode, Body: string(snippet)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &remote.TransportError{Name: name, Err: err}
	}
	if !json.Valid(data) {
		return nil, &remote.MalformedResponseError{Name: name, Err: fmt.Errorf("invalid JSON body (%d bytes)", len(data))}
	}
	return json.RawMessage(data), nil
}

var _ remote.Invoker = (*Client)(nil)
