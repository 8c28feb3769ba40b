// Package apiclient talks to the landings HTTP API: a health probe and the /cpue endpoint.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/dataset"
	"github.com/worldfishcenter/landings/internal/logger"
	"github.com/worldfishcenter/landings/schema"
)

// Config controls the client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration // per attempt
	MaxAttempts int
	Backoff     time.Duration // fixed wait between attempts
	Sites       []string      // sites requested by Records; empty means every known site
}

// Client is an API-backed metric source.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

var (
	_ contract.APIClient    = &Client{} // Compile-time check
	_ contract.MetricSource = &Client{}
)

// New creates a client, filling zero fields with defaults.
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = contract.DefaultAPITimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = contract.DefaultAPIAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	if len(cfg.Sites) == 0 {
		cfg.Sites = schema.LandingSites
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  logger.OrNop(log).With(zap.String("component", "apiclient")),
	}
}

// WithHTTPClient swaps the underlying transport.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Health checks that the API reports status "ok".
func (c *Client) Health(ctx context.Context) error {
	var body schema.HealthResponse
	if err := c.getJSON(ctx, "/health", nil, &body); err != nil {
		if errors.Is(err, contract.ErrFormat) {
			return fmt.Errorf("%w: health response unreadable", contract.ErrConnectivity)
		}
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("%w: health status %q", contract.ErrConnectivity, body.Status)
	}
	return nil
}

// FetchCPUE fetches monthly CPUE rows for sites. Sites outside the allow-list
// are dropped; when none remain no request is made.
func (c *Client) FetchCPUE(ctx context.Context, sites []string) ([]schema.CPUERow, error) {
	valid := schema.FilterValidSites(sites)
	if len(valid) < len(sites) {
		c.log.Debug("dropped unknown landing sites", zap.Int("requested", len(sites)), zap.Int("kept", len(valid)))
	}
	if len(valid) == 0 {
		return nil, nil
	}

	encoded, err := json.Marshal(valid)
	if err != nil {
		return nil, fmt.Errorf("failed to encode landing sites: %w", err)
	}
	query := url.Values{"landingSites": []string{string(encoded)}}

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/cpue", query, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: /cpue response is not an array", contract.ErrFormat)
	}
	var rows []schema.CPUERow
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("%w: /cpue rows: %v", contract.ErrFormat, err)
	}
	return rows, nil
}

// Records implements contract.MetricSource. The health probe runs first.
func (c *Client) Records(ctx context.Context) ([]schema.MetricRecord, error) {
	if err := c.Health(ctx); err != nil {
		return nil, err
	}
	rows, err := c.FetchCPUE(ctx, c.cfg.Sites)
	if err != nil {
		return nil, err
	}
	records, dropped := dataset.ConvertCPUERows(rows, c.log)
	if dropped > 0 {
		c.log.Warn("dropped cpue rows with invalid dates", zap.Int("dropped", dropped))
	}
	return records, nil
}

// Kind implements contract.MetricSource.
func (c *Client) Kind() schema.DataSource {
	return schema.APISource
}

// Location returns the API base URL.
func (c *Client) Location() string {
	return c.cfg.BaseURL
}

// Supports implements contract.MetricSource. The API has no revenue endpoint.
func (c *Client) Supports(metric schema.MetricTag) error {
	if metric == schema.MedianRPUE {
		return fmt.Errorf("revenue data %w", contract.ErrNotImplemented)
	}
	return nil
}

// getJSON issues a GET with retries and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	requestID := uuid.NewString()
	log := c.log.With(zap.String("request_id", requestID), zap.String("method", http.MethodGet), zap.String("url", endpoint))

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.Backoff), uint64(c.cfg.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		body, err := c.do(ctx, endpoint, requestID)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s: %v", contract.ErrFormat, path, err))
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("request failed, retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	start := time.Now()
	err := backoff.RetryNotify(operation, policy, notify)
	if err != nil {
		log.Warn("request failed", zap.Int("attempts", attempt), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}
	log.Debug("request succeeded", zap.Int("attempts", attempt), zap.Duration("duration", time.Since(start)))
	return nil
}

// do performs one attempt bounded by the configured timeout.
func (c *Client) do(ctx context.Context, endpoint, requestID string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", contract.ErrTimeout, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", contract.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", contract.ErrTimeout, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: failed to read response: %v", contract.ErrConnectivity, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("%w: status %d%s", contract.ErrConnectivity, resp.StatusCode, serverMessage(body))
		if resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}
	return body, nil
}

// serverMessage extracts the API's {"message": ...} error text when present.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Message != "":
		return ": " + payload.Message
	case payload.Error != "":
		return ": " + payload.Error
	}
	return ""
}
