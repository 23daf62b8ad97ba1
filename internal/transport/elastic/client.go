package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// StatusError is a non-success response from the search endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("search endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps every status failure to domain.ErrSearchEndpoint.
func (e *StatusError) Unwrap() error { return domain.ErrSearchEndpoint }

// Client posts compiled query documents to a search endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	headers  http.Header
	logger   *zap.Logger
}

// Config holds the search endpoint settings.
type Config struct {
	Endpoint   string
	Timeout    time.Duration // zero leaves timeouts to the caller's context
	HTTPClient *http.Client
	Headers    map[string]string
	Logger     *zap.Logger
}

// NewClient creates a search endpoint client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		// Unset ${VAR:-} placeholders expand to empty values.
		if v == "" {
			continue
		}
		headers.Set(k, v)
	}
	return &Client{endpoint: cfg.Endpoint, http: hc, headers: headers, logger: logger}
}

// Search implements coordinator.Searcher.
func (c *Client) Search(ctx context.Context, doc *compiler.Document) (intent.Response, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return intent.Response{}, fmt.Errorf("encode query document: %w", err)
	}

	var resp intent.Response
	if err := c.post(ctx, body, &resp); err != nil {
		return intent.Response{}, err
	}
	return resp, nil
}

// HealthCheck sends an empty probe query to the endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	var resp intent.Response
	if err := c.post(ctx, []byte(`{"size":0}`), &resp); err != nil {
		return fmt.Errorf("probe search endpoint: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header[k] = v
	}

	start := time.Now()
	res, err := c.http.Do(req)
	metrics.EndpointRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.EndpointRequestsTotal.WithLabelValues("cancelled").Inc()
			return fmt.Errorf("search request: %w", err)
		}
		metrics.EndpointRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("search request: %w: %w", domain.ErrSearchEndpoint, err)
	}
	defer res.Body.Close()

	metrics.EndpointRequestsTotal.WithLabelValues(strconv.Itoa(res.StatusCode)).Inc()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: res.StatusCode, Body: errorReason(raw)}
		c.logger.Warn("search endpoint error",
			zap.Int("status", res.StatusCode),
			zap.String("reason", statusErr.Body),
		)
		return statusErr
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w: %w", domain.ErrSearchEndpoint, err)
	}
	c.logger.Debug("search endpoint responded",
		zap.Int("status", res.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// errorReason extracts error.reason from an engine error body, falling
// back to the raw body.
func errorReason(body []byte) string {
	var parsed struct {
		Error struct {
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Reason != "" {
		return parsed.Error.Reason
	}
	return string(bytes.TrimSpace(body))
}
