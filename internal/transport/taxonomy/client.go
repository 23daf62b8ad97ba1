package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// Client looks up taxonomy term labels over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the taxonomy service settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a taxonomy client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: hc, logger: logger}
}

// Label returns the label of term id in vocabulary.
// Unknown terms return domain.ErrLabelNotFound.
func (c *Client) Label(ctx context.Context, vocabulary, id string) (string, error) {
	u := c.baseURL + "/" + url.PathEscape(vocabulary) + "/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		metrics.LabelLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("taxonomy request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		metrics.LabelLookupsTotal.WithLabelValues("not_found").Inc()
		return "", fmt.Errorf("%s/%s: %w", vocabulary, id, domain.ErrLabelNotFound)
	case res.StatusCode != http.StatusOK:
		metrics.LabelLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("taxonomy service returned %d", res.StatusCode)
	}

	var body struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		metrics.LabelLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode taxonomy response: %w", err)
	}
	if body.Label == "" {
		metrics.LabelLookupsTotal.WithLabelValues("not_found").Inc()
		return "", fmt.Errorf("%s/%s: %w", vocabulary, id, domain.ErrLabelNotFound)
	}

	metrics.LabelLookupsTotal.WithLabelValues("ok").Inc()
	c.logger.Debug("taxonomy label resolved",
		zap.String("vocabulary", vocabulary),
		zap.String("id", id),
	)
	return body.Label, nil
}

// HealthCheck verifies the taxonomy service answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("taxonomy request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 500 {
		return fmt.Errorf("taxonomy service returned %d", res.StatusCode)
	}
	return nil
}
