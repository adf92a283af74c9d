package markets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	retryAttempts  = 5
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
)

// GammaClient fetches market metadata from the Polymarket Gamma API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	baseDelay  time.Duration
}

// NewGammaClient creates a new Gamma API client.
func NewGammaClient(baseURL string, logger *zap.Logger) *GammaClient {
	return &GammaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		baseDelay: retryBaseDelay,
	}
}

// GetMarket fetches one market document by id, retrying transient failures
// with exponential backoff.
func (c *GammaClient) GetMarket(ctx context.Context, marketID int64) (map[string]any, error) {
	var raw map[string]any
	err := c.getJSON(ctx, fmt.Sprintf("/markets/%d", marketID), &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *GammaClient) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error

	delay := c.baseDelay
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
		}

		lastErr = c.getOnce(ctx, path, out)
		if lastErr == nil {
			return nil
		}

		MetadataFetchErrorsTotal.Inc()
		c.logger.Warn("gamma-fetch-retry",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}

	return fmt.Errorf("gamma GET %s failed after %d attempts: %w", path, retryAttempts, lastErr)
}

func (c *GammaClient) getOnce(ctx context.Context, path string, out any) error {
	start := time.Now()
	defer func() {
		MetadataFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode gamma response: %w", err)
	}
	return nil
}
