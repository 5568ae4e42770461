package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
)

// OddsSource defines the interface the evaluator consumes. The HTTP layer
// behind it is a collaborator, not part of the scoring core.
type OddsSource interface {
	FetchGameOdds(ctx context.Context, sportKey string, marketKeys []string) ([]Event, error)
	FetchEventProps(ctx context.Context, sportKey, eventID string, marketKeys []string) (*Event, error)
	FetchEvents(ctx context.Context, sportKey string) ([]Event, error)
}

// ClientConfig holds configuration for the odds API client
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	Regions      string
	OddsFormat   string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
}

// DefaultClientConfig returns recommended defaults
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:      "https://api.the-odds-api.com/v4",
		Regions:      "us",
		OddsFormat:   "decimal",
		Timeout:      30 * time.Second,
		MaxRetries:   4,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		RateLimit:    5.0,
	}
}

// Client fetches odds payloads with retry and rate limiting.
type Client struct {
	cfg     ClientConfig
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewClient creates a new rate-limited odds API client
func NewClient(cfg ClientConfig, logger *logrus.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	return &Client{
		cfg:     cfg,
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:  logger,
	}
}

// FetchGameOdds returns events with game-level markets (spreads, totals, h2h).
func (c *Client) FetchGameOdds(ctx context.Context, sportKey string, marketKeys []string) ([]Event, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/odds", c.cfg.BaseURL, sportKey)

	var events []Event
	if err := c.getJSON(ctx, endpoint, marketKeys, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEvents returns the fixture list for a sport without quotes.
func (c *Client) FetchEvents(ctx context.Context, sportKey string) ([]Event, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/events", c.cfg.BaseURL, sportKey)

	var events []Event
	if err := c.getJSON(ctx, endpoint, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEventProps returns player prop markets for a single event. Props are
// only served per-event by the provider.
func (c *Client) FetchEventProps(ctx context.Context, sportKey, eventID string, marketKeys []string) (*Event, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/events/%s/odds", c.cfg.BaseURL, sportKey, eventID)

	var event Event
	if err := c.getJSON(ctx, endpoint, marketKeys, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, marketKeys []string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("regions", c.cfg.Regions)
	params.Set("oddsFormat", c.cfg.OddsFormat)
	if len(marketKeys) > 0 {
		params.Set("markets", strings.Join(marketKeys, ","))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest("error", time.Since(start).Seconds())
		return fmt.Errorf("%w: %v", models.ErrProviderUnhealthy, err)
	}
	defer resp.Body.Close()

	metrics.RecordProviderRequest(fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		}).Warn("Odds provider returned non-200 response")
		return fmt.Errorf("%w: status %d: %s", models.ErrProviderUnhealthy, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
