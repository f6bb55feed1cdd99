// Package geckoterminal queries the GeckoTerminal pool index.
package geckoterminal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sellImpact/internal/model"
)

const (
	DefaultBaseURL = "https://api.geckoterminal.com/api/v2"
	DefaultNetwork = "world-chain"
	// acceptHeader pins the versioned response schema.
	acceptHeader   = "application/json;version=20230203"
	defaultTimeout = 10 * time.Second
)

// Config holds client settings.
type Config struct {
	BaseURL     string
	Network     string
	Timeout     time.Duration
	BackoffStep time.Duration
	BackoffCap  time.Duration
	MaxFailures int
}

// Client fetches pool resources and converts them into model.Pool values.
type Client struct {
	http    *resty.Client
	network string
	backoff *Backoff
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", acceptHeader)

	return &Client{
		http:    httpClient,
		network: cfg.Network,
		backoff: NewBackoff(cfg.BackoffStep, cfg.BackoffCap, cfg.MaxFailures),
		logger:  logger,
	}
}

// Network returns the network slug used in request paths.
func (c *Client) Network() string {
	return c.network
}

// Backoff exposes the shared failure counter.
func (c *Client) Backoff() *Backoff {
	return c.backoff
}

// TokenPools lists the pools that trade token. Filtering and ranking are left
// to the caller.
func (c *Client) TokenPools(ctx context.Context, token string) ([]model.Pool, error) {
	var resp poolListResponse
	err := c.get(ctx, "/networks/{network}/tokens/{token}/pools", map[string]string{
		"network": c.network,
		"token":   token,
	}, &resp)
	if err != nil {
		return nil, err
	}

	pools := make([]model.Pool, 0, len(resp.Data))
	for _, res := range resp.Data {
		pools = append(pools, toPool(c.network, res))
	}
	return pools, nil
}

// Pool fetches a single pool including token USD prices.
func (c *Client) Pool(ctx context.Context, address string) (model.Pool, error) {
	var resp poolResponse
	err := c.get(ctx, "/networks/{network}/pools/{pool}", map[string]string{
		"network": c.network,
		"pool":    address,
	}, &resp)
	if err != nil {
		return model.Pool{}, err
	}
	if resp.Data.ID == "" && resp.Data.Attributes.Address == "" {
		return model.Pool{}, fmt.Errorf("%w: empty pool resource for %s", model.ErrUpstreamUnavailable, address)
	}
	return toPool(c.network, resp.Data), nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := c.backoff.Wait(ctx); err != nil {
		return err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		c.backoff.Failure()
		c.logger.Warn("pool index request failed", zap.String("path", path), zap.Any("params", params), zap.Int("failures", c.backoff.Failures()), zap.Error(err))
		return fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if res.IsError() {
		c.backoff.Failure()
		body := string(res.Body())
		if len(body) > 200 {
			body = body[:200]
		}
		c.logger.Warn("pool index status error", zap.String("path", path), zap.Int("status", res.StatusCode()), zap.Int("failures", c.backoff.Failures()), zap.String("body", body))
		return fmt.Errorf("%w: http %d", model.ErrUpstreamUnavailable, res.StatusCode())
	}

	c.backoff.Success()
	c.logger.Debug("pool index request", zap.String("path", path), zap.Any("params", params), zap.Duration("elapsed", res.Time()))
	return nil
}
