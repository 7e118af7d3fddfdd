package explorer

import (
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
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

const limiterKey = "explorer"

// response is the Etherscan-compatible envelope
type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// proxyResponse is the JSON-RPC shaped envelope returned by module=proxy
type proxyResponse struct {
	Result string          `json:"result"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Client performs rate-limited, retried GET requests against an Etherscan v2 compatible API
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter adapters.RateLimiter
	metrics *metrics.ScanMetrics
	logger  *zap.Logger

	initialInterval time.Duration
	maxRetryTime    time.Duration
}

// NewClient creates an explorer client. limiter and m may be nil.
func NewClient(cfg config.ExplorerConfig, limiter adapters.RateLimiter, m *metrics.ScanMetrics, logger *zap.Logger) *Client {
	maxRetryTime := cfg.MaxRetryTime
	if maxRetryTime <= 0 {
		maxRetryTime = time.Minute
	}

	return &Client{
		http:            &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:         cfg.APIURL,
		apiKey:          cfg.APIKey,
		limiter:         limiter,
		metrics:         m,
		logger:          logger,
		initialInterval: time.Second,
		maxRetryTime:    maxRetryTime,
	}
}

// errThrottled marks a retryable throttling response
var errThrottled = errors.New("throttled")

// Call performs an account/block API request and returns the result payload.
// A "no records" response yields an empty JSON array and no error.
func (c *Client) Call(ctx context.Context, params url.Values) (json.RawMessage, error) {
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var env response
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %v: %w", err, entities.ErrDecode)
	}

	if env.Status == "0" {
		if isEmptyMessage(env.Message) || isEmptyMessage(resultText(env.Result)) {
			return json.RawMessage("[]"), nil
		}
		return nil, fmt.Errorf("explorer error: %s: %s: %w", env.Message, resultText(env.Result), entities.ErrUpstream)
	}

	return env.Result, nil
}

// CallProxy performs a module=proxy request and returns the hex result
func (c *Client) CallProxy(ctx context.Context, params url.Values) (string, error) {
	body, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}

	var env proxyResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to decode explorer proxy response: %v: %w", err, entities.ErrDecode)
	}
	if len(env.Error) > 0 && string(env.Error) != "null" {
		return "", fmt.Errorf("explorer proxy error: %s: %w", string(env.Error), entities.ErrUpstream)
	}
	if !strings.HasPrefix(env.Result, "0x") {
		return "", fmt.Errorf("unexpected proxy result %q: %w", env.Result, entities.ErrDecode)
	}
	return env.Result, nil
}

// get executes the request with exponential backoff on throttling and transient network errors
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	method := params.Get("module") + "." + params.Get("action")

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}
	requestURL := c.baseURL + "?" + query.Encode()

	var respBody []byte
	throttled := false

	operation := func() error {
		throttled = false
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, limiterKey); err != nil {
				return backoff.Permanent(err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				c.logger.Warn("Failed to close response body", zap.String("method", method), zap.Error(err))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			throttled = true
			c.logger.Warn("Explorer rate limited, retrying with backoff", zap.String("method", method))
			return errThrottled
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body)))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if isThrottleBody(body) {
			throttled = true
			c.logger.Warn("Explorer reported rate limit, retrying with backoff", zap.String("method", method))
			return errThrottled
		}

		respBody = body
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = c.maxRetryTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	c.metrics.ObserveUpstream(limiterKey, method, err)
	if err != nil {
		if throttled {
			return nil, fmt.Errorf("explorer %s: %v: %w", method, err, entities.ErrRateLimited)
		}
		return nil, fmt.Errorf("explorer %s: %v: %w", method, err, entities.ErrUpstream)
	}

	return respBody, nil
}

func isEmptyMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no transactions found") || strings.Contains(lower, "no records found")
}

// isThrottleBody detects Etherscan's HTTP 200 rate limit envelope
func isThrottleBody(body []byte) bool {
	var env response
	if err := json.Unmarshal(body, &env); err != nil || env.Status != "0" {
		return false
	}
	return strings.Contains(strings.ToLower(resultText(env.Result)), "rate limit")
}

func resultText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
