// Package pagespeed fetches Lighthouse category scores from the Google
// PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

const (
	// DefaultBaseURL is the production PageSpeed Insights endpoint.
	DefaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

	// defaultTimeout bounds one audit request. PageSpeed runs a full
	// Lighthouse audit server-side, which routinely takes the better part
	// of a minute.
	defaultTimeout = 120 * time.Second

	defaultStrategy = "mobile"
)

// DefaultCategories is the full Lighthouse category set, in report order.
var DefaultCategories = []string{"performance", "accessibility", "best-practices", "seo"}

// Error is a per-URL audit failure.
type Error struct {
	URL    string
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pagespeed %s: %s: %v", e.URL, e.Reason, e.Cause)
	}
	return fmt.Sprintf("pagespeed %s: %s", e.URL, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// Auditor runs one Lighthouse audit for a URL.
type Auditor interface {
	Audit(ctx context.Context, target string) (history.ScoreSet, error)
}

// Client calls the PageSpeed Insights API.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	strategy   string
	categories []string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithStrategy(strategy string) Option {
	return func(c *Client) { c.strategy = strategy }
}

func WithCategories(categories []string) Option {
	return func(c *Client) { c.categories = categories }
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit spaces audits at the given requests per second. Zero or
// negative disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		http:       &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		strategy:   defaultStrategy,
		categories: DefaultCategories,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     logger.Named("pagespeed"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score *float64 `json:"score"`
		} `json:"categories"`
	} `json:"lighthouseResult"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Audit fetches the configured categories for target and returns their
// 0-100 integer scores.
func (c *Client) Audit(ctx context.Context, target string) (history.ScoreSet, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{URL: target, Reason: "rate limiter wait", Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(target), nil)
	if err != nil {
		return nil, &Error{URL: target, Reason: "build request", Cause: err}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: target, Reason: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: target, Reason: "read response", Cause: err}
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &Error{URL: target, Reason: fmt.Sprintf("api status %d", resp.StatusCode)}
		}
		return nil, &Error{URL: target, Reason: "decode response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("api status %d", resp.StatusCode)
		if decoded.Error != nil && decoded.Error.Message != "" {
			reason = fmt.Sprintf("api status %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return nil, &Error{URL: target, Reason: reason}
	}

	scores, err := extractScores(target, decoded, c.categories)
	if err != nil {
		return nil, err
	}

	c.logger.Info("audit complete",
		zap.String("url", target),
		zap.String("strategy", c.strategy),
		zap.Duration("took", time.Since(started)),
		zap.Any("scores", scores))

	return scores, nil
}

func (c *Client) requestURL(target string) string {
	q := url.Values{}
	q.Set("url", target)
	q.Set("strategy", c.strategy)
	for _, category := range c.categories {
		q.Add("category", category)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return c.baseURL + "?" + q.Encode()
}

// extractScores pulls each requested category out of the Lighthouse result.
// The API reports scores as 0-1 floats; they are published as 0-100
// integers, so scale and round. Some API surfaces drop the hyphen from
// "best-practices", so a hyphenless key is accepted as a fallback.
func extractScores(target string, decoded apiResponse, categories []string) (history.ScoreSet, error) {
	available := decoded.LighthouseResult.Categories
	scores := make(history.ScoreSet, len(categories))

	for _, category := range categories {
		entry, ok := available[category]
		if !ok {
			entry, ok = available[strings.ReplaceAll(category, "-", "")]
		}
		if !ok || entry.Score == nil {
			return nil, &Error{URL: target, Reason: fmt.Sprintf("category %q missing from response", category)}
		}
		scores[category] = int(math.Round(*entry.Score * 100))
	}

	return scores, nil
}
