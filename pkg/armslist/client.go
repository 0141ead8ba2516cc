// Package armslist provides a client for searching Armslist classifieds for
// live firearm listings.
package armslist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elkriver/inventory-cli/internal/resilience"
)

// Listing is one classified ad parsed from a search results page. Price is
// nil when the ad carries no price or the parsed value falls outside the
// plausibility band.
type Listing struct {
	Title     string   `json:"title"`
	Price     *float64 `json:"price"`
	PriceText string   `json:"price_text"`
	Link      string   `json:"link"`
	Location  string   `json:"location"`
	Ships     bool     `json:"ships"`
	Source    string   `json:"source"`
}

// Client defines the Armslist search operation.
type Client interface {
	// Search returns live listings matching the firearm descriptor. An empty
	// result is not an error; a *resilience.NetworkError or
	// *resilience.ParseError is returned when the whole call fails.
	Search(ctx context.Context, manufacturer, model, caliber string) ([]Listing, error)
}

const (
	defaultBaseURL = "https://www.armslist.com"
	defaultTimeout = 15 * time.Second
	defaultRetries = 2

	sourceLabel = "Armslist"
)

// Fixed query parameters for the classifieds search endpoint.
const (
	searchLocation = "usa"
	searchCategory = "all"
)

// browserHeaders mimic a desktop browser; the endpoint serves HTML.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Option configures the Armslist client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *httpClient) {
		c.client.Timeout = timeout
	}
}

// WithMaxRetries sets how many retries follow the first attempt on
// 429/5xx and network-level failures.
func WithMaxRetries(retries int) Option {
	return func(c *httpClient) {
		c.maxRetries = retries
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.client = hc
	}
}

type httpClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
}

// NewClient creates an Armslist client with browser-like headers, retry on
// transient failures, and defensive HTML parsing.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchURL builds the classifieds search URL for a firearm descriptor.
func (c *httpClient) searchURL(manufacturer, model, caliber string) string {
	query := strings.TrimSpace(fmt.Sprintf("%s %s %s", manufacturer, model, caliber))
	return fmt.Sprintf(
		"%s/classifieds/search?search=%s&location=%s&category=%s&posttype=7&ships=&ispowersearch=1&hs=1",
		c.baseURL, url.QueryEscape(query), searchLocation, searchCategory,
	)
}

// Search issues one GET against the search endpoint, retrying on 429/5xx with
// exponential backoff, and parses the resulting HTML. The result is never
// partially consistent: either a (possibly empty) list of well-formed
// listings, or an error for the whole call.
func (c *httpClient) Search(ctx context.Context, manufacturer, model, caliber string) ([]Listing, error) {
	searchURL := c.searchURL(manufacturer, model, caliber)

	zap.L().Debug("armslist: searching",
		zap.String("manufacturer", manufacturer),
		zap.String("model", model),
		zap.String("caliber", caliber),
		zap.String("url", searchURL),
	)

	cfg := resilience.DefaultRetryConfig(c.maxRetries)
	cfg.OnRetry = resilience.RetryLogger("armslist", "search")

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, searchURL)
	})
	if err != nil {
		return nil, err
	}

	// Empty body means no results, not a failure.
	if len(strings.TrimSpace(string(body))) == 0 {
		zap.L().Warn("armslist: empty response", zap.String("url", searchURL))
		return []Listing{}, nil
	}

	listings, err := parseListings(body, c.baseURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("armslist: search complete",
		zap.Int("listings", len(listings)),
	)
	return listings, nil
}

// fetch performs a single GET attempt, classifying failures into the typed
// error taxonomy so the retry layer can decide what is transient.
func (c *httpClient) fetch(ctx context.Context, searchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, resilience.NewNetworkError(resilience.NetworkConnect, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, resilience.NewNetworkError(resilience.NetworkTimeout, err)
		}
		return nil, resilience.NewNetworkError(resilience.NetworkConnect, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resilience.NewHTTPError(resp.StatusCode,
			fmt.Errorf("unexpected status from %s", searchURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewNetworkError(resilience.NetworkConnect, err)
	}
	return body, nil
}
