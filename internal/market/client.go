// Package market implements the CoinGecko client: global market snapshot,
// coin search, and batched simple-price quotes.
//
// Only the snapshot path surfaces hard errors. Search and price fetches are
// best-effort by policy: a transient upstream outage must degrade a manual
// portfolio command, never crash it, so those paths log and report "no data"
// instead of failing.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/domwatch/dominance-bot/internal/metrics"
)

var (
	// ErrUpstream is returned when the global snapshot request fails:
	// network error, timeout, non-2xx status, or an undecodable body.
	ErrUpstream = errors.New("market: upstream request failed")

	// ErrBadPayload is returned when the snapshot decodes but is missing
	// the total market cap or the per-asset percentage map.
	ErrBadPayload = errors.New("market: snapshot missing required fields")
)

// DefaultBaseURL is the public CoinGecko v3 API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const (
	snapshotTimeout = 10 * time.Second
	searchTimeout   = 5 * time.Second
	priceTimeout    = 10 * time.Second

	userAgent = "dominance-bot/1.0"
)

// Snapshot is the slice of the global endpoint the bot consumes.
type Snapshot struct {
	// TotalMarketCapUSD is the total crypto market capitalization in USD.
	TotalMarketCapUSD float64

	// MarketCapPercentage maps lower-case asset symbol to its share of the
	// total market cap, in percent.
	MarketCapPercentage map[string]float64
}

// Coin is one search result.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CoinFinder resolves a free-form query to a coin. Implementations report
// transient failures as "not found" rather than returning an error.
type CoinFinder interface {
	Search(ctx context.Context, query string) (*Coin, bool)
}

// PriceSource returns USD quotes for CoinGecko coin IDs. Implementations
// return an empty map on failure so callers degrade to unknown prices.
type PriceSource interface {
	Prices(ctx context.Context, ids []string) map[string]decimal.Decimal
}

// Client talks to the CoinGecko HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a CoinGecko client. An empty baseURL selects the public
// API; tests pass an httptest server URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// GlobalSnapshot fetches the global market snapshot.
func (c *Client) GlobalSnapshot(ctx context.Context) (*Snapshot, error) {
	var payload struct {
		Data struct {
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}

	if err := c.getJSON(ctx, "global", c.baseURL+"/global", snapshotTimeout, &payload); err != nil {
		return nil, err
	}

	total, ok := payload.Data.TotalMarketCap["usd"]
	if !ok || len(payload.Data.MarketCapPercentage) == 0 {
		metrics.UpstreamErrorsTotal.WithLabelValues("global").Inc()
		return nil, ErrBadPayload
	}

	return &Snapshot{
		TotalMarketCapUSD:   total,
		MarketCapPercentage: payload.Data.MarketCapPercentage,
	}, nil
}

// Search resolves query to a coin: an exact symbol or ID match wins
// (case-insensitive), otherwise the best-ranked result. Upstream failures
// are logged and reported as not found.
func (c *Client) Search(ctx context.Context, query string) (*Coin, bool) {
	var payload struct {
		Coins []Coin `json:"coins"`
	}

	u := c.baseURL + "/search?query=" + url.QueryEscape(query)
	if err := c.getJSON(ctx, "search", u, searchTimeout, &payload); err != nil {
		slog.Warn("coin search failed", "query", query, "err", err)
		return nil, false
	}
	if len(payload.Coins) == 0 {
		return nil, false
	}

	for i := range payload.Coins {
		coin := &payload.Coins[i]
		if strings.EqualFold(coin.Symbol, query) || strings.EqualFold(coin.ID, query) {
			return coin, true
		}
	}
	return &payload.Coins[0], true
}

// Prices fetches USD quotes for a batch of coin IDs. Any failure yields an
// empty map so wallet views degrade to unknown prices.
func (c *Client) Prices(ctx context.Context, ids []string) map[string]decimal.Decimal {
	quotes := make(map[string]decimal.Decimal)
	if len(ids) == 0 {
		return quotes
	}

	var payload map[string]map[string]decimal.Decimal
	u := c.baseURL + "/simple/price?ids=" + url.QueryEscape(strings.Join(ids, ",")) + "&vs_currencies=usd"
	if err := c.getJSON(ctx, "simple_price", u, priceTimeout, &payload); err != nil {
		slog.Warn("price fetch failed", "ids", len(ids), "err", err)
		return quotes
	}

	for id, vs := range payload {
		if usd, ok := vs["usd"]; ok {
			quotes[id] = usd
		}
	}
	return quotes
}

// getJSON performs a bounded GET and decodes the body, folding all failure
// modes into ErrUpstream.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, timeout time.Duration, v any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}
