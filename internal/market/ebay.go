package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apierrors "lothelper/internal/errors"
	"lothelper/internal/ratelimit"
)

const (
	browseURL  = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	findingURL = "https://svcs.ebay.com/services/search/FindingService/v1"

	// eBay category 267: Books & Magazines.
	booksCategoryID = "267"
)

// EbayConfig carries the credentials and marketplace for the eBay APIs.
// Missing credentials are not an error; the affected signal is skipped.
type EbayConfig struct {
	AppID       string
	BearerToken string
	Marketplace string
}

// EbayClient implements Provider against the eBay Browse (active listings)
// and Finding (sold comps) APIs.
type EbayClient struct {
	cfg     EbayConfig
	client  *http.Client
	limiter *ratelimit.Limiter
}

// NewEbayClient creates a client with a shared rate limiter across both
// APIs. eBay's free tiers throttle aggressively; 2 req/s with a small burst
// stays comfortably under them.
func NewEbayClient(cfg EbayConfig) *EbayClient {
	if cfg.Marketplace == "" {
		cfg.Marketplace = "EBAY_US"
	}
	return &EbayClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: ratelimit.NewWithBurst("ebay", 2, 4),
	}
}

// SnapshotFor queries active and sold listings for the lot search and
// aggregates winsorized medians. Per-query failures are logged and counted
// as zero signal; the method only errors when the context is cancelled.
func (c *EbayClient) SnapshotFor(ctx context.Context, author, series, theme string) (Snapshot, error) {
	queries := BuildQueries(author, series, theme)
	snapshot := Snapshot{
		Queries:   queries,
		Source:    "ebay",
		FetchedAt: time.Now().Unix(),
	}

	var activeMedians, soldMedians []float64
	for _, q := range queries {
		if c.cfg.BearerToken != "" {
			if err := c.limiter.Wait(ctx); err != nil {
				return Snapshot{}, err
			}
			median, count, err := c.browseActive(ctx, q)
			if err != nil {
				slog.Debug("Browse query failed", "query", q, "error", err)
			} else {
				if median > 0 {
					activeMedians = append(activeMedians, median)
				}
				snapshot.ActiveCount += count
			}
		}
		if c.cfg.AppID != "" {
			if err := c.limiter.Wait(ctx); err != nil {
				return Snapshot{}, err
			}
			median, count, err := c.findingSold(ctx, q)
			if err != nil {
				slog.Debug("Finding query failed", "query", q, "error", err)
			} else {
				if median > 0 {
					soldMedians = append(soldMedians, median)
				}
				snapshot.SoldCount += count
			}
		}
	}

	snapshot.ActiveMedian = Median(activeMedians)
	snapshot.SoldMedian = Median(soldMedians)
	return snapshot, nil
}

type browseResponse struct {
	ItemSummaries []struct {
		Price struct {
			Value string `json:"value"`
		} `json:"price"`
	} `json:"itemSummaries"`
}

func (c *EbayClient) browseActive(ctx context.Context, q string) (float64, int, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("category_ids", booksCategoryID)
	params.Set("limit", "50")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, browseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.cfg.Marketplace)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("browse request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, 0, apierrors.NewRateLimitError("browse API rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("browse request returned status %d", resp.StatusCode)
	}

	var payload browseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("failed to decode browse response: %w", err)
	}
	var prices []float64
	for _, item := range payload.ItemSummaries {
		if v, err := strconv.ParseFloat(item.Price.Value, 64); err == nil {
			prices = append(prices, v)
		}
	}
	return Median(prices), len(prices), nil
}

// The Finding API wraps every field in a single-element array.
type findingResponse struct {
	FindCompletedItemsResponse []struct {
		Ack          []string `json:"ack"`
		SearchResult []struct {
			Item []struct {
				SellingStatus []struct {
					CurrentPrice []struct {
						Value string `json:"__value__"`
					} `json:"currentPrice"`
				} `json:"sellingStatus"`
			} `json:"item"`
		} `json:"searchResult"`
	} `json:"findCompletedItemsResponse"`
}

func (c *EbayClient) findingSold(ctx context.Context, q string) (float64, int, error) {
	params := url.Values{}
	params.Set("OPERATION-NAME", "findCompletedItems")
	params.Set("SERVICE-VERSION", "1.13.0")
	params.Set("SECURITY-APPNAME", c.cfg.AppID)
	params.Set("RESPONSE-DATA-FORMAT", "JSON")
	params.Set("REST-PAYLOAD", "")
	params.Set("keywords", q)
	params.Set("itemFilter(0).name", "SoldItemsOnly")
	params.Set("itemFilter(0).value", "true")
	params.Set("categoryId", booksCategoryID)
	params.Set("paginationInput.entriesPerPage", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, findingURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("finding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, 0, apierrors.NewRateLimitError("finding API rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("finding request returned status %d", resp.StatusCode)
	}

	var payload findingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("failed to decode finding response: %w", err)
	}
	if len(payload.FindCompletedItemsResponse) == 0 {
		return 0, 0, nil
	}
	root := payload.FindCompletedItemsResponse[0]
	if len(root.Ack) == 0 || root.Ack[0] != "Success" {
		return 0, 0, fmt.Errorf("finding request not acknowledged")
	}

	var prices []float64
	for _, result := range root.SearchResult {
		for _, item := range result.Item {
			for _, status := range item.SellingStatus {
				for _, price := range status.CurrentPrice {
					if v, err := strconv.ParseFloat(price.Value, 64); err == nil {
						prices = append(prices, v)
					}
				}
			}
		}
	}
	return Median(prices), len(prices), nil
}
