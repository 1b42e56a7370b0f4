package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ethicalmeat/backend/internal/domain"
)

// BrandInfo is the subset of an Open Food Facts product used for enrichment.
type BrandInfo struct {
	Barcode    string   `json:"barcode"`
	Brands     string   `json:"brands"`
	BrandsTags []string `json:"brands_tags"`
	Categories string   `json:"categories"`
}

// Client enriches product records with brand data from the Open Food Facts
// v2 API. Lookups are cached in memory, including negative results, so a
// barcode is queried at most once per client lifetime.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]*BrandInfo // nil entry = known miss
}

// NewClient creates a new Open Food Facts client.
func NewClient(baseURL string) *Client {
	// Open Food Facts allows 100 requests per minute
	limiter := rate.NewLimiter(rate.Limit(100.0/60.0), 1)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		userAgent:   "ethicalmeat-db/0.1 (ethical.meat@example.com)",
		rateLimiter: limiter,
		cache:       make(map[string]*BrandInfo),
	}
}

type productResponse struct {
	Status  int `json:"status"`
	Product struct {
		Brands     string   `json:"brands"`
		BrandsTags []string `json:"brands_tags"`
		Categories string   `json:"categories"`
	} `json:"product"`
}

// GetProductByBarcode looks up brand information for one barcode. A product
// that is unknown to Open Food Facts yields (nil, nil); the miss is cached so
// repeated batches do not hammer the API.
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (*BrandInfo, error) {
	c.mu.Lock()
	info, seen := c.cache[barcode]
	c.mu.Unlock()
	if seen {
		return info, nil
	}

	info, err := c.fetch(ctx, barcode)
	if err != nil {
		// cache the failure as a miss to avoid repeated lookups
		log.Printf("[OFF] Lookup failed for %s: %v", barcode, err)
		info = nil
	}

	c.mu.Lock()
	c.cache[barcode] = info
	c.mu.Unlock()
	return info, nil
}

func (c *Client) fetch(ctx context.Context, barcode string) (*BrandInfo, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/product/%s", c.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOpenFoodFactsFailure, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrOpenFoodFactsFailure, resp.StatusCode)
	}

	var pr productResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if pr.Status != 1 {
		return nil, nil
	}

	return &BrandInfo{
		Barcode:    barcode,
		Brands:     pr.Product.Brands,
		BrandsTags: pr.Product.BrandsTags,
		Categories: pr.Product.Categories,
	}, nil
}

// EnrichProducts fills in the Brands and BrandSource fields of a product
// batch. Records keep their original data when no brand information is found;
// enrichment failures never fail the batch.
func (c *Client) EnrichProducts(ctx context.Context, products []domain.ProductRecord) []domain.ProductRecord {
	enriched := make([]domain.ProductRecord, 0, len(products))
	found, notFound := 0, 0

	for i, product := range products {
		if (i+1)%100 == 0 {
			log.Printf("[OFF] Enrichment progress: %d/%d (%d enriched, %d not found)",
				i+1, len(products), found, notFound)
		}

		if product.Barcode == "" {
			enriched = append(enriched, product)
			continue
		}

		info, _ := c.GetProductByBarcode(ctx, product.Barcode)

		if info != nil && info.Brands != "" {
			product.Brands = info.Brands
			product.BrandSource = "openfoodfacts"
			found++
		} else {
			product.BrandSource = "none"
			notFound++
		}
		enriched = append(enriched, product)
	}

	log.Printf("[OFF] Enrichment complete: %d found, %d not found of %d", found, notFound, len(products))
	return enriched
}

// CacheSize returns the number of cached lookups, including misses.
func (c *Client) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
