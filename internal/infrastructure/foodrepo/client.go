package foodrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ethicalmeat/backend/internal/domain"
)

// Client handles communication with the FoodRepo v3 API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	pageSize    int
	rateLimiter *rate.Limiter
}

// NewClient creates a new FoodRepo API client.
func NewClient(apiKey, baseURL string) *Client {
	// FoodRepo asks for roughly one request every 200ms
	limiter := rate.NewLimiter(rate.Limit(5), 1)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		pageSize:    100,
		rateLimiter: limiter,
	}
}

// page is one page of the v3 products listing.
type page struct {
	Data []struct {
		Attributes productAttributes `json:"attributes"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type productAttributes struct {
	Barcode         string         `json:"barcode"`
	Name            string         `json:"name"`
	Brands          string         `json:"brands"`
	Categories      string         `json:"categories"`
	IngredientsText string         `json:"ingredients_text"`
	Origins         string         `json:"origins"`
	Images          []productImage `json:"images"`
}

type productImage struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// doRequest executes an authenticated GET with retry and backoff. Transient
// failures are retried up to 3 times; a 404 is terminal.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", fmt.Sprintf("Token token=%q", c.apiKey))
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[FOODREPO] Request error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrFoodRepoAPIFailure, err)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			log.Printf("[FOODREPO] API error (attempt %d) - Status: %d", attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFoodRepoAPIFailure, resp.StatusCode)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		return body, nil
	}

	return nil, lastErr
}

// FetchProducts pages through the products listing until limit records with a
// barcode are collected or the listing is exhausted. A limit of 0 means all.
func (c *Client) FetchProducts(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	params := url.Values{}
	params.Add("page[size]", fmt.Sprintf("%d", c.pageSize))
	reqURL := fmt.Sprintf("%s/products?%s", c.baseURL, params.Encode())

	var products []domain.ProductRecord

	for reqURL != "" {
		body, err := c.doRequest(ctx, reqURL)
		if err != nil {
			return nil, err
		}

		var p page
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		for _, item := range p.Data {
			// records without a barcode cannot be looked up later
			if item.Attributes.Barcode == "" {
				continue
			}
			products = append(products, toRecord(item.Attributes))

			if limit > 0 && len(products) >= limit {
				log.Printf("[FOODREPO] Collected %d products (limit reached)", len(products))
				return products, nil
			}
		}

		log.Printf("[FOODREPO] Fetched page, collected %d products", len(products))
		reqURL = p.Links.Next
	}

	log.Printf("[FOODREPO] Collected %d products", len(products))
	return products, nil
}

// toRecord converts API attributes into a product record.
func toRecord(attrs productAttributes) domain.ProductRecord {
	var origins []string
	for _, o := range strings.Split(attrs.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	var images []string
	for _, img := range attrs.Images {
		switch {
		case img.Medium != "":
			images = append(images, img.Medium)
		case img.Large != "":
			images = append(images, img.Large)
		}
	}

	return domain.ProductRecord{
		Barcode:         attrs.Barcode,
		Name:            attrs.Name,
		Brands:          attrs.Brands,
		Categories:      attrs.Categories,
		IngredientsText: attrs.IngredientsText,
		Origins:         origins,
		Images:          images,
	}
}
