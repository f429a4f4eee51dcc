package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

// Client reads products from the remote catalog API and normalizes them at
// the boundary.
type Client struct {
	baseURL string
	http    *http.Client
	sfg     singleflight.Group // Collapses concurrent fetches of the same product
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	v, err, _ := c.sfg.Do(id, func() (interface{}, error) {
		return c.fetchProduct(ctx, id)
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

func (c *Client) fetchProduct(ctx context.Context, id string) (Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products/"+url.PathEscape(id), nil)
	if err != nil {
		return Product{}, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Product{}, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var raw rawProduct
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}

	return raw.normalize()
}

// Products lists the catalog. Entries that cannot be normalized (no usable
// price) are dropped from the listing rather than failing the whole page.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var raws []rawProduct
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]Product, 0, len(raws))
	for _, raw := range raws {
		p, err := raw.normalize()
		if err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
