package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// PlaceholderImage replaces image references that do not resolve to an
// absolute http(s) URL.
const PlaceholderImage = "https://placehold.co/400x400?text=Shree+Graphics"

var ErrNoPrice = errors.New("product has no usable price")

// Product is the normalized form the rest of the storefront works with. The
// duck-typed price and image shapes of the catalog API never leave this
// package.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
}

// rawProduct mirrors the catalog API payload. Price arrives either as a plain
// number or as a tiered object with a base field; each image entry is either a
// string URL or a {url, alt} object.
type rawProduct struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Price    json.RawMessage   `json:"price"`
	Images   []json.RawMessage `json:"images"`
	Category string            `json:"category"`
}

type tieredPrice struct {
	Base *float64 `json:"base"`
}

type imageObject struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

func (r rawProduct) normalize() (Product, error) {
	price, err := normalizePrice(r.Price)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: %w", r.ID, err)
	}
	return Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    price,
		Image:    normalizeImage(r.Images),
		Category: r.Category,
	}, nil
}

func normalizePrice(raw json.RawMessage) (float64, error) {
	// json.Unmarshal treats null as a no-op, so it must be rejected up front.
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ErrNoPrice
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var tiered tieredPrice
	if err := json.Unmarshal(raw, &tiered); err == nil && tiered.Base != nil {
		return *tiered.Base, nil
	}

	return 0, ErrNoPrice
}

func normalizeImage(entries []json.RawMessage) string {
	if len(entries) == 0 {
		return PlaceholderImage
	}

	var s string
	if err := json.Unmarshal(entries[0], &s); err != nil {
		var obj imageObject
		if err := json.Unmarshal(entries[0], &obj); err != nil {
			return PlaceholderImage
		}
		s = obj.URL
	}

	if !isAbsoluteHTTP(s) {
		return PlaceholderImage
	}
	return s
}

func isAbsoluteHTTP(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
