package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/catalog"
)

// ProductLister is the slice of the catalog client the product handler needs.
type ProductLister interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Product(ctx context.Context, id string) (catalog.Product, error)
}

type ProductHandler struct {
	catalog ProductLister
	timeout time.Duration
}

func NewProductHandler(catalog ProductLister, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: catalog, timeout: timeout}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Products(ctx)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not fetch products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.catalog.Product(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "not_found", "product not found")
		case errors.Is(err, catalog.ErrNoPrice):
			respondError(w, http.StatusUnprocessableEntity, "invalid_product_data", err.Error())
		default:
			respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not fetch product")
		}
		return
	}

	respondJSON(w, http.StatusOK, product)
}
