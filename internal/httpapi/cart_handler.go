package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/cart"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/catalog"
)

// ProductFetcher is the slice of the catalog client the cart handler needs to
// snapshot a product at add time.
type ProductFetcher interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

type CartHandler struct {
	carts   *cart.Manager
	catalog ProductFetcher
	timeout time.Duration
}

func NewCartHandler(carts *cart.Manager, catalog ProductFetcher, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID     string            `json:"product_id"`
	Customization map[string]string `json:"customization,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SetPanelRequestDTO struct {
	Open bool `json:"open"`
}

type CartResponseDTO struct {
	Items     []cart.LineItem `json:"items"`
	ItemCount int             `json:"item_count"`
	PanelOpen bool            `json:"panel_open"`
	Totals    cart.Totals     `json:"totals"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func cartResponse(s *cart.Store) CartResponseDTO {
	return CartResponseDTO{
		Items:     s.Items(),
		ItemCount: s.ItemCount(),
		PanelOpen: s.PanelOpen(),
		Totals:    s.CurrentTotals(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.carts.Cart(ctx, sessionID)))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	// Snapshot the product at add time; the entry keeps this snapshot even if
	// the catalog changes later.
	product, err := h.catalog.Product(ctx, req.ProductID)
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

	store := h.carts.Cart(ctx, sessionID)
	if _, err := store.AddItem(ctx, product, req.Customization); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_product_data", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// A quantity of zero or less removes the item; that is intentional, not an
	// error.
	store := h.carts.Cart(ctx, sessionID)
	store.UpdateQuantity(ctx, itemID, req.Quantity)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	store := h.carts.Cart(ctx, sessionID)
	store.RemoveItem(ctx, itemID)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	store := h.carts.Cart(ctx, sessionID)
	store.Clear(ctx)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) Totals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	respondJSON(w, http.StatusOK, h.carts.Cart(ctx, sessionID).CurrentTotals())
}

func (h *CartHandler) TogglePanel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	open := h.carts.Cart(ctx, sessionID).TogglePanel()
	respondJSON(w, http.StatusOK, map[string]bool{"panel_open": open})
}

func (h *CartHandler) SetPanel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var req SetPanelRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.carts.Cart(ctx, sessionID).SetPanel(req.Open)
	respondJSON(w, http.StatusOK, map[string]bool{"panel_open": req.Open})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
