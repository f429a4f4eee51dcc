package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/cart"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/checkout"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/orders"
)

// CheckoutHandler drives one checkout wizard per cart session.
type CheckoutHandler struct {
	carts   *cart.Manager
	placer  checkout.OrderPlacer
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*checkout.Session
}

func NewCheckoutHandler(carts *cart.Manager, placer checkout.OrderPlacer, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		placer:   placer,
		timeout:  timeout,
		sessions: make(map[string]*checkout.Session),
	}
}

type CheckoutStateDTO struct {
	Stage         checkout.Stage         `json:"stage"`
	Shipping      checkout.ShippingForm  `json:"shipping"`
	PaymentMethod checkout.PaymentMethod `json:"payment_method,omitempty"`
	Items         []cart.LineItem        `json:"items"`
	Totals        cart.Totals            `json:"totals"`
}

func (h *CheckoutHandler) state(ctx context.Context, sessionID string, sess *checkout.Session) CheckoutStateDTO {
	store := h.carts.Cart(ctx, sessionID)
	return CheckoutStateDTO{
		Stage:         sess.Stage(),
		Shipping:      sess.Shipping(),
		PaymentMethod: sess.Payment().Method,
		Items:         store.Items(),
		Totals:        store.CurrentTotals(),
	}
}

func (h *CheckoutHandler) session(sessionID string) *checkout.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[sessionID]
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	sess, err := checkout.Begin(h.carts.Cart(ctx, sessionID), h.placer)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", "add products before checking out")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "could not start checkout")
		return
	}

	h.mu.Lock()
	h.sessions[sessionID] = sess
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, h.state(ctx, sessionID, sess))
}

func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	sess := h.session(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "checkout_not_started", "no checkout in progress")
		return
	}

	respondJSON(w, http.StatusOK, h.state(ctx, sessionID, sess))
}

func (h *CheckoutHandler) Shipping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	sess := h.session(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "checkout_not_started", "no checkout in progress")
		return
	}

	var form checkout.ShippingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.SubmitShipping(form); err != nil {
		respondStageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.state(ctx, sessionID, sess))
}

func (h *CheckoutHandler) Payment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	sess := h.session(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "checkout_not_started", "no checkout in progress")
		return
	}

	var form checkout.PaymentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.SubmitPayment(form); err != nil {
		respondStageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.state(ctx, sessionID, sess))
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	sess := h.session(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "checkout_not_started", "no checkout in progress")
		return
	}

	sess.Back()
	respondJSON(w, http.StatusOK, h.state(ctx, sessionID, sess))
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	sess := h.session(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "checkout_not_started", "no checkout in progress")
		return
	}

	conf, err := sess.Confirm(ctx)
	if err != nil {
		var apiErr *orders.APIError
		switch {
		case errors.Is(err, checkout.ErrInFlight):
			respondError(w, http.StatusConflict, "submission_in_progress", "order submission already in progress")
		case errors.Is(err, checkout.ErrWrongStage):
			respondError(w, http.StatusConflict, "wrong_stage", "checkout is not on the review stage")
		case errors.As(err, &apiErr):
			respondError(w, http.StatusBadGateway, "order_failed", apiErr.Message)
		default:
			respondError(w, http.StatusBadGateway, "order_failed", "order could not be placed")
		}
		return
	}

	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, conf)
}

func respondStageError(w http.ResponseWriter, err error) {
	var vErr *checkout.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: vErr.Error(),
		})
	case errors.Is(err, checkout.ErrUnknownMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", "payment method must be card, upi or cod")
	case errors.Is(err, checkout.ErrWrongStage):
		respondError(w, http.StatusConflict, "wrong_stage", "action not valid for current stage")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
