package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/catalog"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/notify"
)

var ErrInvalidPrice = errors.New("product price is not a finite non-negative number")

// LineItem is one cart entry: a display snapshot of the product captured at
// add time plus the chosen quantity and customization. Adding the same product
// twice creates two entries with distinct IDs.
type LineItem struct {
	ID            string            `json:"id" bson:"id"`
	ProductID     string            `json:"product_id" bson:"product_id"`
	Name          string            `json:"name" bson:"name"`
	Image         string            `json:"image" bson:"image"`
	Price         float64           `json:"price" bson:"price"`
	Quantity      int               `json:"quantity" bson:"quantity"`
	Customization map[string]string `json:"customization,omitempty" bson:"customization,omitempty"`
}

// Pricing holds the derived-total parameters: 18% GST, free shipping above
// the threshold, a flat fee below it.
type Pricing struct {
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingFee           float64
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               0.18,
		FreeShippingThreshold: 500,
		ShippingFee:           50,
	}
}

// Totals is the full derived-total breakdown. It is recomputed from the item
// sequence on every call and never stored.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	Shipping   float64 `json:"shipping"`
	GrandTotal float64 `json:"grand_total"`
}

// Store owns one cart: the ordered line items, the panel-open flag and the
// write-through persistence of every item mutation. It is the sole source of
// truth for the cart panel, the cart page and the checkout flow.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	panelOpen bool

	key      string
	storage  Storage
	pricing  Pricing
	notifier notify.Notifier
	log      *zap.Logger
}

// NewStore hydrates a cart from storage. A corrupt or unreadable saved cart
// counts as no saved cart; the panel always starts closed.
func NewStore(ctx context.Context, key string, storage Storage, pricing Pricing, notifier notify.Notifier, log *zap.Logger) *Store {
	s := &Store{
		key:      key,
		storage:  storage,
		pricing:  pricing,
		notifier: notifier,
		log:      log,
	}

	items, err := storage.Load(ctx, key)
	switch {
	case err == nil:
		s.items = items
	case errors.Is(err, ErrNoSavedCart):
	default:
		log.Warn("discarding saved cart", zap.String("cart", key), zap.Error(err))
	}
	return s
}

// AddItem appends a new entry for the product at quantity 1. The product must
// already be normalized; a non-finite or negative price is rejected rather
// than stored.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, customization map[string]string) (LineItem, error) {
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return LineItem{}, ErrInvalidPrice
	}

	image := p.Image
	if image == "" {
		image = catalog.PlaceholderImage
	}

	item := LineItem{
		ID:            p.ID + "-" + uuid.NewString(),
		ProductID:     p.ID,
		Name:          p.Name,
		Image:         image,
		Price:         p.Price,
		Quantity:      1,
		Customization: customization,
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notifier.Success(fmt.Sprintf("%s added to cart", p.Name))
	return item, nil
}

// RemoveItem deletes the entry with the given id. An unknown id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, itemID string) {
	s.mu.Lock()
	removed := false
	for i, it := range s.items {
		if it.ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if removed {
		s.notifier.Success("Item removed from cart")
	}
}

// UpdateQuantity replaces the entry's quantity in place. A quantity of zero or
// less removes the entry; an unknown id is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, itemID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			s.persistLocked(ctx)
			return
		}
	}
}

// Clear empties the item sequence. The checkout flow calls this exactly once,
// after a confirmed order.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notifier.Success("Cart cleared")
}

// persistLocked writes the current item sequence through to storage. A failed
// write is logged; the in-memory cart stays authoritative for the session.
func (s *Store) persistLocked(ctx context.Context) {
	items := append([]LineItem(nil), s.items...)
	if err := s.storage.Save(ctx, s.key, items); err != nil {
		s.log.Error("cart persist failed", zap.String("cart", s.key), zap.Error(err))
	}
}

// Items returns a copy of the item sequence in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...)
}

// ItemCount is the sum of all quantities, not the number of entries.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

func (s *Store) subtotalLocked() float64 {
	sum := 0.0
	for _, it := range s.items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

func (s *Store) Tax() float64 {
	return s.Subtotal() * s.pricing.TaxRate
}

func (s *Store) Shipping() float64 {
	return s.shippingFor(s.Subtotal())
}

func (s *Store) shippingFor(subtotal float64) float64 {
	if subtotal == 0 || subtotal > s.pricing.FreeShippingThreshold {
		return 0
	}
	return s.pricing.ShippingFee
}

func (s *Store) GrandTotal() float64 {
	return s.CurrentTotals().GrandTotal
}

// CurrentTotals computes all derived totals from one snapshot of the items.
func (s *Store) CurrentTotals() Totals {
	s.mu.Lock()
	subtotal := s.subtotalLocked()
	s.mu.Unlock()

	tax := subtotal * s.pricing.TaxRate
	shipping := s.shippingFor(subtotal)
	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: subtotal + tax + shipping,
	}
}

func (s *Store) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// TogglePanel flips the slide-out panel's visibility and returns the new
// state. Panel state is UI-only and never persisted.
func (s *Store) TogglePanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = !s.panelOpen
	return s.panelOpen
}

func (s *Store) SetPanel(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = open
}
