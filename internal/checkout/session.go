package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/cart"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/orders"
)

// Stage of the linear checkout wizard. The only back-edges are explicit Back
// calls; Complete is terminal.
type Stage string

const (
	StageShipping Stage = "shipping"
	StagePayment  Stage = "payment"
	StageReview   Stage = "review"
	StageComplete Stage = "complete"
)

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
	MethodCOD  PaymentMethod = "cod"
)

var (
	ErrEmptyCart     = errors.New("nothing to checkout")
	ErrInFlight      = errors.New("order submission already in progress")
	ErrWrongStage    = errors.New("action not valid for current stage")
	ErrUnknownMethod = errors.New("unknown payment method")
)

type ShippingForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country"`
}

type PaymentForm struct {
	Method     PaymentMethod `json:"method"`
	CardNumber string        `json:"card_number,omitempty"`
	CardExpiry string        `json:"card_expiry,omitempty"`
	CardCVV    string        `json:"card_cvv,omitempty"`
	CardName   string        `json:"card_name,omitempty"`
	UPIID      string        `json:"upi_id,omitempty"`
}

// ValidationError names the required fields missing from a stage submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// OrderPlacer is the slice of the orders client the wizard needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order orders.Request) (*orders.Confirmation, error)
}

// Session drives one cart through shipping, payment and review. Entered data
// survives Back; the cart is cleared only after a confirmed order.
type Session struct {
	mu       sync.Mutex
	stage    Stage
	cart     *cart.Store
	placer   OrderPlacer
	shipping ShippingForm
	payment  PaymentForm
	inFlight bool
}

// Begin starts the wizard. An empty cart is refused so the caller can present
// a nothing-to-checkout state instead.
func Begin(c *cart.Store, placer OrderPlacer) (*Session, error) {
	if c.ItemCount() == 0 {
		return nil, ErrEmptyCart
	}
	return &Session{stage: StageShipping, cart: c, placer: placer}, nil
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) Shipping() ShippingForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shipping
}

func (s *Session) Payment() PaymentForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payment
}

// SubmitShipping validates the address and advances to payment. All fields
// except country are required; country defaults to India.
func (s *Session) SubmitShipping(form ShippingForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageShipping {
		return ErrWrongStage
	}

	var missing []string
	required := []struct{ name, value string }{
		{"first_name", form.FirstName},
		{"last_name", form.LastName},
		{"email", form.Email},
		{"phone", form.Phone},
		{"address", form.Address},
		{"city", form.City},
		{"state", form.State},
		{"pincode", form.Pincode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	if strings.TrimSpace(form.Country) == "" {
		form.Country = "India"
	}
	s.shipping = form
	s.stage = StagePayment
	return nil
}

// SubmitPayment validates only the fields relevant to the chosen method and
// advances to review.
func (s *Session) SubmitPayment(form PaymentForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StagePayment {
		return ErrWrongStage
	}

	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	switch form.Method {
	case MethodCard:
		check("card_number", form.CardNumber)
		check("card_expiry", form.CardExpiry)
		check("card_cvv", form.CardCVV)
		check("card_name", form.CardName)
	case MethodUPI:
		check("upi_id", form.UPIID)
	case MethodCOD:
	default:
		return ErrUnknownMethod
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	s.payment = form
	s.stage = StageReview
	return nil
}

// Back returns to the previous stage without discarding entered data.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stage {
	case StagePayment:
		s.stage = StageShipping
	case StageReview:
		s.stage = StagePayment
	}
}

// Confirm submits the order. Only one submission may be in flight; on success
// the cart is cleared and the session completes, on failure the cart is
// untouched and the session stays on review for a manual retry.
func (s *Session) Confirm(ctx context.Context) (*orders.Confirmation, error) {
	s.mu.Lock()
	if s.stage != StageReview {
		s.mu.Unlock()
		return nil, ErrWrongStage
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrInFlight
	}
	s.inFlight = true
	shipping := s.shipping
	method := s.payment.Method
	s.mu.Unlock()

	conf, err := s.placer.PlaceOrder(ctx, s.buildOrder(shipping, method))

	s.mu.Lock()
	s.inFlight = false
	if err == nil {
		s.stage = StageComplete
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.cart.Clear(ctx)
	return conf, nil
}

func (s *Session) buildOrder(shipping ShippingForm, method PaymentMethod) orders.Request {
	items := s.cart.Items()
	orderItems := make([]orders.Item, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, orders.Item{
			Product:       it.ProductID,
			Quantity:      it.Quantity,
			Customization: it.Customization,
			Price:         it.Price,
		})
	}

	return orders.Request{
		Items: orderItems,
		ShippingAddress: orders.Address{
			FullName: strings.TrimSpace(shipping.FirstName + " " + shipping.LastName),
			Email:    shipping.Email,
			Phone:    shipping.Phone,
			Address:  shipping.Address,
			City:     shipping.City,
			State:    shipping.State,
			Pincode:  shipping.Pincode,
			Country:  shipping.Country,
		},
		PaymentMethod: string(method),
	}
}
