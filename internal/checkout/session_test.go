package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/cart"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/catalog"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/notify"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/orders"
)

type mockPlacer struct {
	mu       sync.Mutex
	requests []orders.Request
	conf     *orders.Confirmation
	err      error
	started  chan struct{} // closed when PlaceOrder is entered, if set
	release  chan struct{} // blocks PlaceOrder until closed, if set
}

func (m *mockPlacer) PlaceOrder(_ context.Context, req orders.Request) (*orders.Confirmation, error) {
	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.conf, nil
}

func (m *mockPlacer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func newCartWithItems(t *testing.T) (*cart.Store, *cart.MemoryStorage) {
	t.Helper()
	storage := cart.NewMemoryStorage()
	store := cart.NewStore(context.Background(), "session-1", storage, cart.DefaultPricing(), notify.Nop(), zap.NewNop())

	_, err := store.AddItem(context.Background(), catalog.Product{
		ID: "p1", Name: "Logo A", Price: 500, Image: "http://x/a.png",
	}, map[string]string{"text": "Shree"})
	require.NoError(t, err)
	return store, storage
}

func validShipping() ShippingForm {
	return ShippingForm{
		FirstName: "Asha",
		LastName:  "Patil",
		Email:     "asha@example.com",
		Phone:     "9000000000",
		Address:   "12 MG Road",
		City:      "Pune",
		State:     "Maharashtra",
		Pincode:   "411001",
	}
}

func sessionAtReview(t *testing.T, store *cart.Store, placer OrderPlacer) *Session {
	t.Helper()
	sess, err := Begin(store, placer)
	require.NoError(t, err)
	require.NoError(t, sess.SubmitShipping(validShipping()))
	require.NoError(t, sess.SubmitPayment(PaymentForm{Method: MethodCOD}))
	return sess
}

func TestBegin_EmptyCart(t *testing.T) {
	storage := cart.NewMemoryStorage()
	store := cart.NewStore(context.Background(), "session-1", storage, cart.DefaultPricing(), notify.Nop(), zap.NewNop())

	_, err := Begin(store, &mockPlacer{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBegin_StartsAtShipping(t *testing.T) {
	store, _ := newCartWithItems(t)

	sess, err := Begin(store, &mockPlacer{})
	require.NoError(t, err)
	assert.Equal(t, StageShipping, sess.Stage())
}

func TestSubmitShipping_MissingFields(t *testing.T) {
	store, _ := newCartWithItems(t)
	sess, err := Begin(store, &mockPlacer{})
	require.NoError(t, err)

	form := validShipping()
	form.Email = ""
	form.Pincode = "  "

	err = sess.SubmitShipping(form)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"email", "pincode"}, vErr.Fields)
	assert.Equal(t, StageShipping, sess.Stage())
}

func TestSubmitShipping_AdvancesAndDefaultsCountry(t *testing.T) {
	store, _ := newCartWithItems(t)
	sess, err := Begin(store, &mockPlacer{})
	require.NoError(t, err)

	require.NoError(t, sess.SubmitShipping(validShipping()))
	assert.Equal(t, StagePayment, sess.Stage())
	assert.Equal(t, "India", sess.Shipping().Country)
}

func TestSubmitPayment_ValidatesPerMethod(t *testing.T) {
	tests := []struct {
		name    string
		form    PaymentForm
		missing []string
	}{
		{
			name:    "card requires all card fields",
			form:    PaymentForm{Method: MethodCard, CardNumber: "4111111111111111"},
			missing: []string{"card_expiry", "card_cvv", "card_name"},
		},
		{
			name:    "upi requires upi id",
			form:    PaymentForm{Method: MethodUPI},
			missing: []string{"upi_id"},
		},
		{
			name: "cod needs nothing",
			form: PaymentForm{Method: MethodCOD},
		},
		{
			name: "card with all fields",
			form: PaymentForm{
				Method: MethodCard, CardNumber: "4111111111111111",
				CardExpiry: "12/27", CardCVV: "123", CardName: "Asha Patil",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newCartWithItems(t)
			sess, err := Begin(store, &mockPlacer{})
			require.NoError(t, err)
			require.NoError(t, sess.SubmitShipping(validShipping()))

			err = sess.SubmitPayment(tt.form)
			if len(tt.missing) > 0 {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.missing, vErr.Fields)
				assert.Equal(t, StagePayment, sess.Stage())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StageReview, sess.Stage())
		})
	}
}

func TestSubmitPayment_UnknownMethod(t *testing.T) {
	store, _ := newCartWithItems(t)
	sess, err := Begin(store, &mockPlacer{})
	require.NoError(t, err)
	require.NoError(t, sess.SubmitShipping(validShipping()))

	err = sess.SubmitPayment(PaymentForm{Method: "crypto"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestBack_KeepsEnteredData(t *testing.T) {
	store, _ := newCartWithItems(t)
	sess := sessionAtReview(t, store, &mockPlacer{})

	sess.Back()
	assert.Equal(t, StagePayment, sess.Stage())
	assert.Equal(t, MethodCOD, sess.Payment().Method)

	sess.Back()
	assert.Equal(t, StageShipping, sess.Stage())
	assert.Equal(t, "Asha", sess.Shipping().FirstName)

	// Back from shipping stays put
	sess.Back()
	assert.Equal(t, StageShipping, sess.Stage())
}

func TestStageOrderIsEnforced(t *testing.T) {
	store, _ := newCartWithItems(t)
	sess, err := Begin(store, &mockPlacer{})
	require.NoError(t, err)

	assert.ErrorIs(t, sess.SubmitPayment(PaymentForm{Method: MethodCOD}), ErrWrongStage)
	_, err = sess.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrWrongStage)
}

func TestConfirm_Success(t *testing.T) {
	store, storage := newCartWithItems(t)
	placer := &mockPlacer{conf: &orders.Confirmation{ID: "ord-1", Status: "confirmed"}}
	sess := sessionAtReview(t, store, placer)

	conf, err := sess.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", conf.ID)
	assert.Equal(t, StageComplete, sess.Stage())

	// Cart is cleared and the cleared state persisted
	assert.Equal(t, 0, store.ItemCount())
	saved, err := storage.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Empty(t, saved)

	// The order carried the cart snapshot
	require.Len(t, placer.requests, 1)
	req := placer.requests[0]
	require.Len(t, req.Items, 1)
	assert.Equal(t, "p1", req.Items[0].Product)
	assert.Equal(t, 1, req.Items[0].Quantity)
	assert.Equal(t, 500.0, req.Items[0].Price)
	assert.Equal(t, "Shree", req.Items[0].Customization["text"])
	assert.Equal(t, "Asha Patil", req.ShippingAddress.FullName)
	assert.Equal(t, "India", req.ShippingAddress.Country)
	assert.Equal(t, "cod", req.PaymentMethod)
}

func TestConfirm_FailureLeavesCartIntact(t *testing.T) {
	store, _ := newCartWithItems(t)
	placer := &mockPlacer{err: fmt.Errorf("upstream unavailable")}
	sess := sessionAtReview(t, store, placer)

	before := store.ItemCount()
	_, err := sess.Confirm(context.Background())
	require.ErrorContains(t, err, "upstream unavailable")

	assert.Equal(t, before, store.ItemCount())
	assert.Equal(t, StageReview, sess.Stage())

	// Manual retry is allowed
	placer.err = nil
	placer.conf = &orders.Confirmation{ID: "ord-2"}
	_, err = sess.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.ItemCount())
}

func TestConfirm_DoubleSubmitGuard(t *testing.T) {
	store, _ := newCartWithItems(t)
	placer := &mockPlacer{
		conf:    &orders.Confirmation{ID: "ord-1"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	sess := sessionAtReview(t, store, placer)

	done := make(chan error, 1)
	go func() {
		_, err := sess.Confirm(context.Background())
		done <- err
	}()

	// Wait until the first submission is in flight, then try again
	<-placer.started
	_, err := sess.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(placer.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, placer.callCount())
}

func TestConfirm_AfterCompleteIsRejected(t *testing.T) {
	store, _ := newCartWithItems(t)
	placer := &mockPlacer{conf: &orders.Confirmation{ID: "ord-1"}}
	sess := sessionAtReview(t, store, placer)

	_, err := sess.Confirm(context.Background())
	require.NoError(t, err)

	_, err = sess.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrWrongStage)
	assert.Equal(t, 1, placer.callCount())
}
