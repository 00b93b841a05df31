package checkout_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"crackerstore/internal/cart"
	"crackerstore/internal/checkout"
	"crackerstore/internal/models"
	"crackerstore/internal/orderapi"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderCreator is a mock implementation of checkout.OrderCreator
type MockOrderCreator struct {
	mock.Mock
}

func (m *MockOrderCreator) CreateOrder(ctx context.Context, req orderapi.CreateOrderRequest) (*models.OrderSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderSummary), args.Error(1)
}

type fakeTimer struct {
	clock   *fakeClock
	due     time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 10, 30, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) checkout.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, due: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward one second at a time, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	end := c.Now().Add(d)
	for {
		c.mu.Lock()
		next := c.now.Add(time.Second)
		if next.After(end) {
			c.now = end
			c.mu.Unlock()
			break
		}
		c.now = next
		c.mu.Unlock()
		c.fireDue()
	}
	c.fireDue()
}

func (c *fakeClock) fireDue() {
	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.due.After(c.now) {
				t.fired = true
				due = append(due, t)
			}
		}
		c.mu.Unlock()
		if len(due) == 0 {
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
		for _, t := range due {
			t.fn()
		}
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type failingExporter struct{}

func (failingExporter) Export(*checkout.Receipt) ([]byte, error) {
	return nil, errors.New("disk full")
}

func product(id, name, price string, stock int) models.Product {
	return models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func setup(t *testing.T, opts checkout.Options) (*checkout.Coordinator, *cart.Store, *MockOrderCreator, *fakeClock) {
	t.Helper()
	store := cart.NewStore()
	api := new(MockOrderCreator)
	clock := newFakeClock()
	opts.Clock = clock
	return checkout.NewCoordinator(store, api, opts), store, api, clock
}

func TestSubmit_ValidationStopsBeforeNetwork(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("", "12345")

	receipt, err := co.Submit(context.Background())
	assert.Nil(t, receipt)

	var verr *checkout.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Customer name is required", verr.Fields["name"])
	assert.Equal(t, "Please enter a valid 10-digit mobile number", verr.Fields["mobile"])
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, checkout.Idle, co.State())
	api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)

	snap := co.Snapshot()
	assert.Len(t, snap.FieldErrors, 2)

	// Editing a field clears its error only.
	co.SetCustomer("Asha", "12345")
	snap = co.Snapshot()
	assert.NotContains(t, snap.FieldErrors, "name")
	assert.Contains(t, snap.FieldErrors, "mobile")
}

func TestSubmit_EmptyCartRejected(t *testing.T) {
	co, _, api, _ := setup(t, checkout.Options{})
	co.SetCustomer("Asha", "9876543210")

	_, err := co.Submit(context.Background())
	var verr *checkout.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "cart")
	api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestSubmit_TrimsCustomerAndSendsCart(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("  Asha  ", " 9876543210 ")
	co.SetCouponCode("firstsale15")

	api.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req orderapi.CreateOrderRequest) bool {
		return req.UserName == "Asha" &&
			req.UserMobile == "9876543210" &&
			req.CouponCode == "firstsale15" &&
			len(req.CartItems) == 1 &&
			req.CartItems[0].Qty == 2 &&
			req.CartItems[0].Price.Equal(decimal.NewFromInt(100))
	})).Return(&models.OrderSummary{}, nil).Once()

	_, err := co.Submit(context.Background())
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestSubmit_NoCouponUsesCartTotal(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "250", 5))
	store.AddItem(product("p2", "Rocket", "500", 5))
	co.SetCustomer("Asha", "9876543210")

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{
		CouponApplied: false,
		OrderTotal:    dec("9999"),
		NetTotal:      dec("9999"),
	}, nil).Once()

	receipt, err := co.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, receipt)

	assert.False(t, receipt.CouponApplied)
	assert.True(t, receipt.OrderTotal.Equal(decimal.NewFromInt(750)))
	assert.True(t, receipt.NetTotal.Equal(decimal.NewFromInt(750)))
	assert.True(t, receipt.DiscountAmount.IsZero())
	assert.Len(t, receipt.Items, 2)
	assert.Equal(t, "Order_Asha_2024-10-30.pdf", receipt.FileName)
	assert.Equal(t, checkout.HoldingBeforeClear, co.State())
}

func TestSubmit_ServerFiguresWinOverPreview(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	for i := 0; i < 10; i++ {
		store.AddItem(product("p1", "Sky Shot", "100", 20))
	}
	co.SetCustomer("Asha", "9876543210")
	preview := co.SetCouponCode("FIRSTSALE15")
	require.NotNil(t, preview)
	assert.Equal(t, "150", preview.Amount.String())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{
		CouponApplied:   true,
		CouponCode:      "FIRSTSALE15",
		OrderTotal:      dec("1000"),
		DiscountPercent: dec("15"),
		DiscountAmount:  dec("150"),
		NetTotal:        dec("850"),
		CartItems: []models.OrderItem{
			{ID: "p1", Name: "Sky Shot", Price: decimal.NewFromInt(100), Qty: 10},
		},
	}, nil).Once()

	receipt, err := co.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, receipt.CouponApplied)
	assert.Equal(t, "1000.00", receipt.OrderTotal.StringFixed(2))
	assert.Equal(t, "150.00", receipt.DiscountAmount.StringFixed(2))
	assert.Equal(t, "15", receipt.DiscountPercent.String())
	assert.Equal(t, "850.00", receipt.NetTotal.StringFixed(2))

	_, doc := co.Receipt()
	text := string(doc)
	assert.Contains(t, text, "Order Total: Rs 1000.00")
	assert.Contains(t, text, "Discount: 15% (Rs 150.00)")
	assert.Contains(t, text, "Net Total: Rs 850.00")
	assert.Contains(t, text, "Sky Shot | 10 | Rs 100.00 | Rs 1000.00")
}

func TestSubmit_ServerDiscountDiffersFromPreview(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	for i := 0; i < 10; i++ {
		store.AddItem(product("p1", "Sky Shot", "100", 20))
	}
	co.SetCustomer("Asha", "9876543210")
	co.SetCouponCode("FIRSTSALE15")

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{
		CouponApplied:   true,
		OrderTotal:      dec("1000"),
		DiscountPercent: dec("10"),
		DiscountAmount:  dec("100"),
		NetTotal:        dec("900"),
	}, nil).Once()

	receipt, err := co.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "900.00", receipt.NetTotal.StringFixed(2))
	assert.Equal(t, "100.00", receipt.DiscountAmount.StringFixed(2))
	assert.Nil(t, co.Snapshot().Preview, "preview dropped once the order is placed")
}

func TestSubmit_AppliedCouponMissingNetFallsBack(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sky Shot", "100", 20))
	co.SetCustomer("Asha", "9876543210")

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{
		CouponApplied: true,
		OrderTotal:    dec("95"),
	}, nil).Once()

	receipt, err := co.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "95.00", receipt.NetTotal.StringFixed(2))
	assert.True(t, receipt.DiscountAmount.IsZero())
}

func TestHold_ClearsAfterThirtySeconds(t *testing.T) {
	var ticks []int
	cleared := 0
	co, store, api, clock := setup(t, checkout.Options{
		OnTick:    func(n int) { ticks = append(ticks, n) },
		OnCleared: func() { cleared++ },
	})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{}, nil).Once()

	_, err := co.Submit(context.Background())
	require.NoError(t, err)

	// The cart is read-only during the hold.
	assert.True(t, store.Frozen())
	assert.False(t, store.Increment("p1"))
	assert.False(t, store.AddItem(product("p2", "Rocket", "50", 5)))
	assert.Equal(t, 30, co.Snapshot().HoldRemaining)

	_, err = co.Submit(context.Background())
	assert.ErrorIs(t, err, checkout.ErrOrderOnHold)

	clock.Advance(29 * time.Second)
	assert.Equal(t, checkout.HoldingBeforeClear, co.State())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "Asha", co.Snapshot().Customer.Name)
	assert.Equal(t, 1, co.Snapshot().HoldRemaining)
	assert.Equal(t, 0, cleared)

	clock.Advance(time.Second)
	assert.Equal(t, checkout.Idle, co.State())
	assert.True(t, store.IsEmpty())
	assert.False(t, store.Frozen())
	snap := co.Snapshot()
	assert.Empty(t, snap.Customer.Name)
	assert.Empty(t, snap.Customer.Mobile)
	assert.Empty(t, snap.CouponCode)
	assert.Equal(t, 1, cleared)

	require.NotEmpty(t, ticks)
	assert.Equal(t, 29, ticks[0])
	assert.Equal(t, 0, clock.pending())
}

func TestClearCart_CancelsHold(t *testing.T) {
	cleared := 0
	co, store, api, clock := setup(t, checkout.Options{OnCleared: func() { cleared++ }})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{}, nil).Once()

	_, err := co.Submit(context.Background())
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	require.NoError(t, co.ClearCart())
	assert.Equal(t, checkout.Idle, co.State())
	assert.True(t, store.IsEmpty())
	assert.Equal(t, 0, clock.pending())

	// A new cart built after the manual clear survives the old deadline.
	store.AddItem(product("p2", "Rocket", "50", 5))
	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, cleared)
}

func TestClose_StopsTimers(t *testing.T) {
	co, store, api, clock := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{}, nil).Once()

	_, err := co.Submit(context.Background())
	require.NoError(t, err)
	co.Close()
	assert.Equal(t, 0, clock.pending())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Len())
}

func TestSubmit_DuplicateWhileInFlight(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")

	entered := make(chan struct{})
	release := make(chan struct{})
	api.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&models.OrderSummary{}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := co.Submit(context.Background())
		done <- err
	}()

	<-entered
	assert.Equal(t, checkout.Submitting, co.State())
	_, err := co.Submit(context.Background())
	assert.ErrorIs(t, err, checkout.ErrSubmitInFlight)
	assert.ErrorIs(t, co.ClearCart(), checkout.ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	api.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestSubmit_FailureKeepsCartAndCustomer(t *testing.T) {
	co, store, api, clock := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	co.SetCouponCode("FIRSTSALE15")

	api.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &orderapi.APIError{Op: "create_order", Message: "Insufficient stock for Sparkler"}).Once()

	receipt, err := co.Submit(context.Background())
	assert.Nil(t, receipt)

	var serr *checkout.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Insufficient stock for Sparkler", serr.Message)

	snap := co.Snapshot()
	assert.Equal(t, checkout.Errored, snap.State)
	assert.Equal(t, "submission", snap.ErrorKind)
	assert.Empty(t, snap.CouponCode)
	assert.Nil(t, snap.Preview)
	assert.Equal(t, "Asha", snap.Customer.Name)
	assert.Equal(t, 1, store.Len())
	assert.False(t, store.Frozen())
	assert.Equal(t, 0, clock.pending())
	assert.True(t, snap.CanSubmit)
}

func TestSubmit_CouponRejection(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	co.SetCouponCode("FIRSTSALE15")

	api.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &orderapi.APIError{Op: "create_order", Message: "Coupon already used"}).Once()

	_, err := co.Submit(context.Background())
	var cerr *checkout.CouponError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "FIRSTSALE15", cerr.Code)
	assert.Equal(t, "coupon", checkout.ErrorKind(err))
}

func TestSubmit_RetryAfterFailure(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")

	api.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &orderapi.APIError{Message: "Server busy"}).Once()
	api.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.OrderSummary{}, nil).Once()

	_, err := co.Submit(context.Background())
	require.Error(t, err)
	_, err = co.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, checkout.HoldingBeforeClear, co.State())
}

func TestSubmit_ReceiptFailureIsPartialSuccess(t *testing.T) {
	placed := 0
	co, store, api, clock := setup(t, checkout.Options{
		Exporter: failingExporter{},
		OnPlaced: func(*checkout.Receipt) { placed++ },
	})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{}, nil).Once()

	receipt, err := co.Submit(context.Background())
	require.NotNil(t, receipt)
	var rerr *checkout.ReceiptError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 1, placed)

	snap := co.Snapshot()
	assert.Equal(t, "receipt", snap.ErrorKind)
	assert.Equal(t, checkout.HoldingBeforeClear, snap.State)

	clock.Advance(checkout.HoldPeriod)
	assert.True(t, store.IsEmpty())
}

func TestSnapshot_PreviewFollowsCart(t *testing.T) {
	co, store, _, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCouponCode("FIRSTSALE15")

	snap := co.Snapshot()
	require.NotNil(t, snap.Preview)
	assert.Equal(t, "15.00", snap.Preview.Amount.StringFixed(2))

	store.Increment("p1")
	snap = co.Snapshot()
	assert.Equal(t, "30.00", snap.Preview.Amount.StringFixed(2))
	assert.Equal(t, "170.00", snap.Preview.NetTotal.StringFixed(2))

	co.SetCouponCode("BOGUS")
	assert.Nil(t, co.Snapshot().Preview)
}

func TestSubmit_CartFrozenWhileInFlight(t *testing.T) {
	co, store, api, clock := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")

	entered := make(chan struct{})
	release := make(chan struct{})
	api.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&models.OrderSummary{}, nil).Once()

	done := make(chan error, 1)
	var receipt *checkout.Receipt
	go func() {
		var err error
		receipt, err = co.Submit(context.Background())
		done <- err
	}()

	<-entered
	assert.True(t, store.Frozen())
	assert.False(t, store.AddItem(product("p2", "Rocket", "50", 5)))
	assert.False(t, store.Increment("p1"))
	assert.False(t, store.RemoveItem("p1"))

	close(release)
	require.NoError(t, <-done)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.TotalItems())

	clock.Advance(checkout.HoldPeriod)
	assert.True(t, store.IsEmpty())
}

func TestSubmit_FailureThawsCartForRetry(t *testing.T) {
	co, store, api, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")

	api.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &orderapi.APIError{Message: "Server busy"}).Once()

	_, err := co.Submit(context.Background())
	require.Error(t, err)
	assert.False(t, store.Frozen())
	assert.True(t, store.Increment("p1"))
	assert.Equal(t, 2, store.TotalItems())
}

func TestValidationErrorFieldsAreNotShared(t *testing.T) {
	co, store, _, _ := setup(t, checkout.Options{})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("", "12345")

	_, err := co.Submit(context.Background())
	var verr *checkout.ValidationError
	require.ErrorAs(t, err, &verr)
	snap := co.Snapshot()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = len(verr.Fields["name"]) + len(snap.FieldErrors["mobile"])
		}
	}()
	co.SetCustomer("Asha", "9876543210")
	wg.Wait()

	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "mobile")
	assert.Len(t, snap.FieldErrors, 2)
	assert.Empty(t, co.Snapshot().FieldErrors)

	// Mutating a returned view leaves the coordinator untouched.
	co.SetCustomer("", "9876543210")
	_, err = co.Submit(context.Background())
	require.ErrorAs(t, err, &verr)
	delete(verr.Fields, "name")
	assert.Contains(t, co.Snapshot().FieldErrors, "name")
}

func TestSubmit_OnPlacedMayReadCoordinator(t *testing.T) {
	var co *checkout.Coordinator
	var seen checkout.State
	co, store, api, _ := setup(t, checkout.Options{
		OnPlaced: func(*checkout.Receipt) {
			seen = co.Snapshot().State
		},
	})
	store.AddItem(product("p1", "Sparkler", "100", 5))
	co.SetCustomer("Asha", "9876543210")
	api.On("CreateOrder", mock.Anything, mock.Anything).Return(&models.OrderSummary{}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := co.Submit(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Submit did not return: OnPlaced blocked on the coordinator")
	}
	assert.Equal(t, checkout.HoldingBeforeClear, seen)
}

func TestSubmit_NonCouponFailureWithCouponEntered(t *testing.T) {
	for _, msg := range []string{"error code 503", "invalid mobile code"} {
		t.Run(msg, func(t *testing.T) {
			co, store, api, _ := setup(t, checkout.Options{})
			store.AddItem(product("p1", "Sparkler", "100", 5))
			co.SetCustomer("Asha", "9876543210")
			co.SetCouponCode("FIRSTSALE15")
			api.On("CreateOrder", mock.Anything, mock.Anything).
				Return(nil, &orderapi.APIError{Op: "create_order", Message: msg}).Once()

			_, err := co.Submit(context.Background())
			var serr *checkout.SubmissionError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, "submission", checkout.ErrorKind(err))
		})
	}
}
