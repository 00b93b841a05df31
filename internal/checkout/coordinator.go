// Package checkout drives order placement for one shopper session: validate,
// submit to the backend, reconcile the authoritative summary into a receipt,
// hold the cart read-only for a fixed window, then clear it.
package checkout

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"crackerstore/internal/cart"
	"crackerstore/internal/coupon"
	"crackerstore/internal/models"
	"crackerstore/internal/orderapi"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// HoldPeriod is how long a placed order's cart stays visible before clearing.
const HoldPeriod = 30 * time.Second

const tickInterval = time.Second

// State is a coordinator state.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	AwaitingReceipt
	HoldingBeforeClear
	Cleared
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case AwaitingReceipt:
		return "awaiting_receipt"
	case HoldingBeforeClear:
		return "holding_before_clear"
	case Cleared:
		return "cleared"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OrderCreator is the create-order side of the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req orderapi.CreateOrderRequest) (*models.OrderSummary, error)
}

// Options configures a Coordinator. Zero values pick defaults.
type Options struct {
	Clock    Clock
	Exporter ReceiptExporter
	Coupons  *coupon.Engine
	Hold     time.Duration

	// OnPlaced runs after the backend accepted an order, before the receipt
	// is exported.
	OnPlaced func(r *Receipt)
	// OnCleared runs after the hold elapsed and the cart was emptied.
	OnCleared func()
	// OnTick receives the seconds left in the hold, once per second.
	OnTick func(remaining int)
}

// Coordinator is the order placement state machine for one cart.
type Coordinator struct {
	mu       sync.Mutex
	cart     *cart.Store
	api      OrderCreator
	validate *validator.Validate
	opts     Options

	state       State
	customer    models.CustomerInfo
	couponCode  string
	preview     *models.CouponPreview
	fieldErrors map[string]string
	lastErr     error

	summary  *models.OrderSummary
	receipt  *Receipt
	document []byte

	holdTimer    Timer
	tickTimer    Timer
	holdDeadline time.Time
	generation   uint64
}

// NewCoordinator binds a coordinator to a cart and the backend.
func NewCoordinator(c *cart.Store, api OrderCreator, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Exporter == nil {
		opts.Exporter = TextExporter{}
	}
	if opts.Coupons == nil {
		opts.Coupons = coupon.NewEngine(coupon.DefaultCodes)
	}
	if opts.Hold <= 0 {
		opts.Hold = HoldPeriod
	}
	return &Coordinator{
		cart:     c,
		api:      api,
		validate: newValidator(),
		opts:     opts,
		state:    Idle,
	}
}

// Cart returns the cart this coordinator drives.
func (co *Coordinator) Cart() *cart.Store {
	return co.cart
}

// State returns the current state.
func (co *Coordinator) State() State {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.state
}

// SetCustomer records the checkout form. Field errors for edited fields are dropped.
func (co *Coordinator) SetCustomer(name, mobile string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if name != co.customer.Name {
		delete(co.fieldErrors, "name")
	}
	if mobile != co.customer.Mobile {
		delete(co.fieldErrors, "mobile")
	}
	co.customer = models.CustomerInfo{Name: name, Mobile: mobile}
}

// SetCouponCode records the promo input and recomputes the preview from the
// current cart total.
func (co *Coordinator) SetCouponCode(code string) *models.CouponPreview {
	co.mu.Lock()
	defer co.mu.Unlock()

	co.couponCode = strings.TrimSpace(code)
	co.preview = co.opts.Coupons.Preview(co.couponCode, co.cart.TotalPrice())
	return co.preview
}

// Preview recomputes the advisory discount for the current cart.
func (co *Coordinator) Preview() *models.CouponPreview {
	co.mu.Lock()
	defer co.mu.Unlock()

	co.preview = co.opts.Coupons.Preview(co.couponCode, co.cart.TotalPrice())
	return co.preview
}

// Submit places the order. On success it returns the reconciled receipt and
// starts the hold; a non-nil *ReceiptError alongside a receipt means the order
// stands but its document could not be produced.
func (co *Coordinator) Submit(ctx context.Context) (*Receipt, error) {
	co.mu.Lock()
	switch co.state {
	case Submitting, Validating, AwaitingReceipt:
		co.mu.Unlock()
		return nil, ErrSubmitInFlight
	case HoldingBeforeClear:
		co.mu.Unlock()
		return nil, ErrOrderOnHold
	}

	co.cancelTimersLocked()
	co.state = Validating
	co.lastErr = nil

	fields := validateCustomer(co.validate, co.customer)
	if co.cart.IsEmpty() {
		fields["cart"] = "Your cart is empty"
	}
	if len(fields) > 0 {
		co.fieldErrors = fields
		co.state = Idle
		co.mu.Unlock()
		return nil, &ValidationError{Fields: maps.Clone(fields)}
	}
	co.fieldErrors = nil

	customer := models.CustomerInfo{
		Name:   strings.TrimSpace(co.customer.Name),
		Mobile: strings.TrimSpace(co.customer.Mobile),
	}
	couponCode := co.couponCode
	lines := co.cart.Lines()
	cartTotal := co.cart.TotalPrice()
	co.state = Submitting
	// The submitted lines are what the backend prices; hold them still.
	co.cart.Freeze()
	co.mu.Unlock()

	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{ID: l.ProductID, Name: l.Name, Price: l.UnitPrice, Qty: l.Quantity})
	}
	summary, err := co.api.CreateOrder(ctx, orderapi.CreateOrderRequest{
		UserName:   customer.Name,
		UserMobile: customer.Mobile,
		CouponCode: couponCode,
		CartItems:  items,
	})

	co.mu.Lock()
	if err != nil {
		failure := classify(err, couponCode)
		co.state = Errored
		co.lastErr = failure
		co.couponCode = ""
		co.preview = nil
		co.cart.Thaw()
		co.mu.Unlock()
		log.Warn().Err(err).Str("kind", ErrorKind(failure)).Msg("order submission failed")
		return nil, failure
	}

	co.state = AwaitingReceipt
	co.summary = summary
	co.preview = nil
	receipt := reconcile(summary, customer, lines, cartTotal, co.opts.Clock.Now())
	co.receipt = receipt

	var exportErr error
	doc, err := co.opts.Exporter.Export(receipt)
	if err != nil {
		exportErr = &ReceiptError{Err: err}
		co.lastErr = exportErr
		co.document = nil
		log.Error().Err(err).Str("customer", customer.Name).Msg("receipt export failed")
	} else {
		co.document = doc
	}

	co.startHoldLocked()
	onPlaced := co.opts.OnPlaced
	co.mu.Unlock()

	if onPlaced != nil {
		onPlaced(receipt)
	}
	return receipt, exportErr
}

func (co *Coordinator) startHoldLocked() {
	co.state = HoldingBeforeClear
	co.cart.Freeze()
	co.generation++
	gen := co.generation
	co.holdDeadline = co.opts.Clock.Now().Add(co.opts.Hold)
	co.holdTimer = co.opts.Clock.AfterFunc(co.opts.Hold, func() { co.holdElapsed(gen) })
	co.tickTimer = co.opts.Clock.AfterFunc(tickInterval, func() { co.tick(gen) })
}

func (co *Coordinator) tick(gen uint64) {
	co.mu.Lock()
	if gen != co.generation || co.state != HoldingBeforeClear {
		co.mu.Unlock()
		return
	}
	remaining := co.remainingLocked()
	if remaining > 0 {
		co.tickTimer = co.opts.Clock.AfterFunc(tickInterval, func() { co.tick(gen) })
	}
	onTick := co.opts.OnTick
	co.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
}

func (co *Coordinator) holdElapsed(gen uint64) {
	co.mu.Lock()
	if gen != co.generation || co.state != HoldingBeforeClear {
		co.mu.Unlock()
		return
	}
	co.state = Cleared
	co.cancelTimersLocked()
	co.resetLocked()
	co.state = Idle
	onCleared := co.opts.OnCleared
	co.mu.Unlock()

	log.Info().Msg("hold period elapsed, cart cleared")
	if onCleared != nil {
		onCleared()
	}
}

// ClearCart empties the cart and resets the checkout form. It is refused only
// while an order request is in flight.
func (co *Coordinator) ClearCart() error {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.state == Submitting {
		return ErrSubmitInFlight
	}
	co.cancelTimersLocked()
	co.resetLocked()
	co.state = Idle
	return nil
}

// Close cancels any pending hold. Call it when the session goes away.
func (co *Coordinator) Close() {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.cancelTimersLocked()
}

func (co *Coordinator) cancelTimersLocked() {
	co.generation++
	if co.holdTimer != nil {
		co.holdTimer.Stop()
		co.holdTimer = nil
	}
	if co.tickTimer != nil {
		co.tickTimer.Stop()
		co.tickTimer = nil
	}
	co.holdDeadline = time.Time{}
}

func (co *Coordinator) resetLocked() {
	co.cart.Clear()
	co.cart.Thaw()
	co.customer = models.CustomerInfo{}
	co.couponCode = ""
	co.preview = nil
	co.fieldErrors = nil
	co.lastErr = nil
}

func (co *Coordinator) remainingLocked() int {
	if co.holdDeadline.IsZero() {
		return 0
	}
	left := co.holdDeadline.Sub(co.opts.Clock.Now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Receipt returns the last reconciled receipt and its exported document.
func (co *Coordinator) Receipt() (*Receipt, []byte) {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.receipt, co.document
}

// Snapshot is the read model of a checkout.
type Snapshot struct {
	State         State                 `json:"state"`
	Customer      models.CustomerInfo   `json:"customer"`
	CouponCode    string                `json:"coupon_code"`
	Preview       *models.CouponPreview `json:"coupon_preview,omitempty"`
	FieldErrors   map[string]string     `json:"field_errors,omitempty"`
	Error         string                `json:"error,omitempty"`
	ErrorKind     string                `json:"error_kind,omitempty"`
	Receipt       *Receipt              `json:"receipt,omitempty"`
	HoldRemaining int                   `json:"hold_remaining_seconds"`
	CanSubmit     bool                  `json:"can_submit"`
	CanClear      bool                  `json:"can_clear"`
	Cart          cart.View             `json:"cart"`
	CartTotal     decimal.Decimal       `json:"cart_total"`
}

// Snapshot returns the current checkout view.
func (co *Coordinator) Snapshot() Snapshot {
	co.mu.Lock()
	defer co.mu.Unlock()

	view := co.cart.Snapshot()
	s := Snapshot{
		State:         co.state,
		Customer:      co.customer,
		CouponCode:    co.couponCode,
		FieldErrors:   maps.Clone(co.fieldErrors),
		Receipt:       co.receipt,
		HoldRemaining: co.remainingLocked(),
		CanSubmit:     co.state == Idle || co.state == Errored,
		CanClear:      co.state != Submitting,
		Cart:          view,
		CartTotal:     view.TotalPrice,
	}
	if co.state != HoldingBeforeClear {
		s.Preview = co.opts.Coupons.Preview(co.couponCode, view.TotalPrice)
	}
	if co.lastErr != nil {
		s.Error = co.lastErr.Error()
		s.ErrorKind = ErrorKind(co.lastErr)
	}
	return s
}
