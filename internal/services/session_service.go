package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crackerstore/internal/cart"
	"crackerstore/internal/checkout"
	"crackerstore/internal/coupon"
	"crackerstore/internal/metrics"
	"crackerstore/internal/models"
	"crackerstore/internal/repositories"
	"crackerstore/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ShopperSession is one browser's cart and checkout.
type ShopperSession struct {
	ID        string
	Cart      *cart.Store
	Checkout  *checkout.Coordinator
	CreatedAt time.Time
}

// SessionOptions carries the collaborators every session's checkout shares.
// Zero values pick the checkout defaults.
type SessionOptions struct {
	Clock     checkout.Clock
	Coupons   *coupon.Engine
	Exporter  checkout.ReceiptExporter
	Publisher EventPublisher
	Metrics   *metrics.Metrics
}

// SessionService owns the live shopper sessions and keeps their carts
// persisted after every change.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*ShopperSession

	carts  repositories.CartRepository
	orders checkout.OrderCreator
	opts   SessionOptions
}

// NewSessionService creates a new SessionService.
func NewSessionService(carts repositories.CartRepository, orders checkout.OrderCreator, opts SessionOptions) *SessionService {
	return &SessionService{
		sessions: make(map[string]*ShopperSession),
		carts:    carts,
		orders:   orders,
		opts:     opts,
	}
}

func (s *SessionService) newSession(id string) *ShopperSession {
	store := cart.NewStore()
	sess := &ShopperSession{ID: id, Cart: store, CreatedAt: time.Now()}
	sess.Checkout = checkout.NewCoordinator(store, s.orders, checkout.Options{
		Clock:    s.opts.Clock,
		Exporter: s.opts.Exporter,
		Coupons:  s.opts.Coupons,
		OnPlaced: func(r *checkout.Receipt) {
			s.opts.Metrics.OrderPlaced(r.CouponApplied)
			publish(s.opts.Publisher, rabbitmq.RoutingOrderPlaced, OrderPlacedEvent{
				SessionID:     id,
				CustomerName:  r.CustomerName,
				Mobile:        r.Mobile,
				CouponApplied: r.CouponApplied,
				CouponCode:    r.CouponCode,
				OrderTotal:    r.OrderTotal,
				NetTotal:      r.NetTotal,
				Items:         len(r.Items),
				OccurredAt:    r.OrderDate,
			})
		},
		OnCleared: func() {
			if err := s.carts.Save(id, nil); err != nil {
				log.Error().Err(err).Str("session_id", id).Msg("failed to persist cleared cart")
			}
		},
	})
	return sess
}

// Create starts a new empty session.
func (s *SessionService) Create() *ShopperSession {
	sess := s.newSession(uuid.New().String())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.opts.Metrics.SessionOpened()
	log.Debug().Str("session_id", sess.ID).Msg("shopper session created")
	return sess
}

// Get returns a live session, rehydrating it from the persisted cart when it
// is not in memory.
func (s *SessionService) Get(id string) (*ShopperSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	lines, err := s.carts.Load(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to rehydrate session %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	sess = s.newSession(id)
	sess.Cart.Restore(lines)
	s.sessions[id] = sess
	s.opts.Metrics.SessionOpened()
	log.Info().Str("session_id", id).Int("lines", sess.Cart.Len()).Msg("shopper session rehydrated")
	return sess, nil
}

// End tears a session down: timers are cancelled and the persisted cart removed.
func (s *SessionService) End(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Checkout.Close()
		s.opts.Metrics.SessionClosed()
	}
	if err := s.carts.Delete(id); err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// CloseAll cancels every session's timers. Persisted carts are kept so the
// sessions can be rehydrated after a restart.
func (s *SessionService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Checkout.Close()
		delete(s.sessions, id)
	}
}

func (s *SessionService) persist(sess *ShopperSession) error {
	if err := s.carts.Save(sess.ID, sess.Cart.Lines()); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

// mutate runs op on the session's cart and persists the result if it changed.
func (s *SessionService) mutate(id, name string, op func(*cart.Store) bool) (*ShopperSession, bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, false, err
	}
	if !op(sess.Cart) {
		return sess, false, nil
	}
	s.opts.Metrics.CartMutation(name)
	if err := s.persist(sess); err != nil {
		return sess, true, err
	}
	return sess, true, nil
}

// AddToCart adds one unit of product. It reports false when the cart was left
// unchanged (out of stock, already at stock, or read-only).
func (s *SessionService) AddToCart(id string, product models.Product) (*ShopperSession, bool, error) {
	return s.mutate(id, "add", func(c *cart.Store) bool { return c.AddItem(product) })
}

// Increment raises a line's quantity by one.
func (s *SessionService) Increment(id, productID string) (*ShopperSession, bool, error) {
	return s.mutate(id, "increment", func(c *cart.Store) bool { return c.Increment(productID) })
}

// Decrement lowers a line's quantity by one, never below one.
func (s *SessionService) Decrement(id, productID string) (*ShopperSession, bool, error) {
	return s.mutate(id, "decrement", func(c *cart.Store) bool { return c.Decrement(productID) })
}

// RemoveItem drops a line.
func (s *SessionService) RemoveItem(id, productID string) (*ShopperSession, bool, error) {
	return s.mutate(id, "remove", func(c *cart.Store) bool { return c.RemoveItem(productID) })
}

// ClearCart is the manual clear: it cancels any pending hold and resets the
// checkout form.
func (s *SessionService) ClearCart(id string) (*ShopperSession, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Checkout.ClearCart(); err != nil {
		return sess, err
	}
	s.opts.Metrics.CartMutation("clear")
	return sess, s.persist(sess)
}

// Submit places the session's order and records failures by kind.
func (s *SessionService) Submit(ctx context.Context, id string) (*ShopperSession, *checkout.Receipt, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := sess.Checkout.Submit(ctx)
	if err != nil {
		if kind := checkout.ErrorKind(err); kind != "" && !errors.Is(err, checkout.ErrSubmitInFlight) && !errors.Is(err, checkout.ErrOrderOnHold) {
			s.opts.Metrics.SubmissionFailed(kind)
		}
	}
	return sess, receipt, err
}
