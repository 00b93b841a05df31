package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crackerstore/internal/metrics"
	"crackerstore/internal/models"
	"crackerstore/internal/orderapi"
	"crackerstore/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
)

// OrderAdminAPI is the admin side of the backend.
type OrderAdminAPI interface {
	ListOrders(ctx context.Context, creds models.AdminCredentials) (*models.OrderList, error)
	AcceptOrder(ctx context.Context, creds models.AdminCredentials, orderID string) (*orderapi.ActionResult, error)
	RejectOrder(ctx context.Context, creds models.AdminCredentials, orderID string) (*orderapi.ActionResult, error)
}

// SessionRevoker ends an admin session whose backend credentials expired.
type SessionRevoker interface {
	RevokeSession(sessionID string) error
}

// ReviewResult is the outcome of an accept or reject. Orders holds the
// refreshed list; it is nil when the refresh itself failed.
type ReviewResult struct {
	OrderID string            `json:"order_id"`
	Message string            `json:"message"`
	Orders  *models.OrderList `json:"orders,omitempty"`
}

// OrderService is the admin order review workflow. It never changes an
// order's status locally: the list is re-fetched after every action.
type OrderService struct {
	api       OrderAdminAPI
	revoker   SessionRevoker
	publisher EventPublisher
	metrics   *metrics.Metrics
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(api OrderAdminAPI, revoker SessionRevoker, publisher EventPublisher, m *metrics.Metrics) *OrderService {
	return &OrderService{
		api:       api,
		revoker:   revoker,
		publisher: publisher,
		metrics:   m,
	}
}

// ListOrders loads every order and keeps those matching query.
func (s *OrderService) ListOrders(ctx context.Context, admin *models.AdminSession, query string) (*models.OrderList, error) {
	list, err := s.api.ListOrders(ctx, admin.Credentials)
	if err != nil {
		return nil, s.backendError(admin, "load", err)
	}
	return &models.OrderList{
		Orders:  FilterOrders(list.Orders, query),
		Summary: list.Summary,
	}, nil
}

// AcceptOrder completes an order. A stock shortage comes back as a
// *StockConflictError and the order stays pending.
func (s *OrderService) AcceptOrder(ctx context.Context, admin *models.AdminSession, orderID string, confirmed bool) (*ReviewResult, error) {
	return s.review(ctx, admin, orderID, confirmed, "accept", s.api.AcceptOrder, rabbitmq.RoutingOrderAccepted)
}

// RejectOrder rejects an order. Stock is untouched.
func (s *OrderService) RejectOrder(ctx context.Context, admin *models.AdminSession, orderID string, confirmed bool) (*ReviewResult, error) {
	return s.review(ctx, admin, orderID, confirmed, "reject", s.api.RejectOrder, rabbitmq.RoutingOrderRejected)
}

type orderAction func(ctx context.Context, creds models.AdminCredentials, orderID string) (*orderapi.ActionResult, error)

func (s *OrderService) review(ctx context.Context, admin *models.AdminSession, orderID string, confirmed bool, action string, call orderAction, routingKey string) (*ReviewResult, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%s order: order id is required", action)
	}

	res, err := call(ctx, admin.Credentials, orderID)
	if err != nil {
		var apiErr *orderapi.APIError
		if action == "accept" && errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
			s.metrics.AdminAction(action, "stock_conflict")
			log.Warn().Str("order_id", orderID).Strs("details", apiErr.Details).Msg("accept refused for stock")
			return nil, &StockConflictError{
				OrderID: orderID,
				Message: apiErr.Message,
				Details: apiErr.Details,
				Err:     err,
			}
		}
		return nil, s.backendError(admin, action, err)
	}

	s.metrics.AdminAction(action, "ok")
	log.Info().Str("order_id", orderID).Str("admin", admin.Username).Str("action", action).Msg("order reviewed")
	publish(s.publisher, routingKey, OrderReviewedEvent{
		OrderID:    orderID,
		Action:     action,
		Admin:      admin.Username,
		Message:    res.Message,
		OccurredAt: time.Now(),
	})

	result := &ReviewResult{OrderID: orderID, Message: res.Message}
	list, err := s.api.ListOrders(ctx, admin.Credentials)
	if err != nil {
		if errors.Is(err, orderapi.ErrSessionExpired) {
			return nil, s.backendError(admin, "load", err)
		}
		log.Warn().Err(err).Str("order_id", orderID).Msg("failed to refresh orders after review")
		return result, nil
	}
	result.Orders = list
	return result, nil
}

// backendError records the failure and revokes the admin session when the
// backend reports it expired.
func (s *OrderService) backendError(admin *models.AdminSession, action string, err error) error {
	if errors.Is(err, orderapi.ErrSessionExpired) {
		s.metrics.AdminAction(action, "session_expired")
		if s.revoker != nil {
			if revokeErr := s.revoker.RevokeSession(admin.ID); revokeErr != nil {
				log.Error().Err(revokeErr).Str("session_id", admin.ID).Msg("failed to revoke expired admin session")
			}
		}
		return err
	}
	s.metrics.AdminAction(action, "error")
	return fmt.Errorf("%s orders: %w", action, err)
}

// FilterOrders keeps orders whose customer name, mobile, id or coupon code
// contains query, ignoring case. An empty query keeps everything.
func FilterOrders(orders []models.Order, query string) []models.Order {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return orders
	}

	filtered := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.UserName), q) ||
			strings.Contains(strings.ToLower(o.UserMobile), q) ||
			strings.Contains(strings.ToLower(o.ID), q) ||
			strings.Contains(strings.ToLower(o.CouponCode), q) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
