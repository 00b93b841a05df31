package services

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EventPublisher sends order lifecycle events to the message broker.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// OrderPlacedEvent is published when checkout gets a successful order summary.
type OrderPlacedEvent struct {
	SessionID     string          `json:"session_id"`
	CustomerName  string          `json:"customer_name"`
	Mobile        string          `json:"mobile"`
	CouponApplied bool            `json:"coupon_applied"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	OrderTotal    decimal.Decimal `json:"order_total"`
	NetTotal      decimal.Decimal `json:"net_total"`
	Items         int             `json:"items"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OrderReviewedEvent is published after an admin accepts or rejects an order.
type OrderReviewedEvent struct {
	OrderID    string    `json:"order_id"`
	Action     string    `json:"action"`
	Admin      string    `json:"admin"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publish is best effort: broker failures are logged and never fail the caller.
func publish(p EventPublisher, routingKey string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(routingKey, payload); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish order event")
	}
}
