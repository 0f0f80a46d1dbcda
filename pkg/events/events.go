// Package events publishes booking lifecycle notifications. Publishing is
// strictly after-commit and best-effort: a failed publish is logged, never
// propagated into the request path.
package events

import (
	"context"
	"time"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingStarted   = "booking.started"
	TypeBookingCompleted = "booking.completed"
	TypeBookingCancelled = "booking.cancelled"
	TypePaymentFailed    = "payment.failed"
)

type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id,omitempty"`
	BikeID     string    `json:"bike_id,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt BookingEvent)
	Close() error
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, BookingEvent) {}
func (Noop) Close() error                          { return nil }
