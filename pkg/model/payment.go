package model

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentIntent ties a provider order to a booking, one-to-one. At most one
// non-failed intent exists per booking; the unique order id is the lookup
// key during reconciliation.
type PaymentIntent struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookingID string `json:"booking_id" bson:"booking_id" validate:"required,mongodb"`
	OrderID   string `json:"order_id" bson:"order_id" validate:"required"`

	// Amount mirrors the booking's total at intent-creation time.
	Amount      float64       `json:"amount" bson:"amount" validate:"gte=0"`
	AmountMinor int64         `json:"amount_minor" bson:"amount_minor" validate:"gte=0"`
	Currency    string        `json:"currency" bson:"currency" validate:"required,len=3"`
	Status      PaymentStatus `json:"status" bson:"status" validate:"required,oneof=pending completed failed"`

	// Populated only on reconciliation.
	PaymentID   string     `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	Signature   string     `json:"-" bson:"signature,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// CreateOrderResponse is what the checkout client needs to open the
// provider's payment flow.
type CreateOrderResponse struct {
	OrderID     string `json:"order_id"`
	BookingID   string `json:"booking_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
}

// ReconcileRequest is the provider callback payload: the order we minted,
// the payment the provider captured, and the signature over both.
type ReconcileRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required,hexadecimal"`
}

// ReconcileResponse reports the outcome of a reconciliation attempt.
type ReconcileResponse struct {
	BookingID string `json:"booking_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
}
