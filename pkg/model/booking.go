package model

import "time"

type BookingStatus string

const (
	// BookingPending is the state at creation, awaiting payment.
	BookingPending BookingStatus = "pending"
	// BookingConfirmed means the payment intent reconciled successfully.
	BookingConfirmed BookingStatus = "confirmed"
	// BookingInProgress means the bike was physically handed over.
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// legalTransitions is the whole lifecycle graph. Terminal states have no
// outgoing edges; InProgress cannot be cancelled, only completed.
var legalTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCompleted, BookingCancelled},
	BookingInProgress: {BookingCompleted},
}

// CanTransition reports whether moving a booking from one status to another
// is legal.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// HoldsResource reports whether a booking in this status keeps its bike
// claimed. Only these statuses count for overlap checks.
func (s BookingStatus) HoldsResource() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingInProgress:
		return true
	}
	return false
}

// Terminal reports whether no further transition is legal out of this status.
func (s BookingStatus) Terminal() bool {
	return len(legalTransitions[s]) == 0
}

// ResourceHoldingStatuses lists the statuses the overlap range predicate
// filters on, in the order they are written to the query.
func ResourceHoldingStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingConfirmed, BookingInProgress}
}

// Booking references its user and bike by id only; it owns neither.
type Booking struct {
	ID     string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID string `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	BikeID string `json:"bike_id" bson:"bike_id" validate:"required,mongodb"`

	// Half-open window [StartTime, EndTime); immutable after creation.
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`

	// TotalAmount is computed once at creation and never recomputed.
	TotalAmount float64       `json:"total_amount" bson:"total_amount" validate:"gte=0"`
	Status      BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed in_progress completed cancelled"`

	// EligibilityBasis records what made the user eligible at creation, so
	// completion knows whether to consume the one-time allowance.
	EligibilityBasis EligibilityBasis `json:"eligibility_basis" bson:"eligibility_basis" validate:"required,oneof=verified one_time_physical"`

	PickupLocation  string `json:"pickup_location,omitempty" bson:"pickup_location,omitempty" validate:"omitempty,max=200"`
	DropoffLocation string `json:"dropoff_location,omitempty" bson:"dropoff_location,omitempty" validate:"omitempty,max=200"`
	Notes           string `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// CreateBookingRequest is the client payload for a new booking. The user id
// comes from the identity collaborator, not the body.
type CreateBookingRequest struct {
	BikeID          string    `json:"bike_id" validate:"required,mongodb"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	PickupLocation  string    `json:"pickup_location,omitempty" validate:"omitempty,max=200"`
	DropoffLocation string    `json:"dropoff_location,omitempty" validate:"omitempty,max=200"`
	Notes           string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}
