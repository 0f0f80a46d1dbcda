package model

import "time"

type BikeStatus string

const (
	// BikeStatusReady means the bike can be claimed by a new booking.
	BikeStatusReady BikeStatus = "ready"
	// BikeStatusReserved means exactly one resource-holding booking owns the
	// bike. Set only through the conditional claim, never directly.
	BikeStatusReserved BikeStatus = "reserved"
	// BikeStatusUnavailable is an administrative hold (maintenance, lost).
	BikeStatusUnavailable BikeStatus = "unavailable"
)

type Bike struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Model              string     `json:"model" bson:"model" validate:"required,min=2,max=100"`
	Brand              string     `json:"brand" bson:"brand" validate:"required,min=2,max=100"`
	RegistrationNumber string     `json:"registration_number" bson:"registration_number" validate:"required,min=4,max=20"`
	PricePerHour       float64    `json:"price_per_hour" bson:"price_per_hour" validate:"required,gte=0"`
	Status             BikeStatus `json:"status" bson:"status" validate:"required,oneof=ready reserved unavailable"`

	CurrentLocation   string `json:"current_location,omitempty" bson:"current_location,omitempty"`
	Mileage           int    `json:"mileage,omitempty" bson:"mileage,omitempty" validate:"omitempty,gte=0"`
	Description       string `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
	YearOfManufacture int    `json:"year_of_manufacture,omitempty" bson:"year_of_manufacture,omitempty" validate:"omitempty,gte=1980,lte=2100"`
	Color             string `json:"color,omitempty" bson:"color,omitempty" validate:"omitempty,max=50"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// BikeUpdate carries the administrative fields that may change after
// creation. Status is deliberately absent: availability moves only through
// the claim/release operations or the explicit administrative endpoints.
type BikeUpdate struct {
	Model           string   `json:"model,omitempty" validate:"omitempty,min=2,max=100"`
	Brand           string   `json:"brand,omitempty" validate:"omitempty,min=2,max=100"`
	PricePerHour    *float64 `json:"price_per_hour,omitempty" validate:"omitempty,gte=0"`
	CurrentLocation string   `json:"current_location,omitempty"`
	Mileage         *int     `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Description     string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Color           string   `json:"color,omitempty" validate:"omitempty,max=50"`
}
