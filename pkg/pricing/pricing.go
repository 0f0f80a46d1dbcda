package pricing

import (
	"math"
	"time"
)

// MinimumBillableHours is the floor for any booking window. Zero-duration
// windows are rejected upstream by validation, so every quote bills at
// least one hour.
const MinimumBillableHours = 1

// BillableHours converts a half-open window to whole billable hours,
// rounding partial hours up. 09:00-11:30 bills 3 hours.
func BillableHours(start, end time.Time) int64 {
	if !end.After(start) {
		return MinimumBillableHours
	}
	hours := int64(math.Ceil(end.Sub(start).Hours()))
	if hours < MinimumBillableHours {
		return MinimumBillableHours
	}
	return hours
}

// Quote computes the total amount for a window at the given hourly rate.
func Quote(ratePerHour float64, start, end time.Time) float64 {
	return ratePerHour * float64(BillableHours(start, end))
}

// MinorUnits converts a major-unit amount to the provider's minor currency
// units (paise, cents), rounding to the nearest unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
