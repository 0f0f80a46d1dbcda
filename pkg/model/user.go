package model

import "time"

type UserRole string

const (
	RoleUser     UserRole = "user"
	RoleAdmin    UserRole = "admin"
	RoleVerifier UserRole = "verifier"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// User is the rider record the engine re-validates eligibility against.
// Authentication happens outside; the engine only trusts the caller-supplied
// user id and reads these flags itself.
type User struct {
	ID          string   `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PhoneNumber string   `json:"phone_number" bson:"phone_number" validate:"required,e164"`
	FullName    string   `json:"full_name" bson:"full_name" validate:"omitempty,min=2,max=100"`
	Email       string   `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Role        UserRole `json:"role" bson:"role" validate:"required,oneof=user admin verifier"`

	VerificationStatus VerificationStatus `json:"verification_status" bson:"verification_status" validate:"required,oneof=pending verified rejected"`
	LicenseVerified    bool               `json:"license_verified" bson:"license_verified"`
	IDProofVerified    bool               `json:"id_proof_verified" bson:"id_proof_verified"`

	// PhysicalVerificationOneTime grants a single booking to a rider who was
	// verified in person but has no approved documents yet. Consumed when the
	// booking it enabled completes.
	PhysicalVerificationOneTime bool `json:"physical_verification_one_time" bson:"physical_verification_one_time"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Eligible reports whether the user may create a booking, and on which basis.
func (u *User) Eligible() (EligibilityBasis, bool) {
	if u.VerificationStatus == VerificationVerified {
		return EligibilityVerified, true
	}
	if u.PhysicalVerificationOneTime {
		return EligibilityOneTimePhysical, true
	}
	return "", false
}

type EligibilityBasis string

const (
	EligibilityVerified        EligibilityBasis = "verified"
	EligibilityOneTimePhysical EligibilityBasis = "one_time_physical"
)
