package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{"pending to confirmed", BookingPending, BookingConfirmed, true},
		{"pending to cancelled", BookingPending, BookingCancelled, true},
		{"pending to completed", BookingPending, BookingCompleted, false},
		{"pending to in_progress", BookingPending, BookingInProgress, false},
		{"confirmed to in_progress", BookingConfirmed, BookingInProgress, true},
		{"confirmed to completed", BookingConfirmed, BookingCompleted, true},
		{"confirmed to cancelled", BookingConfirmed, BookingCancelled, true},
		{"in_progress to completed", BookingInProgress, BookingCompleted, true},
		{"in_progress to cancelled", BookingInProgress, BookingCancelled, false},
		{"completed is terminal", BookingCompleted, BookingCancelled, false},
		{"cancelled is terminal", BookingCancelled, BookingPending, false},
		{"no self transition", BookingPending, BookingPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestHoldsResource(t *testing.T) {
	holding := map[BookingStatus]bool{
		BookingPending:    true,
		BookingConfirmed:  true,
		BookingInProgress: true,
		BookingCompleted:  false,
		BookingCancelled:  false,
	}

	for status, want := range holding {
		if got := status.HoldsResource(); got != want {
			t.Errorf("%s.HoldsResource() = %v, want %v", status, got, want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !BookingCompleted.Terminal() {
		t.Error("completed should be terminal")
	}
	if !BookingCancelled.Terminal() {
		t.Error("cancelled should be terminal")
	}
	if BookingPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if BookingConfirmed.Terminal() {
		t.Error("confirmed should not be terminal")
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name      string
		user      User
		wantBasis EligibilityBasis
		wantOK    bool
	}{
		{
			name:      "verified user",
			user:      User{VerificationStatus: VerificationVerified},
			wantBasis: EligibilityVerified,
			wantOK:    true,
		},
		{
			name:      "verified user with leftover allowance uses verified basis",
			user:      User{VerificationStatus: VerificationVerified, PhysicalVerificationOneTime: true},
			wantBasis: EligibilityVerified,
			wantOK:    true,
		},
		{
			name:      "pending user with one-time allowance",
			user:      User{VerificationStatus: VerificationPending, PhysicalVerificationOneTime: true},
			wantBasis: EligibilityOneTimePhysical,
			wantOK:    true,
		},
		{
			name:   "pending user without allowance",
			user:   User{VerificationStatus: VerificationPending},
			wantOK: false,
		},
		{
			name:   "rejected user without allowance",
			user:   User{VerificationStatus: VerificationRejected},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basis, ok := tt.user.Eligible()
			if ok != tt.wantOK || basis != tt.wantBasis {
				t.Errorf("Eligible() = (%q, %v), want (%q, %v)", basis, ok, tt.wantBasis, tt.wantOK)
			}
		})
	}
}
