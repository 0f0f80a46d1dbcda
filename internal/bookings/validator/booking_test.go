package validator

import (
	"strings"
	"testing"
	"time"

	"bikerental/pkg/logger"
	"bikerental/pkg/model"
)

func testValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	}))
}

func validRequest() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		BikeID:    "507f1f77bcf86cd799439012",
		StartTime: time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC),
	}
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *model.CreateBookingRequest)
		wantErr string
	}{
		{
			name:   "valid request",
			mutate: func(req *model.CreateBookingRequest) {},
		},
		{
			name:    "missing bike id",
			mutate:  func(req *model.CreateBookingRequest) { req.BikeID = "" },
			wantErr: "BikeID",
		},
		{
			name:    "malformed bike id",
			mutate:  func(req *model.CreateBookingRequest) { req.BikeID = "not-an-object-id" },
			wantErr: "BikeID",
		},
		{
			name:    "zero-length window",
			mutate:  func(req *model.CreateBookingRequest) { req.EndTime = req.StartTime },
			wantErr: "EndTime",
		},
		{
			name: "inverted window",
			mutate: func(req *model.CreateBookingRequest) {
				req.EndTime = req.StartTime.Add(-time.Hour)
			},
			wantErr: "EndTime",
		},
		{
			name:    "missing start time",
			mutate:  func(req *model.CreateBookingRequest) { req.StartTime = time.Time{} },
			wantErr: "StartTime",
		},
		{
			name: "notes too long",
			mutate: func(req *model.CreateBookingRequest) {
				req.Notes = strings.Repeat("x", 501)
			},
			wantErr: "Notes",
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateCreate(req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateCreate() returned unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention field %s", err.Error(), tt.wantErr)
			}
		})
	}
}
