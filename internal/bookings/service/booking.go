package service

import (
	"context"
	"errors"

	bikeserrors "bikerental/internal/bikes/errors"
	bookingserrors "bikerental/internal/bookings/errors"
	userserrors "bikerental/internal/users/errors"
	"bikerental/internal/bookings/repository"
	"bikerental/internal/bookings/validator"
	"bikerental/pkg/clock"
	"bikerental/pkg/config"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/events"
	"bikerental/pkg/model"
	"bikerental/pkg/pricing"

	"go.mongodb.org/mongo-driver/mongo"
)

// BikeStore is the slice of the bike registry the booking lifecycle needs.
// Satisfied by the bikes repository.
type BikeStore interface {
	FindByID(ctx context.Context, id string) (*model.Bike, error)
	TrySetReserved(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
}

// UserStore is the slice of the user registry the booking lifecycle needs.
// Satisfied by the users repository.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	ConsumeOneTimePhysical(ctx context.Context, id string) error
}

type BookingService interface {
	// Create places a pending booking and claims the bike, atomically. The
	// overlap check and the bike claim run in one transaction so two racing
	// requests for the same window cannot both win.
	Create(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	// StartRide records the physical handover: confirmed -> in_progress.
	StartRide(ctx context.Context, id string) (*model.Booking, error)
	// Complete closes out the ride, releases the bike, and consumes the
	// one-time allowance when it was the eligibility basis.
	Complete(ctx context.Context, id string) (*model.Booking, error)
	// Cancel withdraws a pending or confirmed booking and releases the bike.
	Cancel(ctx context.Context, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	bikes     BikeStore
	users     UserStore
	validator *validator.BookingValidator
	clk       clock.Clock
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	bikes BikeStore,
	users UserStore,
	bookingValidator *validator.BookingValidator,
	clk clock.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		bikes:     bikes,
		users:     users,
		validator: bookingValidator,
		clk:       clk,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", userID, "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, translateUserErr(err, userID)
	}
	basis, eligible := user.Eligible()
	if !eligible {
		return nil, apperrors.PolicyViolation("User is not verified to book a bike")
	}

	bike, err := s.bikes.FindByID(ctx, req.BikeID)
	if err != nil {
		return nil, translateBikeErr(err, req.BikeID)
	}
	if bike.Status != model.BikeStatusReady {
		return nil, apperrors.PolicyViolation("Bike is not available for booking").
			WithDetails(map[string]any{"bike_status": bike.Status})
	}

	booking := &model.Booking{
		UserID:           userID,
		BikeID:           req.BikeID,
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		TotalAmount:      pricing.Quote(bike.PricePerHour, req.StartTime, req.EndTime),
		Status:           model.BookingPending,
		EligibilityBasis: basis,
		PickupLocation:   req.PickupLocation,
		DropoffLocation:  req.DropoffLocation,
		Notes:            req.Notes,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := s.repo.CountOverlapping(sessCtx, req.BikeID, booking.StartTime, booking.EndTime)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return apperrors.Conflict("Bike is already booked for an overlapping window")
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return err
		}

		if err := s.bikes.TrySetReserved(sessCtx, req.BikeID); err != nil {
			if errors.Is(err, bikeserrors.ErrNotClaimable) {
				return apperrors.Conflict("Bike was claimed by another booking")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to create booking", "user_id", userID, "bike_id", req.BikeID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"user_id", userID,
		"bike_id", req.BikeID,
		"total_amount", booking.TotalAmount,
		"eligibility_basis", basis,
	)
	s.publish(ctx, events.TypeBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateBookingErr(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	bookings, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}
	return bookings, count, nil
}

func (s *bookingService) GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}
	bookings, err := s.repo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list user bookings", "user_id", userID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to count user bookings", "user_id", userID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}
	return bookings, count, nil
}

func (s *bookingService) StartRide(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.BookingInProgress, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeBookingStarted, booking)
	return booking, nil
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.BookingCompleted, func(sessCtx mongo.SessionContext, b *model.Booking) error {
		s.releaseBike(sessCtx, b.BikeID)
		if b.EligibilityBasis == model.EligibilityOneTimePhysical {
			if err := s.users.ConsumeOneTimePhysical(sessCtx, b.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeBookingCompleted, booking)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.BookingCancelled, func(sessCtx mongo.SessionContext, b *model.Booking) error {
		s.releaseBike(sessCtx, b.BikeID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeBookingCancelled, booking)
	return booking, nil
}

// transition reads the booking, checks the lifecycle graph, and applies the
// conditional status write plus any side effects in one transaction. The
// conditional write re-checks the source status, so a concurrent transition
// loses cleanly instead of double-applying.
func (s *bookingService) transition(
	ctx context.Context,
	id string,
	to model.BookingStatus,
	sideEffects func(sessCtx mongo.SessionContext, b *model.Booking) error,
) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateBookingErr(err, id)
	}

	from := booking.Status
	if !model.CanTransition(from, to) {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, id, from, to); err != nil {
			if errors.Is(err, bookingserrors.ErrStaleStatus) {
				return apperrors.InvalidTransition(string(from), string(to))
			}
			return err
		}
		if sideEffects != nil {
			return sideEffects(sessCtx, booking)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to transition booking", "id", id, "from", from, "to", to, "error", err)
		return nil, apperrors.Internal("Failed to update booking", err)
	}

	booking.Status = to
	booking.UpdatedAt = s.clk.Now()
	s.cfg.Log.Info("Booking transitioned", "id", id, "from", from, "to", to)
	return booking, nil
}

// releaseBike flips the bike back to Ready. A bike that is no longer
// Reserved (an admin marked it unavailable mid-ride) is left alone.
func (s *bookingService) releaseBike(ctx context.Context, bikeID string) {
	if err := s.bikes.Release(ctx, bikeID); err != nil {
		if errors.Is(err, bikeserrors.ErrNotClaimable) {
			s.cfg.Log.Warn("Bike was not in reserved state on release", "bike_id", bikeID)
			return
		}
		s.cfg.Log.Error("Failed to release bike", "bike_id", bikeID, "error", err)
	}
}

func (s *bookingService) publish(ctx context.Context, eventType string, b *model.Booking) {
	s.publisher.Publish(ctx, events.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		BikeID:     b.BikeID,
		Amount:     b.TotalAmount,
		Currency:   s.cfg.Currency,
		OccurredAt: s.clk.Now(),
	})
}

func translateBookingErr(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Booking lookup failed", err)
}

func translateUserErr(err error, id string) error {
	if errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("User", id)
	}
	if errors.Is(err, userserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid user ID format")
	}
	return apperrors.Internal("User lookup failed", err)
}

func translateBikeErr(err error, id string) error {
	if errors.Is(err, bikeserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Bike", id)
	}
	if errors.Is(err, bikeserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid bike ID format")
	}
	return apperrors.Internal("Bike lookup failed", err)
}
