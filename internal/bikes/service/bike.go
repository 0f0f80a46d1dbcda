package service

import (
	"context"
	"errors"

	bikeserrors "bikerental/internal/bikes/errors"
	"bikerental/internal/bikes/repository"
	"bikerental/internal/bikes/validator"
	"bikerental/pkg/config"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingCounter is the one thing the bike registry needs to know about
// bookings: whether any reference a bike. Satisfied by the bookings
// repository.
type BookingCounter interface {
	CountByBike(ctx context.Context, bikeID string) (int64, error)
}

type BikeService interface {
	Create(ctx context.Context, bike *model.Bike) error
	GetByID(ctx context.Context, id string) (*model.Bike, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Bike, int64, error)
	GetAvailable(ctx context.Context, limit int, offset int64) ([]*model.Bike, int64, error)
	Search(ctx context.Context, term string, limit int, offset int64) ([]*model.Bike, error)
	FilterByBrand(ctx context.Context, brand string, limit int, offset int64) ([]*model.Bike, error)
	Update(ctx context.Context, id string, updates *model.BikeUpdate) (*model.Bike, error)
	Delete(ctx context.Context, id string) error
	SetUnavailable(ctx context.Context, id string) error
	SetReady(ctx context.Context, id string) error
}

type bikeService struct {
	repo      repository.BikeRepository
	bookings  BookingCounter
	validator *validator.BikeValidator
	cfg       *config.Config
}

func NewBikeService(
	repo repository.BikeRepository,
	bookings BookingCounter,
	bikeValidator *validator.BikeValidator,
	cfg *config.Config,
) BikeService {
	return &bikeService{
		repo:      repo,
		bookings:  bookings,
		validator: bikeValidator,
		cfg:       cfg,
	}
}

func (s *bikeService) Create(ctx context.Context, bike *model.Bike) error {
	if bike.Status == "" {
		bike.Status = model.BikeStatusReady
	}
	if err := s.validator.Validate(bike); err != nil {
		s.cfg.Log.Warn("Bike validation failed", "error", err)
		return apperrors.Validation("Bike validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, bike); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("A bike with this registration number already exists")
		}
		s.cfg.Log.Error("Failed to create bike", "error", err)
		return apperrors.Internal("Failed to create bike", err)
	}

	s.cfg.Log.Info("Bike created", "id", bike.ID, "registration_number", bike.RegistrationNumber)
	return nil
}

func (s *bikeService) GetByID(ctx context.Context, id string) (*model.Bike, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bike ID cannot be empty")
	}

	bike, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupErr(err, id)
	}
	return bike, nil
}

func (s *bikeService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Bike, int64, error) {
	bikes, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bikes", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bikes", err)
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count bikes", "error", err)
		return nil, 0, apperrors.Internal("Failed to count bikes", err)
	}
	return bikes, count, nil
}

func (s *bikeService) GetAvailable(ctx context.Context, limit int, offset int64) ([]*model.Bike, int64, error) {
	bikes, err := s.repo.FindByStatus(ctx, model.BikeStatusReady, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list available bikes", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve available bikes", err)
	}
	count, err := s.repo.CountByStatus(ctx, model.BikeStatusReady)
	if err != nil {
		s.cfg.Log.Error("Failed to count available bikes", "error", err)
		return nil, 0, apperrors.Internal("Failed to count available bikes", err)
	}
	return bikes, count, nil
}

func (s *bikeService) Search(ctx context.Context, term string, limit int, offset int64) ([]*model.Bike, error) {
	if term == "" {
		return nil, apperrors.InvalidInput("Search term cannot be empty")
	}
	bikes, err := s.repo.Search(ctx, term, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to search bikes", "term", term, "error", err)
		return nil, apperrors.Internal("Failed to search bikes", err)
	}
	return bikes, nil
}

func (s *bikeService) FilterByBrand(ctx context.Context, brand string, limit int, offset int64) ([]*model.Bike, error) {
	if brand == "" {
		return nil, apperrors.InvalidInput("Brand cannot be empty")
	}
	bikes, err := s.repo.FindByBrand(ctx, brand, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to filter bikes by brand", "brand", brand, "error", err)
		return nil, apperrors.Internal("Failed to filter bikes", err)
	}
	return bikes, nil
}

func (s *bikeService) Update(ctx context.Context, id string, updates *model.BikeUpdate) (*model.Bike, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bike ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Bike update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupErr(err, id)
	}

	merged := s.mergeUpdates(existing, updates)
	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, bikeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Bike", id)
		}
		s.cfg.Log.Error("Failed to update bike", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update bike", err)
	}

	s.cfg.Log.Info("Bike updated", "id", id)
	return merged, nil
}

// Delete refuses to remove a bike with booking history; the audit trail
// references it. Cascade removal is an explicit administrative choice made
// elsewhere, never implicit.
func (s *bikeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Bike ID cannot be empty")
	}

	referencing, err := s.bookings.CountByBike(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings for bike", "id", id, "error", err)
		return apperrors.Internal("Failed to check bike booking history", err)
	}
	if referencing > 0 {
		return apperrors.Conflict("Bike has booking history and cannot be deleted").
			WithDetails(map[string]any{"booking_count": referencing})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateLookupErr(err, id)
	}

	s.cfg.Log.Info("Bike deleted", "id", id)
	return nil
}

func (s *bikeService) SetUnavailable(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.BikeStatusUnavailable)
}

func (s *bikeService) SetReady(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.BikeStatusReady)
}

func (s *bikeService) setStatus(ctx context.Context, id string, status model.BikeStatus) error {
	if id == "" {
		return apperrors.InvalidInput("Bike ID cannot be empty")
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return s.translateLookupErr(err, id)
	}
	s.cfg.Log.Info("Bike status set administratively", "id", id, "status", status)
	return nil
}

func (s *bikeService) mergeUpdates(existing *model.Bike, updates *model.BikeUpdate) *model.Bike {
	merged := *existing

	if updates.Model != "" {
		merged.Model = updates.Model
	}
	if updates.Brand != "" {
		merged.Brand = updates.Brand
	}
	if updates.PricePerHour != nil {
		merged.PricePerHour = *updates.PricePerHour
	}
	if updates.CurrentLocation != "" {
		merged.CurrentLocation = updates.CurrentLocation
	}
	if updates.Mileage != nil {
		merged.Mileage = *updates.Mileage
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.Color != "" {
		merged.Color = updates.Color
	}

	return &merged
}

func (s *bikeService) translateLookupErr(err error, id string) error {
	if errors.Is(err, bikeserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Bike", id)
	}
	if errors.Is(err, bikeserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid bike ID format")
	}
	return apperrors.Internal("Bike lookup failed", err)
}
