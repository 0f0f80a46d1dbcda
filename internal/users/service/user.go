package service

import (
	"context"
	"errors"

	userserrors "bikerental/internal/users/errors"
	"bikerental/internal/users/repository"
	"bikerental/internal/users/validator"
	"bikerental/pkg/config"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type UserService interface {
	Register(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	// SetVerificationStatus is the verifier's decision on a rider's documents.
	SetVerificationStatus(ctx context.Context, id string, status model.VerificationStatus) error
	// GrantOneTimePhysical marks a rider as physically verified for a single
	// booking, pending document approval.
	GrantOneTimePhysical(ctx context.Context, id string) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(repo repository.UserRepository, userValidator *validator.UserValidator, cfg *config.Config) UserService {
	return &userService{
		repo:      repo,
		validator: userValidator,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	// Verification always starts from scratch; the flags move only through
	// the verifier endpoints.
	user.VerificationStatus = model.VerificationPending
	user.LicenseVerified = false
	user.IDProofVerified = false
	user.PhysicalVerificationOneTime = false
	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "error", err)
		return apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("A user with this phone number already exists")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered", "id", user.ID, "role", user.Role)
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupErr(err, id)
	}
	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	users, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve users", err)
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count users", "error", err)
		return nil, 0, apperrors.Internal("Failed to count users", err)
	}
	return users, count, nil
}

func (s *userService) SetVerificationStatus(ctx context.Context, id string, status model.VerificationStatus) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}
	switch status {
	case model.VerificationPending, model.VerificationVerified, model.VerificationRejected:
	default:
		return apperrors.InvalidInput("Invalid verification status")
	}

	if err := s.repo.SetVerificationStatus(ctx, id, status); err != nil {
		return s.translateLookupErr(err, id)
	}

	s.cfg.Log.Info("User verification status updated", "id", id, "status", status)
	return nil
}

func (s *userService) GrantOneTimePhysical(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translateLookupErr(err, id)
	}
	if user.VerificationStatus == model.VerificationVerified {
		return apperrors.Conflict("User is already fully verified")
	}

	if err := s.repo.GrantOneTimePhysical(ctx, id); err != nil {
		return s.translateLookupErr(err, id)
	}

	s.cfg.Log.Info("One-time physical verification granted", "id", id)
	return nil
}

func (s *userService) translateLookupErr(err error, id string) error {
	if errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("User", id)
	}
	if errors.Is(err, userserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid user ID format")
	}
	return apperrors.Internal("User lookup failed", err)
}
