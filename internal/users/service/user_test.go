package service

import (
	"context"
	"testing"

	userserrors "bikerental/internal/users/errors"
	"bikerental/internal/users/validator"
	"bikerental/pkg/config"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"
)

const testUserID = "507f1f77bcf86cd799439011"

type mockUserRepository struct {
	createFunc   func(ctx context.Context, user *model.User) error
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)

	statusUpdates map[string]model.VerificationStatus
	granted       []string
	consumed      []string
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = testUserID
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	return nil, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockUserRepository) SetVerificationStatus(ctx context.Context, id string, status model.VerificationStatus) error {
	if m.statusUpdates == nil {
		m.statusUpdates = map[string]model.VerificationStatus{}
	}
	m.statusUpdates[id] = status
	return nil
}

func (m *mockUserRepository) GrantOneTimePhysical(ctx context.Context, id string) error {
	m.granted = append(m.granted, id)
	return nil
}

func (m *mockUserRepository) ConsumeOneTimePhysical(ctx context.Context, id string) error {
	m.consumed = append(m.consumed, id)
	return nil
}

func (m *mockUserRepository) EnsureIndexes(ctx context.Context) error { return nil }

func newTestService(repo *mockUserRepository) UserService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	return NewUserService(repo, validator.NewUserValidator(cfg.Log), cfg)
}

func validUser() *model.User {
	return &model.User{
		PhoneNumber: "+919876543210",
		FullName:    "Asha Rao",
	}
}

func TestRegister_DefaultsRoleAndStatus(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	user := validUser()
	if err := svc.Register(context.Background(), user); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %s, want user", user.Role)
	}
	if user.VerificationStatus != model.VerificationPending {
		t.Errorf("VerificationStatus = %s, want pending", user.VerificationStatus)
	}
}

func TestRegister_InvalidPhoneRejected(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	user := validUser()
	user.PhoneNumber = "not-a-phone"

	err := svc.Register(context.Background(), user)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSetVerificationStatus(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newTestService(repo)

	if err := svc.SetVerificationStatus(context.Background(), testUserID, model.VerificationVerified); err != nil {
		t.Fatalf("SetVerificationStatus() returned error: %v", err)
	}
	if repo.statusUpdates[testUserID] != model.VerificationVerified {
		t.Errorf("status update = %v, want verified", repo.statusUpdates)
	}
}

func TestSetVerificationStatus_InvalidValue(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	err := svc.SetVerificationStatus(context.Background(), testUserID, "approved")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestGrantOneTimePhysical(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, VerificationStatus: model.VerificationPending}, nil
		},
	}
	svc := newTestService(repo)

	if err := svc.GrantOneTimePhysical(context.Background(), testUserID); err != nil {
		t.Fatalf("GrantOneTimePhysical() returned error: %v", err)
	}
	if len(repo.granted) != 1 || repo.granted[0] != testUserID {
		t.Errorf("granted = %v, want one grant for %s", repo.granted, testUserID)
	}
}

func TestGrantOneTimePhysical_AlreadyVerified(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, VerificationStatus: model.VerificationVerified}, nil
		},
	}
	svc := newTestService(repo)

	err := svc.GrantOneTimePhysical(context.Background(), testUserID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if len(repo.granted) != 0 {
		t.Errorf("no grant expected, got %v", repo.granted)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	_, err := svc.GetByID(context.Background(), testUserID)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
