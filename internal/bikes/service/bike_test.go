package service

import (
	"context"
	"testing"

	bikeserrors "bikerental/internal/bikes/errors"
	"bikerental/internal/bikes/validator"
	"bikerental/pkg/config"
	mongotx "bikerental/pkg/db/mongo"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const testBikeID = "507f1f77bcf86cd799439012"

type mockBikeRepository struct {
	createFunc    func(ctx context.Context, bike *model.Bike) error
	findByIDFunc  func(ctx context.Context, id string) (*model.Bike, error)
	deleteFunc    func(ctx context.Context, id string) error
	setStatusFunc func(ctx context.Context, id string, status model.BikeStatus) error

	updatedBike *model.Bike
	deletedIDs  []string
}

func (m *mockBikeRepository) Create(ctx context.Context, bike *model.Bike) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, bike)
	}
	bike.ID = testBikeID
	return nil
}

func (m *mockBikeRepository) FindByID(ctx context.Context, id string) (*model.Bike, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bikeserrors.ErrNotFound
}

func (m *mockBikeRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Bike, error) {
	return nil, nil
}

func (m *mockBikeRepository) FindByStatus(ctx context.Context, status model.BikeStatus, limit int, offset int64) ([]*model.Bike, error) {
	return nil, nil
}

func (m *mockBikeRepository) Search(ctx context.Context, term string, limit int, offset int64) ([]*model.Bike, error) {
	return nil, nil
}

func (m *mockBikeRepository) FindByBrand(ctx context.Context, brand string, limit int, offset int64) ([]*model.Bike, error) {
	return nil, nil
}

func (m *mockBikeRepository) Update(ctx context.Context, id string, bike *model.Bike) error {
	m.updatedBike = bike
	return nil
}

func (m *mockBikeRepository) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBikeRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockBikeRepository) CountByStatus(ctx context.Context, status model.BikeStatus) (int64, error) {
	return 0, nil
}

func (m *mockBikeRepository) TrySetReserved(ctx context.Context, id string) error { return nil }

func (m *mockBikeRepository) Release(ctx context.Context, id string) error { return nil }

func (m *mockBikeRepository) SetStatus(ctx context.Context, id string, status model.BikeStatus) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockBikeRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockBikeRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockBookingCounter struct {
	count int64
}

func (m *mockBookingCounter) CountByBike(ctx context.Context, bikeID string) (int64, error) {
	return m.count, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newTestService(repo *mockBikeRepository, bookings *mockBookingCounter) BikeService {
	cfg := testConfig()
	return NewBikeService(repo, bookings, validator.NewBikeValidator(cfg.Log), cfg)
}

func validBike() *model.Bike {
	return &model.Bike{
		Model:              "Classic 350",
		Brand:              "Royal Enfield",
		RegistrationNumber: "KA01AB1234",
		PricePerHour:       100,
	}
}

func TestCreate_DefaultsToReady(t *testing.T) {
	svc := newTestService(&mockBikeRepository{}, &mockBookingCounter{})

	bike := validBike()
	if err := svc.Create(context.Background(), bike); err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if bike.Status != model.BikeStatusReady {
		t.Errorf("Status = %s, want ready", bike.Status)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockBikeRepository{}, &mockBookingCounter{})

	bike := validBike()
	bike.RegistrationNumber = "x"

	err := svc.Create(context.Background(), bike)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_DuplicateRegistration(t *testing.T) {
	repo := &mockBikeRepository{
		createFunc: func(ctx context.Context, bike *model.Bike) error {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		},
	}
	svc := newTestService(repo, &mockBookingCounter{})

	err := svc.Create(context.Background(), validBike())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict for duplicate registration, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&mockBikeRepository{}, &mockBookingCounter{})

	_, err := svc.GetByID(context.Background(), testBikeID)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDelete_RefusedWithBookingHistory(t *testing.T) {
	repo := &mockBikeRepository{}
	svc := newTestService(repo, &mockBookingCounter{count: 3})

	err := svc.Delete(context.Background(), testBikeID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if len(repo.deletedIDs) != 0 {
		t.Errorf("bike must not be deleted with history, deletes = %v", repo.deletedIDs)
	}
}

func TestDelete_AllowedWithoutBookings(t *testing.T) {
	repo := &mockBikeRepository{}
	svc := newTestService(repo, &mockBookingCounter{count: 0})

	if err := svc.Delete(context.Background(), testBikeID); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != testBikeID {
		t.Errorf("deletes = %v, want one delete of %s", repo.deletedIDs, testBikeID)
	}
}

func TestUpdate_MergesOnlyProvidedFields(t *testing.T) {
	existing := validBike()
	existing.ID = testBikeID
	existing.Status = model.BikeStatusReady
	existing.CurrentLocation = "Indiranagar"

	repo := &mockBikeRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Bike, error) {
			return existing, nil
		},
	}
	svc := newTestService(repo, &mockBookingCounter{})

	newRate := 150.0
	updated, err := svc.Update(context.Background(), testBikeID, &model.BikeUpdate{PricePerHour: &newRate})
	if err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}
	if updated.PricePerHour != 150 {
		t.Errorf("PricePerHour = %v, want 150", updated.PricePerHour)
	}
	if updated.CurrentLocation != "Indiranagar" {
		t.Errorf("CurrentLocation = %s, want unchanged", updated.CurrentLocation)
	}
	if updated.Status != model.BikeStatusReady {
		t.Errorf("Status = %s, update must not touch availability", updated.Status)
	}
}

func TestSetUnavailableAndReady(t *testing.T) {
	var gotStatus model.BikeStatus
	repo := &mockBikeRepository{
		setStatusFunc: func(ctx context.Context, id string, status model.BikeStatus) error {
			gotStatus = status
			return nil
		},
	}
	svc := newTestService(repo, &mockBookingCounter{})

	if err := svc.SetUnavailable(context.Background(), testBikeID); err != nil {
		t.Fatalf("SetUnavailable() returned error: %v", err)
	}
	if gotStatus != model.BikeStatusUnavailable {
		t.Errorf("status = %s, want unavailable", gotStatus)
	}

	if err := svc.SetReady(context.Background(), testBikeID); err != nil {
		t.Fatalf("SetReady() returned error: %v", err)
	}
	if gotStatus != model.BikeStatusReady {
		t.Errorf("status = %s, want ready", gotStatus)
	}
}
