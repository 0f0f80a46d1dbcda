package service

import (
	"context"
	"testing"
	"time"

	bikeserrors "bikerental/internal/bikes/errors"
	"bikerental/internal/bookings/validator"
	"bikerental/pkg/clock"
	"bikerental/pkg/config"
	mongotx "bikerental/pkg/db/mongo"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/events"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testUserID    = "507f1f77bcf86cd799439011"
	testBikeID    = "507f1f77bcf86cd799439012"
	testBookingID = "507f1f77bcf86cd799439013"
)

type mockBookingRepository struct {
	createFunc           func(ctx context.Context, booking *model.Booking) error
	findByIDFunc         func(ctx context.Context, id string) (*model.Booking, error)
	countOverlappingFunc func(ctx context.Context, bikeID string, start, end time.Time) (int64, error)
	updateStatusFunc     func(ctx context.Context, id string, from, to model.BookingStatus) error

	createdBooking *model.Booking
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.createdBooking = booking
	booking.ID = testBookingID
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) CountByBike(ctx context.Context, bikeID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) CountOverlapping(ctx context.Context, bikeID string, start, end time.Time) (int64, error) {
	if m.countOverlappingFunc != nil {
		return m.countOverlappingFunc(ctx, bikeID, start, end)
	}
	return 0, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockBookingRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockBikeStore struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.Bike, error)
	trySetReservedFunc func(ctx context.Context, id string) error

	claimed  []string
	released []string
}

func (m *mockBikeStore) FindByID(ctx context.Context, id string) (*model.Bike, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Bike{ID: id, Status: model.BikeStatusReady, PricePerHour: 100}, nil
}

func (m *mockBikeStore) TrySetReserved(ctx context.Context, id string) error {
	if m.trySetReservedFunc != nil {
		return m.trySetReservedFunc(ctx, id)
	}
	m.claimed = append(m.claimed, id)
	return nil
}

func (m *mockBikeStore) Release(ctx context.Context, id string) error {
	m.released = append(m.released, id)
	return nil
}

type mockUserStore struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)

	consumed []string
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.User{ID: id, VerificationStatus: model.VerificationVerified}, nil
}

func (m *mockUserStore) ConsumeOneTimePhysical(ctx context.Context, id string) error {
	m.consumed = append(m.consumed, id)
	return nil
}

type capturingPublisher struct {
	published []events.BookingEvent
}

func (p *capturingPublisher) Publish(_ context.Context, evt events.BookingEvent) {
	p.published = append(p.published, evt)
}

func (p *capturingPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		Currency: "INR",
	}
}

func newTestService(
	repo *mockBookingRepository,
	bikes *mockBikeStore,
	users *mockUserStore,
	publisher *capturingPublisher,
) BookingService {
	cfg := testConfig()
	return NewBookingService(
		repo, bikes, users,
		validator.NewBookingValidator(cfg.Log),
		clock.Fixed{T: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)},
		publisher, cfg,
	)
}

func validRequest() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		BikeID:    testBikeID,
		StartTime: time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 2, 11, 30, 0, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	repo := &mockBookingRepository{}
	bikes := &mockBikeStore{}
	users := &mockUserStore{}
	publisher := &capturingPublisher{}
	svc := newTestService(repo, bikes, users, publisher)

	booking, err := svc.Create(context.Background(), testUserID, validRequest())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	if booking.Status != model.BookingPending {
		t.Errorf("Status = %s, want pending", booking.Status)
	}
	// 2.5 hours at 100/hour bills 3 whole hours.
	if booking.TotalAmount != 300 {
		t.Errorf("TotalAmount = %v, want 300", booking.TotalAmount)
	}
	if booking.EligibilityBasis != model.EligibilityVerified {
		t.Errorf("EligibilityBasis = %s, want verified", booking.EligibilityBasis)
	}
	if len(bikes.claimed) != 1 || bikes.claimed[0] != testBikeID {
		t.Errorf("bike claim calls = %v, want one claim of %s", bikes.claimed, testBikeID)
	}
	if len(publisher.published) != 1 || publisher.published[0].Type != events.TypeBookingCreated {
		t.Errorf("published events = %v, want one booking.created", publisher.published)
	}
}

func TestCreate_OneTimePhysicalBasisRecorded(t *testing.T) {
	repo := &mockBookingRepository{}
	bikes := &mockBikeStore{}
	users := &mockUserStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:                          id,
				VerificationStatus:          model.VerificationPending,
				PhysicalVerificationOneTime: true,
			}, nil
		},
	}
	svc := newTestService(repo, bikes, users, &capturingPublisher{})

	booking, err := svc.Create(context.Background(), testUserID, validRequest())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if booking.EligibilityBasis != model.EligibilityOneTimePhysical {
		t.Errorf("EligibilityBasis = %s, want one_time_physical", booking.EligibilityBasis)
	}
}

func TestCreate_UserNotEligible(t *testing.T) {
	users := &mockUserStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, VerificationStatus: model.VerificationPending}, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockBikeStore{}, users, &capturingPublisher{})

	_, err := svc.Create(context.Background(), testUserID, validRequest())
	if !apperrors.IsCode(err, apperrors.CodePolicyViolation) {
		t.Errorf("expected policy violation, got %v", err)
	}
}

func TestCreate_BikeNotReady(t *testing.T) {
	bikes := &mockBikeStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Bike, error) {
			return &model.Bike{ID: id, Status: model.BikeStatusUnavailable, PricePerHour: 100}, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, bikes, &mockUserStore{}, &capturingPublisher{})

	_, err := svc.Create(context.Background(), testUserID, validRequest())
	if !apperrors.IsCode(err, apperrors.CodePolicyViolation) {
		t.Errorf("expected policy violation, got %v", err)
	}
}

func TestCreate_BikeNotFound(t *testing.T) {
	bikes := &mockBikeStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Bike, error) {
			return nil, bikeserrors.ErrNotFound
		},
	}
	svc := newTestService(&mockBookingRepository{}, bikes, &mockUserStore{}, &capturingPublisher{})

	_, err := svc.Create(context.Background(), testUserID, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreate_OverlappingWindowConflict(t *testing.T) {
	repo := &mockBookingRepository{
		countOverlappingFunc: func(ctx context.Context, bikeID string, start, end time.Time) (int64, error) {
			return 1, nil
		},
	}
	bikes := &mockBikeStore{}
	publisher := &capturingPublisher{}
	svc := newTestService(repo, bikes, &mockUserStore{}, publisher)

	_, err := svc.Create(context.Background(), testUserID, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if len(bikes.claimed) != 0 {
		t.Errorf("bike should not be claimed on overlap, claims = %v", bikes.claimed)
	}
	if len(publisher.published) != 0 {
		t.Errorf("no event should be published on conflict, got %v", publisher.published)
	}
}

func TestCreate_ClaimRaceLosesWithConflict(t *testing.T) {
	bikes := &mockBikeStore{
		trySetReservedFunc: func(ctx context.Context, id string) error {
			return bikeserrors.ErrNotClaimable
		},
	}
	svc := newTestService(&mockBookingRepository{}, bikes, &mockUserStore{}, &capturingPublisher{})

	_, err := svc.Create(context.Background(), testUserID, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict on claim race, got %v", err)
	}
}

func TestCreate_InvalidWindowRejected(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockBikeStore{}, &mockUserStore{}, &capturingPublisher{})

	req := validRequest()
	req.EndTime = req.StartTime

	_, err := svc.Create(context.Background(), testUserID, req)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error for zero-length window, got %v", err)
	}
}

func existingBooking(status model.BookingStatus, basis model.EligibilityBasis) *model.Booking {
	return &model.Booking{
		ID:               testBookingID,
		UserID:           testUserID,
		BikeID:           testBikeID,
		StartTime:        time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC),
		TotalAmount:      200,
		Status:           status,
		EligibilityBasis: basis,
	}
}

func TestStartRide_Success(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(model.BookingConfirmed, model.EligibilityVerified), nil
		},
	}
	publisher := &capturingPublisher{}
	svc := newTestService(repo, &mockBikeStore{}, &mockUserStore{}, publisher)

	booking, err := svc.StartRide(context.Background(), testBookingID)
	if err != nil {
		t.Fatalf("StartRide() returned error: %v", err)
	}
	if booking.Status != model.BookingInProgress {
		t.Errorf("Status = %s, want in_progress", booking.Status)
	}
	if len(publisher.published) != 1 || publisher.published[0].Type != events.TypeBookingStarted {
		t.Errorf("published events = %v, want one booking.started", publisher.published)
	}
}

func TestStartRide_FromPendingRejected(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(model.BookingPending, model.EligibilityVerified), nil
		},
	}
	svc := newTestService(repo, &mockBikeStore{}, &mockUserStore{}, &capturingPublisher{})

	_, err := svc.StartRide(context.Background(), testBookingID)
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Errorf("expected invalid transition, got %v", err)
	}
}

func TestComplete_ReleasesBikeAndConsumesAllowance(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(model.BookingInProgress, model.EligibilityOneTimePhysical), nil
		},
	}
	bikes := &mockBikeStore{}
	users := &mockUserStore{}
	publisher := &capturingPublisher{}
	svc := newTestService(repo, bikes, users, publisher)

	booking, err := svc.Complete(context.Background(), testBookingID)
	if err != nil {
		t.Fatalf("Complete() returned error: %v", err)
	}
	if booking.Status != model.BookingCompleted {
		t.Errorf("Status = %s, want completed", booking.Status)
	}
	if len(bikes.released) != 1 || bikes.released[0] != testBikeID {
		t.Errorf("released = %v, want one release of %s", bikes.released, testBikeID)
	}
	if len(users.consumed) != 1 || users.consumed[0] != testUserID {
		t.Errorf("consumed = %v, want one consume for %s", users.consumed, testUserID)
	}
	if len(publisher.published) != 1 || publisher.published[0].Type != events.TypeBookingCompleted {
		t.Errorf("published events = %v, want one booking.completed", publisher.published)
	}
}

func TestComplete_VerifiedBasisKeepsAllowance(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(model.BookingConfirmed, model.EligibilityVerified), nil
		},
	}
	users := &mockUserStore{}
	svc := newTestService(repo, &mockBikeStore{}, users, &capturingPublisher{})

	if _, err := svc.Complete(context.Background(), testBookingID); err != nil {
		t.Fatalf("Complete() returned error: %v", err)
	}
	if len(users.consumed) != 0 {
		t.Errorf("allowance should not be consumed for verified basis, consumed = %v", users.consumed)
	}
}

func TestCancel_PendingReleasesBike(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(model.BookingPending, model.EligibilityVerified), nil
		},
	}
	bikes := &mockBikeStore{}
	publisher := &capturingPublisher{}
	svc := newTestService(repo, bikes, &mockUserStore{}, publisher)

	booking, err := svc.Cancel(context.Background(), testBookingID)
	if err != nil {
		t.Fatalf("Cancel() returned error: %v", err)
	}
	if booking.Status != model.BookingCancelled {
		t.Errorf("Status = %s, want cancelled", booking.Status)
	}
	if len(bikes.released) != 1 {
		t.Errorf("released = %v, want one release", bikes.released)
	}
	if len(publisher.published) != 1 || publisher.published[0].Type != events.TypeBookingCancelled {
		t.Errorf("published events = %v, want one booking.cancelled", publisher.published)
	}
}

func TestCancel_InProgressRejected(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(model.BookingInProgress, model.EligibilityVerified), nil
		},
	}
	svc := newTestService(repo, &mockBikeStore{}, &mockUserStore{}, &capturingPublisher{})

	_, err := svc.Cancel(context.Background(), testBookingID)
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Errorf("expected invalid transition, got %v", err)
	}
}

func TestCancel_TerminalRejected(t *testing.T) {
	for _, status := range []model.BookingStatus{model.BookingCompleted, model.BookingCancelled} {
		repo := &mockBookingRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
				return existingBooking(status, model.EligibilityVerified), nil
			},
		}
		svc := newTestService(repo, &mockBikeStore{}, &mockUserStore{}, &capturingPublisher{})

		if _, err := svc.Cancel(context.Background(), testBookingID); !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
			t.Errorf("cancel from %s: expected invalid transition, got %v", status, err)
		}
	}
}
