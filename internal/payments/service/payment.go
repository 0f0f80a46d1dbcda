package service

import (
	"context"
	"errors"

	bookingserrors "bikerental/internal/bookings/errors"
	paymentserrors "bikerental/internal/payments/errors"
	"bikerental/internal/payments/provider"
	"bikerental/internal/payments/repository"
	"bikerental/pkg/clock"
	"bikerental/pkg/config"
	apperrors "bikerental/pkg/errors"
	"bikerental/pkg/events"
	"bikerental/pkg/model"
	"bikerental/pkg/pricing"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingStore is the slice of the booking lifecycle reconciliation needs.
// Satisfied by the bookings repository.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error
}

type PaymentService interface {
	// CreateOrder mints a provider order for a pending booking and records
	// the pending payment intent. At most one non-failed intent per booking.
	CreateOrder(ctx context.Context, bookingID string) (*model.CreateOrderResponse, error)
	// Reconcile verifies the provider callback signature and, on a match,
	// completes the intent and confirms the booking in one transaction. A
	// repeated callback for an already-completed intent succeeds without
	// rewriting anything.
	Reconcile(ctx context.Context, req *model.ReconcileRequest) (*model.ReconcileResponse, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentIntent, error)
}

type paymentService struct {
	repo      repository.PaymentRepository
	bookings  BookingStore
	orders    provider.OrderClient
	clk       clock.Clock
	publisher events.Publisher
	cfg       *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	bookings BookingStore,
	orders provider.OrderClient,
	clk clock.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:      repo,
		bookings:  bookings,
		orders:    orders,
		clk:       clk,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, bookingID string) (*model.CreateOrderResponse, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Booking lookup failed", err)
	}
	if booking.Status != model.BookingPending {
		return nil, apperrors.Conflict("Booking is not awaiting payment").
			WithDetails(map[string]any{"booking_status": booking.Status})
	}

	existing, err := s.repo.FindActiveByBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, paymentserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to check existing payment intent", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to check existing payment intent", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("A payment is already in flight for this booking").
			WithDetails(map[string]any{"order_id": existing.OrderID, "payment_status": existing.Status})
	}

	amountMinor := pricing.MinorUnits(booking.TotalAmount)

	orderCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	order, err := s.orders.CreateOrder(orderCtx, provider.OrderRequest{
		AmountMinor: amountMinor,
		Currency:    s.cfg.Currency,
		Receipt:     "receipt#" + bookingID,
		Notes: map[string]string{
			"bookingId": bookingID,
			"userId":    booking.UserID,
			"bikeId":    booking.BikeID,
		},
	})
	if err != nil {
		if provider.IsTimeout(err) {
			s.cfg.Log.Error("Provider order creation timed out", "booking_id", bookingID, "error", err)
			return nil, apperrors.UpstreamTimeout("razorpay", err)
		}
		s.cfg.Log.Error("Provider order creation failed", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to create payment order", err)
	}

	intent := &model.PaymentIntent{
		BookingID:   bookingID,
		OrderID:     order.ID,
		Amount:      booking.TotalAmount,
		AmountMinor: amountMinor,
		Currency:    s.cfg.Currency,
		Status:      model.PaymentPending,
	}
	if err := s.repo.Create(ctx, intent); err != nil {
		s.cfg.Log.Error("Failed to persist payment intent", "booking_id", bookingID, "order_id", order.ID, "error", err)
		return nil, apperrors.Internal("Failed to record payment intent", err)
	}

	s.cfg.Log.Info("Payment order created", "booking_id", bookingID, "order_id", order.ID, "amount_minor", amountMinor)
	return &model.CreateOrderResponse{
		OrderID:     order.ID,
		BookingID:   bookingID,
		AmountMinor: amountMinor,
		Currency:    s.cfg.Currency,
		KeyID:       s.cfg.RazorpayKeyID,
	}, nil
}

func (s *paymentService) Reconcile(ctx context.Context, req *model.ReconcileRequest) (*model.ReconcileResponse, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, apperrors.InvalidInput("order_id, payment_id and signature are required")
	}

	if !VerifySignature(req.OrderID, req.PaymentID, s.cfg.RazorpayKeySecret, req.Signature) {
		// Failing the intent is best-effort: the signature verdict stands
		// regardless, and a later genuine callback retries on a new order.
		if err := s.repo.MarkFailed(ctx, req.OrderID); err != nil {
			s.cfg.Log.Error("Failed to mark payment intent failed", "order_id", req.OrderID, "error", err)
		}
		s.cfg.Log.Warn("Payment signature mismatch", "order_id", req.OrderID, "payment_id", req.PaymentID)
		s.publisher.Publish(ctx, events.BookingEvent{
			Type:       events.TypePaymentFailed,
			OrderID:    req.OrderID,
			OccurredAt: s.clk.Now(),
		})
		return nil, apperrors.SignatureMismatch(req.OrderID)
	}

	intent, err := s.repo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Payment order", req.OrderID)
		}
		return nil, apperrors.Internal("Payment intent lookup failed", err)
	}

	switch intent.Status {
	case model.PaymentCompleted:
		if intent.PaymentID != req.PaymentID {
			return nil, apperrors.Conflict("Order was reconciled against a different payment").
				WithDetails(map[string]any{"order_id": req.OrderID})
		}
		return &model.ReconcileResponse{
			BookingID: intent.BookingID,
			PaymentID: intent.PaymentID,
			Status:    string(model.PaymentCompleted),
			Message:   "Payment already reconciled",
			Success:   true,
		}, nil
	case model.PaymentFailed:
		return nil, apperrors.Conflict("Payment intent has failed; create a new order").
			WithDetails(map[string]any{"order_id": req.OrderID})
	}

	completedAt := s.clk.Now()
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.MarkCompleted(sessCtx, req.OrderID, req.PaymentID, req.Signature, completedAt); err != nil {
			if errors.Is(err, paymentserrors.ErrAlreadyReconciled) {
				return apperrors.Conflict("Payment was reconciled concurrently")
			}
			return err
		}
		if err := s.bookings.UpdateStatus(sessCtx, intent.BookingID, model.BookingPending, model.BookingConfirmed); err != nil {
			if errors.Is(err, bookingserrors.ErrStaleStatus) {
				return apperrors.InvalidTransition(statusOf(sessCtx, s.bookings, intent.BookingID), string(model.BookingConfirmed))
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Reconciliation transaction failed", "order_id", req.OrderID, "error", err)
		return nil, apperrors.Internal("Failed to reconcile payment", err)
	}

	s.cfg.Log.Info("Payment reconciled", "order_id", req.OrderID, "payment_id", req.PaymentID, "booking_id", intent.BookingID)

	booking, err := s.bookings.FindByID(ctx, intent.BookingID)
	if err == nil {
		s.publisher.Publish(ctx, events.BookingEvent{
			Type:       events.TypeBookingConfirmed,
			BookingID:  booking.ID,
			UserID:     booking.UserID,
			BikeID:     booking.BikeID,
			OrderID:    req.OrderID,
			Amount:     booking.TotalAmount,
			Currency:   s.cfg.Currency,
			OccurredAt: completedAt,
		})
	}

	return &model.ReconcileResponse{
		BookingID: intent.BookingID,
		PaymentID: req.PaymentID,
		Status:    string(model.PaymentCompleted),
		Message:   "Payment verified and booking confirmed",
		Success:   true,
	}, nil
}

func (s *paymentService) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentIntent, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}
	intent, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Payment order", orderID)
		}
		return nil, apperrors.Internal("Payment intent lookup failed", err)
	}
	return intent, nil
}

func statusOf(ctx context.Context, bookings BookingStore, id string) string {
	b, err := bookings.FindByID(ctx, id)
	if err != nil {
		return "unknown"
	}
	return string(b.Status)
}
