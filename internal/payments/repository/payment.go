package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "bikerental/internal/payments/errors"
	"bikerental/pkg/config"
	mongodb "bikerental/pkg/db/mongo"
	"bikerental/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "PaymentIntents"

type PaymentRepository interface {
	Create(ctx context.Context, intent *model.PaymentIntent) error
	FindByOrderID(ctx context.Context, orderID string) (*model.PaymentIntent, error)
	// FindActiveByBooking returns the booking's non-failed intent, if any.
	// Failed intents do not block a retry.
	FindActiveByBooking(ctx context.Context, bookingID string) (*model.PaymentIntent, error)
	// MarkCompleted records the reconciliation outcome on a still-pending
	// intent. Returns ErrAlreadyReconciled when the intent is not pending.
	MarkCompleted(ctx context.Context, orderID, paymentID, signature string, completedAt time.Time) error
	MarkFailed(ctx context.Context, orderID string) error
	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoPaymentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPaymentRepository) Create(ctx context.Context, intent *model.PaymentIntent) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	intent.CreatedAt = now
	intent.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, intent)
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		intent.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.PaymentIntent, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var intent model.PaymentIntent
	err := r.collection.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&intent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment intent: %w", err)
	}

	return &intent, nil
}

func (r *mongoPaymentRepository) FindActiveByBooking(ctx context.Context, bookingID string) (*model.PaymentIntent, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"booking_id": bookingID,
		"status":     bson.M{"$ne": model.PaymentFailed},
	}

	var intent model.PaymentIntent
	err := r.collection.FindOne(ctx, filter).Decode(&intent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active payment intent: %w", err)
	}

	return &intent, nil
}

func (r *mongoPaymentRepository) MarkCompleted(ctx context.Context, orderID, paymentID, signature string, completedAt time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"order_id": orderID, "status": model.PaymentPending}
	update := bson.M{"$set": bson.M{
		"status":       model.PaymentCompleted,
		"payment_id":   paymentID,
		"signature":    signature,
		"completed_at": completedAt,
		"updated_at":   time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to complete payment intent: %w", err)
	}
	if result.MatchedCount == 0 {
		return paymentserrors.ErrAlreadyReconciled
	}
	return nil
}

func (r *mongoPaymentRepository) MarkFailed(ctx context.Context, orderID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"order_id": orderID, "status": model.PaymentPending}
	update := bson.M{"$set": bson.M{
		"status":     model.PaymentFailed,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark payment intent failed: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create payment intent indexes: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
