package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bikeserrors "bikerental/internal/bikes/errors"
	"bikerental/pkg/config"
	mongotx "bikerental/pkg/db/mongo"
	"bikerental/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Bikes"

type BikeRepository interface {
	Create(ctx context.Context, bike *model.Bike) error
	FindByID(ctx context.Context, id string) (*model.Bike, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Bike, error)
	FindByStatus(ctx context.Context, status model.BikeStatus, limit int, offset int64) ([]*model.Bike, error)
	Search(ctx context.Context, term string, limit int, offset int64) ([]*model.Bike, error)
	FindByBrand(ctx context.Context, brand string, limit int, offset int64) ([]*model.Bike, error)
	Update(ctx context.Context, id string, bike *model.Bike) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.BikeStatus) (int64, error)

	// TrySetReserved is the single serialization point for concurrent
	// bookings: one atomic Ready->Reserved compare-and-set on the bike
	// document. Returns ErrNotClaimable when the filter matched nothing.
	TrySetReserved(ctx context.Context, id string) error
	// Release flips Reserved back to Ready. A bike moved to Unavailable by
	// an administrator stays Unavailable.
	Release(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status model.BikeStatus) error

	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBikeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBikeRepository(cfg *config.Config) BikeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBikeRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it already runs inside
// a transaction; a SessionContext cannot be wrapped without breaking
// transaction semantics.
func (r *mongoBikeRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBikeRepository) Create(ctx context.Context, bike *model.Bike) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bike.CreatedAt = now
	bike.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, bike)
	if err != nil {
		return fmt.Errorf("failed to create bike: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bike.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBikeRepository) FindByID(ctx context.Context, id string) (*model.Bike, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bikeserrors.ErrInvalidID, id)
	}

	var bike model.Bike
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&bike)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bikeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bike: %w", err)
	}

	return &bike, nil
}

func (r *mongoBikeRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Bike, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoBikeRepository) FindByStatus(ctx context.Context, status model.BikeStatus, limit int, offset int64) ([]*model.Bike, error) {
	return r.find(ctx, bson.M{"status": status}, limit, offset)
}

func (r *mongoBikeRepository) Search(ctx context.Context, term string, limit int, offset int64) ([]*model.Bike, error) {
	pattern := primitive.Regex{Pattern: term, Options: "i"}
	filter := bson.M{"$or": []bson.M{
		{"model": pattern},
		{"brand": pattern},
	}}
	return r.find(ctx, filter, limit, offset)
}

func (r *mongoBikeRepository) FindByBrand(ctx context.Context, brand string, limit int, offset int64) ([]*model.Bike, error) {
	return r.find(ctx, bson.M{"brand": brand}, limit, offset)
}

func (r *mongoBikeRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Bike, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bikes: %w", err)
	}
	defer cursor.Close(ctx)

	var bikes []*model.Bike
	if err = cursor.All(ctx, &bikes); err != nil {
		return nil, fmt.Errorf("failed to decode bikes: %w", err)
	}

	return bikes, nil
}

func (r *mongoBikeRepository) Update(ctx context.Context, id string, bike *model.Bike) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bikeserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"model":            bike.Model,
			"brand":            bike.Brand,
			"price_per_hour":   bike.PricePerHour,
			"current_location": bike.CurrentLocation,
			"mileage":          bike.Mileage,
			"description":      bike.Description,
			"color":            bike.Color,
			"updated_at":       time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update bike: %w", err)
	}
	if result.MatchedCount == 0 {
		return bikeserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBikeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bikeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete bike: %w", err)
	}
	if result.DeletedCount == 0 {
		return bikeserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBikeRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bikes: %w", err)
	}
	return count, nil
}

func (r *mongoBikeRepository) CountByStatus(ctx context.Context, status model.BikeStatus) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count bikes by status: %w", err)
	}
	return count, nil
}

func (r *mongoBikeRepository) TrySetReserved(ctx context.Context, id string) error {
	return r.conditionalStatusFlip(ctx, id, model.BikeStatusReady, model.BikeStatusReserved)
}

func (r *mongoBikeRepository) Release(ctx context.Context, id string) error {
	return r.conditionalStatusFlip(ctx, id, model.BikeStatusReserved, model.BikeStatusReady)
}

// conditionalStatusFlip is a compare-and-set on the status field: the update
// matches only when the document still carries the expected status, so two
// concurrent claims cannot both succeed.
func (r *mongoBikeRepository) conditionalStatusFlip(ctx context.Context, id string, from, to model.BikeStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bikeserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to flip bike status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bikeserrors.ErrNotClaimable
	}
	return nil
}

func (r *mongoBikeRepository) SetStatus(ctx context.Context, id string, status model.BikeStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bikeserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set bike status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bikeserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBikeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "brand", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bike indexes: %w", err)
	}
	return nil
}

func (r *mongoBikeRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
