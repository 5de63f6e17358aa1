package repository

import (
	"context"
	"fmt"
	"time"

	"courtbook/pkg/config"
	mongotx "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoRepository(cfg *config.Config) Repository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged with a no-op cancel function.
func (r *mongoRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoRepository) Load(ctx context.Context) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	for _, b := range bookings {
		b.InLocation(r.cfg.Location)
	}
	return bookings, nil
}

// Save upserts every booking and prunes documents no longer in the
// collection, inside one transaction.
func (r *mongoRepository) Save(ctx context.Context, bookings []*model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ids := make([]int64, 0, len(bookings))
	writes := make([]mongo.WriteModel, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": b.ID}).
			SetReplacement(b).
			SetUpsert(true))
	}

	return r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if len(writes) > 0 {
			if _, err := r.collection.BulkWrite(sessCtx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
				return fmt.Errorf("failed to upsert bookings: %w", err)
			}
		}
		if _, err := r.collection.DeleteMany(sessCtx, bson.M{"_id": bson.M{"$nin": ids}}); err != nil {
			return fmt.Errorf("failed to prune bookings: %w", err)
		}
		return nil
	})
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return r.db.Client().Ping(ctx, nil)
}
