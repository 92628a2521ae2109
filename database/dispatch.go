package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lightlink-network/ll-bridge-validator/database/models"
)

func (db *Database) CreateDispatch(ctx context.Context, dispatch models.Dispatch) error {
	if dispatch.CreatedAt.IsZero() {
		dispatch.CreatedAt = time.Now().UTC()
	}

	if _, err := db.collection(dispatchesCollection).InsertOne(ctx, dispatch); err != nil {
		return fmt.Errorf("failed to create dispatch: %w", err)
	}

	return nil
}

// GetDispatches returns one page of dispatch records, newest first.
func (db *Database) GetDispatches(ctx context.Context, filter models.Filter, page int64, pageSize int64) (*models.PaginatedResult, error) {
	mongoFilter := buildFilter(filter)
	skip := (page - 1) * pageSize

	collection := db.collection(dispatchesCollection)
	totalCount, err := collection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(pageSize)

	cursor, err := collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find dispatches: %w", err)
	}
	defer cursor.Close(ctx)

	dispatches := make([]models.Dispatch, 0)
	if err := cursor.All(ctx, &dispatches); err != nil {
		return nil, fmt.Errorf("failed to decode dispatches: %w", err)
	}

	return &models.PaginatedResult{
		Items:      dispatches,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
