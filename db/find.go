package db

import (
	"context"
	"errors"

	"localchef/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindAndDecode runs a find and decodes every document. The result is never
// nil so it encodes as [] rather than null.
func FindAndDecode[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// FindOneAndDecode decodes a single document, translating "no documents"
// into models.ErrNotFound.
func FindOneAndDecode[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}
