package db

import (
	"context"
	"errors"

	"localchef/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertUnique inserts doc unless a document matching key is already
// stored, returning models.ErrExists in either the lookup or the unique
// index case. The lookup still guards collections whose unique index could
// not be built (older data that already holds duplicates); the index settles
// concurrent inserts where it exists.
func InsertUnique(ctx context.Context, coll *mongo.Collection, key bson.M, doc any) error {
	err := coll.FindOne(ctx, key, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case err == nil:
		return models.ErrExists
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if IsDuplicateKey(err) {
			return models.ErrExists
		}
		return err
	}
	return nil
}
