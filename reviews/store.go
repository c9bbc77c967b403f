package reviews

import (
	"context"
	"fmt"

	"localchef/db"
	"localchef/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	Insert(ctx context.Context, review *models.Review) (primitive.ObjectID, error)
	// All returns every review, newest first.
	All(ctx context.Context) ([]models.Review, error)
	// ByMeal returns a meal's reviews, newest first.
	ByMeal(ctx context.Context, mealID string) ([]models.Review, error)
	ByReviewer(ctx context.Context, email string) ([]models.Review, error)
	// Update returns the modified count.
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type MongoStore struct {
	mgr *db.Manager
}

func NewMongoStore(mgr *db.Manager) *MongoStore {
	return &MongoStore{mgr: mgr}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
}

func (s *MongoStore) Insert(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if _, err := cols.Reviews.InsertOne(ctx, review); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert review: %w", err)
	}
	return review.ID, nil
}

func (s *MongoStore) All(ctx context.Context) ([]models.Review, error) {
	return s.find(ctx, bson.M{}, newestFirst())
}

// ByMeal also matches reviews stored under the legacy foodId field.
func (s *MongoStore) ByMeal(ctx context.Context, mealID string) ([]models.Review, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"mealId": mealID},
		bson.M{"foodId": mealID},
	}}
	return s.find(ctx, filter, newestFirst())
}

func (s *MongoStore) ByReviewer(ctx context.Context, email string) ([]models.Review, error) {
	return s.find(ctx, bson.M{"reviewerEmail": email}, newestFirst())
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Review, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := db.FindAndDecode[models.Review](ctx, cols.Reviews, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].NormalizeMealID()
	}
	return reviews, nil
}

func (s *MongoStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Reviews.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return 0, fmt.Errorf("update review: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete review: %w", err)
	}
	return res.DeletedCount, nil
}

var _ Store = (*MongoStore)(nil)
