package favorites

import (
	"context"
	"errors"
	"fmt"

	"localchef/db"
	"localchef/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	// Insert returns models.ErrExists when the user already saved the meal.
	Insert(ctx context.Context, fav *models.Favorite) (primitive.ObjectID, error)
	ByUser(ctx context.Context, email string) ([]models.Favorite, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type MongoStore struct {
	mgr *db.Manager
}

func NewMongoStore(mgr *db.Manager) *MongoStore {
	return &MongoStore{mgr: mgr}
}

func (s *MongoStore) Insert(ctx context.Context, fav *models.Favorite) (primitive.ObjectID, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if fav.ID.IsZero() {
		fav.ID = primitive.NewObjectID()
	}
	if err := db.InsertUnique(ctx, cols.Favorites, bson.M{"userEmail": fav.UserEmail, "mealId": fav.MealID}, fav); err != nil {
		if errors.Is(err, models.ErrExists) {
			return primitive.NilObjectID, err
		}
		return primitive.NilObjectID, fmt.Errorf("insert favorite: %w", err)
	}
	return fav.ID, nil
}

func (s *MongoStore) ByUser(ctx context.Context, email string) ([]models.Favorite, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindAndDecode[models.Favorite](ctx, cols.Favorites, bson.M{"userEmail": email},
		options.Find().SetSort(bson.D{{Key: "addedTime", Value: -1}}))
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Favorites.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete favorite: %w", err)
	}
	return res.DeletedCount, nil
}

var _ Store = (*MongoStore)(nil)
