package meals

import (
	"context"
	"fmt"

	"localchef/db"
	"localchef/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	Insert(ctx context.Context, meal *models.Meal) (primitive.ObjectID, error)
	List(ctx context.Context, q Query) ([]models.Meal, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Meal, error)
	ByChef(ctx context.Context, email string) ([]models.Meal, error)
	// Update returns the modified count.
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error)
	// Delete returns the deleted count.
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// ChefLookup finds the account behind a meal's chefEmail.
type ChefLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type MongoStore struct {
	mgr *db.Manager
}

func NewMongoStore(mgr *db.Manager) *MongoStore {
	return &MongoStore{mgr: mgr}
}

func (s *MongoStore) Insert(ctx context.Context, meal *models.Meal) (primitive.ObjectID, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if meal.ID.IsZero() {
		meal.ID = primitive.NewObjectID()
	}
	if _, err := cols.Meals.InsertOne(ctx, meal); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert meal: %w", err)
	}
	return meal.ID, nil
}

func (s *MongoStore) List(ctx context.Context, q Query) ([]models.Meal, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindAndDecode[models.Meal](ctx, cols.Meals, bson.M{}, q.FindOptions())
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Meal, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindOneAndDecode[models.Meal](ctx, cols.Meals, bson.M{"_id": id})
}

func (s *MongoStore) ByChef(ctx context.Context, email string) ([]models.Meal, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindAndDecode[models.Meal](ctx, cols.Meals, bson.M{"chefEmail": email})
}

func (s *MongoStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Meals.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return 0, fmt.Errorf("update meal: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Meals.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete meal: %w", err)
	}
	return res.DeletedCount, nil
}

var _ Store = (*MongoStore)(nil)
