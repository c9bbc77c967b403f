package users

import (
	"context"
	"errors"
	"fmt"

	"localchef/db"
	"localchef/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	// Insert returns models.ErrExists when the email is already registered.
	Insert(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	MarkFraud(ctx context.Context, id primitive.ObjectID) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.UpdateResult, error)
}

type MongoStore struct {
	mgr *db.Manager
}

func NewMongoStore(mgr *db.Manager) *MongoStore {
	return &MongoStore{mgr: mgr}
}

func (s *MongoStore) Insert(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if err := db.InsertUnique(ctx, cols.Users, bson.M{"email": user.Email}, user); err != nil {
		if errors.Is(err, models.ErrExists) {
			return primitive.NilObjectID, err
		}
		return primitive.NilObjectID, fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.User, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindAndDecode[models.User](ctx, cols.Users, bson.M{})
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	return cols.Users.CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindOneAndDecode[models.User](ctx, cols.Users, bson.M{"email": email})
}

func (s *MongoStore) MarkFraud(ctx context.Context, id primitive.ObjectID) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.StatusFraud}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark fraud: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.UpdateResult, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return models.UpdateResult{}, err
	}
	res, err := cols.Users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("update user: %w", err)
	}
	return models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}
