package orders

import (
	"context"
	"fmt"
	"time"

	"localchef/db"
	"localchef/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
	ByUser(ctx context.Context, email string) ([]models.Order, error)
	ByChef(ctx context.Context, email string) ([]models.Order, error)
	// SetStatus returns the matched count.
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (int64, error)
	// CountPending counts pending orders, for one chef when chefEmail is set.
	CountPending(ctx context.Context, chefEmail string) (int64, error)
}

// CustomerLookup finds the account placing an order.
type CustomerLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type MongoStore struct {
	mgr *db.Manager
}

func NewMongoStore(mgr *db.Manager) *MongoStore {
	return &MongoStore{mgr: mgr}
}

func (s *MongoStore) Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := cols.Orders.InsertOne(ctx, order); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert order: %w", err)
	}
	return order.ID, nil
}

func (s *MongoStore) ByUser(ctx context.Context, email string) ([]models.Order, error) {
	return s.find(ctx, bson.M{"userEmail": email})
}

func (s *MongoStore) ByChef(ctx context.Context, email string) ([]models.Order, error) {
	return s.find(ctx, bson.M{"chefEmail": email})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindAndDecode[models.Order](ctx, cols.Orders, filter,
		options.Find().SetSort(bson.D{{Key: "orderTime", Value: -1}}))
}

func (s *MongoStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	res, err := cols.Orders.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"orderStatus": status, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("update order status: %w", err)
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) CountPending(ctx context.Context, chefEmail string) (int64, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return 0, err
	}
	filter := bson.M{"orderStatus": models.OrderPending}
	if chefEmail != "" {
		filter["chefEmail"] = chefEmail
	}
	return cols.Orders.CountDocuments(ctx, filter)
}

var _ Store = (*MongoStore)(nil)
