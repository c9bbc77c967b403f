package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes that back the duplicate checks
// (user email, one role request per user and type, one favorite per user and
// meal) and the lookup indexes the handlers filter and sort on.
func EnsureIndexes(ctx context.Context, cols *Collections) error {
	plan := []struct {
		coll *mongo.Collection
		idxs []mongo.IndexModel
	}{
		{cols.Users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		}},
		{cols.RoleRequests, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "requestType", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_user_request_type"),
			},
			{Keys: bson.D{{Key: "requestStatus", Value: 1}, {Key: "roleApplied", Value: 1}}, Options: options.Index().SetName("status_applied")},
		}},
		{cols.Favorites, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "mealId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_user_meal"),
			},
		}},
		{cols.Meals, []mongo.IndexModel{
			{Keys: bson.D{{Key: "chefEmail", Value: 1}}, Options: options.Index().SetName("chef_email")},
			{Keys: bson.D{{Key: "price", Value: 1}}, Options: options.Index().SetName("price")},
		}},
		{cols.Orders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userEmail", Value: 1}}, Options: options.Index().SetName("user_email")},
			{Keys: bson.D{{Key: "chefEmail", Value: 1}}, Options: options.Index().SetName("chef_email")},
		}},
		{cols.Reviews, []mongo.IndexModel{
			{Keys: bson.D{{Key: "mealId", Value: 1}, {Key: "date", Value: -1}}, Options: options.Index().SetName("meal_date")},
		}},
	}

	var errs []error
	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateMany(ctx, p.idxs); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.coll.Name(), err))
		}
	}
	return errors.Join(errs...)
}
