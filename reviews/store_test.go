package reviews

import (
	"context"
	"testing"
	"time"

	"localchef/db"
	"localchef/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestByMealNormalizesLegacyDocuments(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("foodId documents", func(mt *mtest.T) {
		store := NewMongoStore(db.FromDatabase(mt.DB, logger.Discard()))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.reviews", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "foodId", Value: "m1"},
				{Key: "rating", Value: 4.0},
				{Key: "date", Value: time.Now()},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "mealId", Value: "m1"},
				{Key: "rating", Value: 5.0},
				{Key: "date", Value: time.Now().Add(-time.Hour)},
			},
		))

		got, err := store.ByMeal(context.Background(), "m1")
		if err != nil {
			mt.Fatalf("by meal: %v", err)
		}
		if len(got) != 2 {
			mt.Fatalf("expected 2 reviews, got %d", len(got))
		}
		for i, rv := range got {
			if rv.MealID != "m1" {
				mt.Fatalf("review %d: mealId %q", i, rv.MealID)
			}
			if _, ok := rv.Extra["foodId"]; ok {
				mt.Fatalf("review %d still carries foodId", i)
			}
		}
	})

	mt.Run("string ratings", func(mt *mtest.T) {
		store := NewMongoStore(db.FromDatabase(mt.DB, logger.Discard()))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.reviews", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "mealId", Value: "m1"}, {Key: "rating", Value: "4"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "mealId", Value: "m1"}, {Key: "rating", Value: int32(5)}},
		))

		got, err := store.ByMeal(context.Background(), "m1")
		if err != nil {
			mt.Fatalf("by meal: %v", err)
		}
		if len(got) != 2 || got[0].Rating != 4 || got[1].Rating != 5 {
			mt.Fatalf("unexpected reviews %+v", got)
		}
	})
}
