package models

import (
	"encoding/json"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// legacyMealKey is the older name some clients still send for MealID.
const legacyMealKey = "foodId"

type Review struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	MealID        string             `json:"mealId" bson:"mealId"`
	ReviewerEmail string             `json:"reviewerEmail" bson:"reviewerEmail"`
	Rating        Number             `json:"rating" bson:"rating"`
	Comment       string             `json:"comment" bson:"comment"`
	Date          time.Time          `json:"date" bson:"date"`
	UpdatedAt     *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	Extra         Extra              `json:"-" bson:",inline"`
}

var reviewKeys = jsonKeys(reflect.TypeOf(Review{}))

func (r Review) MarshalJSON() ([]byte, error) {
	type alias Review
	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, r.Extra)
}

func (r *Review) UnmarshalJSON(data []byte) error {
	type alias Review
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, reviewKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*r = Review(a)
	r.NormalizeMealID()
	return nil
}

// NormalizeMealID moves a legacy foodId into MealID. Documents written by
// older clients carry only foodId.
func (r *Review) NormalizeMealID() {
	legacy, ok := r.Extra[legacyMealKey]
	if !ok {
		return
	}
	if id, isString := legacy.(string); isString && r.MealID == "" {
		r.MealID = id
	}
	delete(r.Extra, legacyMealKey)
	if len(r.Extra) == 0 {
		r.Extra = nil
	}
}
