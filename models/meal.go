package models

import (
	"encoding/json"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meal is a dish offered by a chef. Besides the declared fields a meal keeps
// whatever else the chef's client sends (ingredients, images, delivery area...).
type Meal struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FoodName  string             `json:"foodName" bson:"foodName"`
	ChefName  string             `json:"chefName" bson:"chefName"`
	ChefEmail string             `json:"chefEmail" bson:"chefEmail"`
	Price     Number             `json:"price" bson:"price"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	Extra     Extra              `json:"-" bson:",inline"`
}

var mealKeys = jsonKeys(reflect.TypeOf(Meal{}))

func (m Meal) MarshalJSON() ([]byte, error) {
	type alias Meal
	base, err := json.Marshal(alias(m))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, m.Extra)
}

func (m *Meal) UnmarshalJSON(data []byte) error {
	type alias Meal
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, mealKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*m = Meal(a)
	return nil
}
