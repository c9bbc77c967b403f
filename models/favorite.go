package models

import (
	"encoding/json"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Favorite struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserEmail string             `json:"userEmail" bson:"userEmail"`
	MealID    string             `json:"mealId" bson:"mealId"`
	AddedTime time.Time          `json:"addedTime" bson:"addedTime"`
	Extra     Extra              `json:"-" bson:",inline"`
}

var favoriteKeys = jsonKeys(reflect.TypeOf(Favorite{}))

func (f Favorite) MarshalJSON() ([]byte, error) {
	type alias Favorite
	base, err := json.Marshal(alias(f))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, f.Extra)
}

func (f *Favorite) UnmarshalJSON(data []byte) error {
	type alias Favorite
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, favoriteKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*f = Favorite(a)
	return nil
}
