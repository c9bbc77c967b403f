package models

import (
	"encoding/json"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderPending is the status every order starts in. Chefs move orders on to
// statuses of their own choosing ("accepted", "delivered", "cancelled", ...).
const OrderPending = "pending"

type Order struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserEmail   string             `json:"userEmail" bson:"userEmail"`
	ChefEmail   string             `json:"chefEmail" bson:"chefEmail"`
	OrderStatus string             `json:"orderStatus" bson:"orderStatus"`
	OrderTime   time.Time          `json:"orderTime" bson:"orderTime"`
	UpdatedAt   *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	Extra       Extra              `json:"-" bson:",inline"`
}

var orderKeys = jsonKeys(reflect.TypeOf(Order{}))

func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	base, err := json.Marshal(alias(o))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, o.Extra)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, orderKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*o = Order(a)
	return nil
}
