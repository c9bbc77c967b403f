package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// InsertResult mirrors the driver's insert acknowledgement on the wire.
type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}
