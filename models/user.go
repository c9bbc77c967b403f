package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles
const (
	RoleUser  = "user"
	RoleChef  = "chef"
	RoleAdmin = "admin"
)

// Account statuses
const (
	StatusActive = "active"
	StatusFraud  = "fraud"
)

type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Image     string             `json:"image" bson:"image"`
	Address   string             `json:"address" bson:"address"`
	Role      string             `json:"role" bson:"role"`
	Status    string             `json:"status" bson:"status"`
	ChefID    *string            `json:"chefId" bson:"chefId"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// IsFraud reports whether the account has been flagged by an admin.
func (u *User) IsFraud() bool {
	return u != nil && u.Status == StatusFraud
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleChef, RoleAdmin:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusFraud
}
