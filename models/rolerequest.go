package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request statuses
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// RoleRequest is a user's application to become a chef or an admin.
//
// ApprovedRole and RoleApplied track the user-side effect of an approval:
// ApprovedRole is written together with the approval, RoleApplied once the
// user document carries the new role. A request left approved with
// RoleApplied false is picked up by the reconciler.
type RoleRequest struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserName      string             `json:"userName" bson:"userName"`
	UserEmail     string             `json:"userEmail" bson:"userEmail"`
	RequestType   string             `json:"requestType" bson:"requestType"`
	RequestStatus string             `json:"requestStatus" bson:"requestStatus"`
	RequestTime   time.Time          `json:"requestTime" bson:"requestTime"`
	ApprovedRole  string             `json:"approvedRole,omitempty" bson:"approvedRole,omitempty"`
	RoleApplied   bool               `json:"roleApplied,omitempty" bson:"roleApplied,omitempty"`
	UpdatedAt     *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

func ValidRequestStatus(status string) bool {
	switch status {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}
