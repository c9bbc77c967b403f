package rolereq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"localchef/db"
	"localchef/models"
	"localchef/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStaleApproval reports that a role was written for an approval that has
// since been re-decided with another role.
var ErrStaleApproval = errors.New("rolereq: approval changed while applying role")

// Decision is an admin's verdict on a request. NewRole only matters when
// Status is approved.
type Decision struct {
	Status  string
	NewRole string
}

func (d Decision) grantsRole() bool {
	return d.Status == models.RequestApproved && d.NewRole != ""
}

type Store interface {
	// Insert returns models.ErrExists when the user already asked for this
	// request type, whatever its status.
	Insert(ctx context.Context, req *models.RoleRequest) (primitive.ObjectID, error)
	// List returns every request, or only those in status when it is set.
	List(ctx context.Context, status string) ([]models.RoleRequest, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.RoleRequest, error)
	Decide(ctx context.Context, req *models.RoleRequest, d Decision) error
	// Unapplied returns approvals whose role change has not reached the user.
	Unapplied(ctx context.Context) ([]models.RoleRequest, error)
	ApplyRole(ctx context.Context, req *models.RoleRequest) error
}

type MongoStore struct {
	mgr *db.Manager
}

func NewMongoStore(mgr *db.Manager) *MongoStore {
	return &MongoStore{mgr: mgr}
}

func (s *MongoStore) Insert(ctx context.Context, req *models.RoleRequest) (primitive.ObjectID, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if err := db.InsertUnique(ctx, cols.RoleRequests, bson.M{"userEmail": req.UserEmail, "requestType": req.RequestType}, req); err != nil {
		if errors.Is(err, models.ErrExists) {
			return primitive.NilObjectID, err
		}
		return primitive.NilObjectID, fmt.Errorf("insert role request: %w", err)
	}
	return req.ID, nil
}

func (s *MongoStore) List(ctx context.Context, status string) ([]models.RoleRequest, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if status != "" {
		filter["requestStatus"] = status
	}
	return db.FindAndDecode[models.RoleRequest](ctx, cols.RoleRequests, filter,
		options.Find().SetSort(bson.D{{Key: "requestTime", Value: -1}}))
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RoleRequest, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindOneAndDecode[models.RoleRequest](ctx, cols.RoleRequests, bson.M{"_id": id})
}

// Decide records the verdict and, for an approval with a role, carries the
// role over to the user. With transactions enabled both sides commit
// together; otherwise the approval is written first with roleApplied false
// so the reconciler can finish it if the user update never happens.
func (s *MongoStore) Decide(ctx context.Context, req *models.RoleRequest, d Decision) error {
	return s.mgr.WithTransaction(ctx, func(ctx context.Context) error {
		cols, err := s.mgr.Collections(ctx)
		if err != nil {
			return err
		}

		set := bson.M{"requestStatus": d.Status, "updatedAt": time.Now().UTC()}
		if d.grantsRole() {
			set["approvedRole"] = d.NewRole
			set["roleApplied"] = false
		}
		res, err := cols.RoleRequests.UpdateOne(ctx, bson.M{"_id": req.ID}, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("update role request: %w", err)
		}
		if res.MatchedCount == 0 {
			return models.ErrNotFound
		}
		if !d.grantsRole() {
			return nil
		}
		// a concurrent decision with another role finishes the user side
		if err := applyRole(ctx, cols, req.ID, req.UserEmail, d.NewRole); err != nil && !errors.Is(err, ErrStaleApproval) {
			return err
		}
		return nil
	})
}

func (s *MongoStore) Unapplied(ctx context.Context) ([]models.RoleRequest, error) {
	cols, err := s.mgr.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return db.FindAndDecode[models.RoleRequest](ctx, cols.RoleRequests, bson.M{
		"requestStatus": models.RequestApproved,
		"approvedRole":  bson.M{"$exists": true, "$ne": ""},
		"roleApplied":   bson.M{"$ne": true},
	})
}

func (s *MongoStore) ApplyRole(ctx context.Context, req *models.RoleRequest) error {
	return s.mgr.WithTransaction(ctx, func(ctx context.Context) error {
		cols, err := s.mgr.Collections(ctx)
		if err != nil {
			return err
		}
		return applyRole(ctx, cols, req.ID, req.UserEmail, req.ApprovedRole)
	})
}

// applyRole is idempotent: the role is a plain $set and a chef id is only
// generated for a user that has none. The request is only marked applied
// while its approvedRole is still role.
func applyRole(ctx context.Context, cols *db.Collections, requestID primitive.ObjectID, email, role string) error {
	if _, err := cols.Users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": role}},
	); err != nil {
		return fmt.Errorf("update user role: %w", err)
	}

	if role == models.RoleChef {
		if _, err := cols.Users.UpdateOne(ctx,
			bson.M{"email": email, "$or": bson.A{bson.M{"chefId": nil}, bson.M{"chefId": ""}}},
			bson.M{"$set": bson.M{"chefId": NewChefID()}},
		); err != nil {
			return fmt.Errorf("assign chef id: %w", err)
		}
	}

	res, err := cols.RoleRequests.UpdateOne(ctx,
		bson.M{"_id": requestID, "approvedRole": role},
		bson.M{"$set": bson.M{"roleApplied": true}},
	)
	if err != nil {
		return fmt.Errorf("mark role applied: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// approvedRole changed after role was read; hand the newer role back to
	// the reconciler so the user ends up with it
	if _, err := cols.RoleRequests.UpdateOne(ctx,
		bson.M{"_id": requestID, "approvedRole": bson.M{"$ne": role}},
		bson.M{"$set": bson.M{"roleApplied": false}},
	); err != nil {
		return fmt.Errorf("reopen role request: %w", err)
	}
	return ErrStaleApproval
}

// NewChefID returns the public id handed to a user when they become a chef.
func NewChefID() string {
	return "chef-" + utils.GetUUID()[:8]
}

var _ Store = (*MongoStore)(nil)
