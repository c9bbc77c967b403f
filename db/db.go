package db

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"localchef/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/singleflight"
)

// Collection names
const (
	UsersCollection        = "users"
	RoleRequestsCollection = "roleRequests"
	MealsCollection        = "meals"
	OrdersCollection       = "orders"
	ReviewsCollection      = "reviews"
	FavoritesCollection    = "favorites"
)

// Collections is the fixed set of handles every store works with.
type Collections struct {
	Users        *mongo.Collection
	RoleRequests *mongo.Collection
	Meals        *mongo.Collection
	Orders       *mongo.Collection
	Reviews      *mongo.Collection
	Favorites    *mongo.Collection

	client *mongo.Client
}

func newCollections(database *mongo.Database) *Collections {
	return &Collections{
		Users:        database.Collection(UsersCollection),
		RoleRequests: database.Collection(RoleRequestsCollection),
		Meals:        database.Collection(MealsCollection),
		Orders:       database.Collection(OrdersCollection),
		Reviews:      database.Collection(ReviewsCollection),
		Favorites:    database.Collection(FavoritesCollection),
		client:       database.Client(),
	}
}

// Manager owns the process-wide MongoDB client. Nothing is dialed until the
// first call to Collections; a successful connection is reused for the rest
// of the process lifetime, a failed one is retried by the next caller.
type Manager struct {
	cfg   config.MongoConfig
	log   logrus.FieldLogger
	cols  atomic.Pointer[Collections]
	group singleflight.Group
}

func NewManager(cfg config.MongoConfig, log logrus.FieldLogger) *Manager {
	return &Manager{cfg: cfg, log: log.WithField("component", "db")}
}

// FromDatabase returns a Manager that is already bound to database.
func FromDatabase(database *mongo.Database, log logrus.FieldLogger) *Manager {
	m := &Manager{log: log.WithField("component", "db")}
	m.cols.Store(newCollections(database))
	return m
}

// Collections returns the collection handles, connecting on first use.
// Concurrent first callers share a single connection attempt. A caller whose
// context ends while the attempt is in flight gets the context error.
func (m *Manager) Collections(ctx context.Context) (*Collections, error) {
	if cols := m.cols.Load(); cols != nil {
		return cols, nil
	}

	ch := m.group.DoChan("connect", func() (any, error) {
		if cols := m.cols.Load(); cols != nil {
			return cols, nil
		}
		cols, err := m.connect()
		if err != nil {
			return nil, err
		}
		m.cols.Store(cols)
		return cols, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("db: connect: %w", res.Err)
		}
		return res.Val.(*Collections), nil
	}
}

func (m *Manager) connect() (*Collections, error) {
	timeout := m.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(m.cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	cols := newCollections(client.Database(m.cfg.Database))
	if err := EnsureIndexes(ctx, cols); err != nil {
		// inserts still look for an existing document first
		m.log.WithError(err).Error("index creation failed")
	}

	m.log.WithField("database", m.cfg.Database).Info("MongoDB connected")
	return cols, nil
}

// WithTransaction runs fn inside a multi-document transaction when the
// deployment is configured for them; otherwise fn runs directly with ctx.
// fn may be invoked more than once when the transaction is retried.
func (m *Manager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	cols, err := m.Collections(ctx)
	if err != nil {
		return err
	}
	if !m.cfg.Transactions {
		return fn(ctx)
	}

	session, err := cols.client.StartSession()
	if err != nil {
		return fmt.Errorf("db: start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// Close disconnects the client if a connection was ever made.
func (m *Manager) Close(ctx context.Context) error {
	cols := m.cols.Load()
	if cols == nil || cols.client == nil {
		return nil
	}
	return cols.client.Disconnect(ctx)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
