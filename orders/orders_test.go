package orders_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"localchef/models"
	"localchef/orders"
	"localchef/routes"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStore struct {
	mu     sync.Mutex
	orders []models.Order
}

func (f *fakeStore) Insert(_ context.Context, order *models.Order) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = primitive.NewObjectID()
	f.orders = append(f.orders, *order)
	return order.ID, nil
}

func (f *fakeStore) filter(match func(models.Order) bool) []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	return out
}

func (f *fakeStore) ByUser(_ context.Context, email string) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool { return o.UserEmail == email }), nil
}

func (f *fakeStore) ByChef(_ context.Context, email string) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool { return o.ChefEmail == email }), nil
}

func (f *fakeStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].OrderStatus = status
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) CountPending(_ context.Context, chefEmail string) (int64, error) {
	n := len(f.filter(func(o models.Order) bool {
		return o.OrderStatus == models.OrderPending && (chefEmail == "" || o.ChefEmail == chefEmail)
	}))
	return int64(n), nil
}

type fakeCustomers map[string]models.User

func (c fakeCustomers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := c[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

var customers = fakeCustomers{
	"eater@x.com": {Email: "eater@x.com", Status: models.StatusActive},
	"fraud@x.com": {Email: "fraud@x.com", Status: models.StatusFraud},
}

func newServer(store orders.Store) http.Handler {
	r := chi.NewRouter()
	routes.AddOrderRoutes(r, orders.NewHandler(store, customers), routes.Passthrough)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func list(t *testing.T, h http.Handler, path string) []models.Order {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var out []models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return out
}

func TestCreateForcesPending(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store)

	rec, out := do(t, srv, http.MethodPost, "/orders", map[string]any{
		"userEmail":   "eater@x.com",
		"chefEmail":   "cook@x.com",
		"mealName":    "Biryani",
		"quantity":    2,
		"orderStatus": "delivered",
	})
	if rec.Code != http.StatusOK || out["acknowledged"] != true {
		t.Fatalf("create: %d %v", rec.Code, out)
	}

	o := store.orders[0]
	if o.OrderStatus != models.OrderPending || o.OrderTime.IsZero() {
		t.Fatalf("order not pending: %+v", o)
	}
	if o.Extra["mealName"] != "Biryani" || o.Extra["quantity"] != float64(2) {
		t.Fatalf("extra fields lost: %+v", o.Extra)
	}
}

func TestCreateFraudCustomer(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store)

	rec, out := do(t, srv, http.MethodPost, "/orders", map[string]any{"userEmail": "fraud@x.com", "chefEmail": "cook@x.com"})
	if rec.Code != http.StatusForbidden || out["message"] != "Fraud users cannot place orders" {
		t.Fatalf("expected 403, got %d %v", rec.Code, out)
	}
	if len(store.orders) != 0 {
		t.Fatal("fraud order was stored")
	}
}

func TestCreateUnknownCustomerAllowed(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store)

	if rec, _ := do(t, srv, http.MethodPost, "/orders", map[string]any{"userEmail": "new@x.com"}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec, _ := do(t, srv, http.MethodPost, "/orders", map[string]any{"chefEmail": "cook@x.com"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing userEmail should be 400, got %d", rec.Code)
	}
}

func TestListsAndPendingCount(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store)
	do(t, srv, http.MethodPost, "/orders", map[string]any{"userEmail": "eater@x.com", "chefEmail": "a@x.com"})
	do(t, srv, http.MethodPost, "/orders", map[string]any{"userEmail": "eater@x.com", "chefEmail": "b@x.com"})
	do(t, srv, http.MethodPost, "/orders", map[string]any{"userEmail": "other@x.com", "chefEmail": "a@x.com"})

	if got := list(t, srv, "/orders/eater@x.com"); len(got) != 2 {
		t.Fatalf("customer orders: %d", len(got))
	}
	if got := list(t, srv, "/chef-orders/a@x.com"); len(got) != 2 {
		t.Fatalf("chef orders: %d", len(got))
	}

	do(t, srv, http.MethodPatch, "/orders/"+store.orders[0].ID.Hex(), map[string]any{"orderStatus": "accepted"})

	_, out := do(t, srv, http.MethodGet, "/orders/pending/count", nil)
	if out["pendingOrders"] != float64(2) {
		t.Fatalf("pending count: %v", out)
	}
	_, out = do(t, srv, http.MethodGet, "/orders/pending/count?chefEmail=a@x.com", nil)
	if out["pendingOrders"] != float64(1) {
		t.Fatalf("pending count for chef: %v", out)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store)
	do(t, srv, http.MethodPost, "/orders", map[string]any{"userEmail": "eater@x.com"})
	path := "/orders/" + store.orders[0].ID.Hex()

	rec, out := do(t, srv, http.MethodPatch, path, map[string]any{"orderStatus": "cooking"})
	if rec.Code != http.StatusOK || out["success"] != true || store.orders[0].OrderStatus != "cooking" {
		t.Fatalf("update: %d %v %+v", rec.Code, out, store.orders[0])
	}

	if rec, _ := do(t, srv, http.MethodPatch, path, map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing status should be 400, got %d", rec.Code)
	}
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store)

	rec, out := do(t, srv, http.MethodPatch, "/orders/"+primitive.NewObjectID().Hex(), map[string]any{"orderStatus": "accepted"})
	if rec.Code != http.StatusNotFound || out["success"] != false || out["message"] != "Order not found" {
		t.Fatalf("expected 404, got %d %v", rec.Code, out)
	}
	if len(store.orders) != 0 {
		t.Fatal("status update created an order")
	}

	if rec, _ := do(t, srv, http.MethodPatch, "/orders/123", map[string]any{"orderStatus": "accepted"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id should be 400, got %d", rec.Code)
	}
}
