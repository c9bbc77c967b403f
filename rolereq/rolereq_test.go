package rolereq_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"localchef/logger"
	"localchef/models"
	"localchef/rolereq"
	"localchef/routes"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore keeps requests and the user roles they act on in memory.
type fakeStore struct {
	mu       sync.Mutex
	requests []models.RoleRequest
	roles    map[string]string
	chefIDs  map[string]string

	failApply bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{roles: map[string]string{}, chefIDs: map[string]string{}}
}

func (f *fakeStore) Insert(_ context.Context, req *models.RoleRequest) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.requests {
		if existing.UserEmail == req.UserEmail && existing.RequestType == req.RequestType {
			return primitive.NilObjectID, models.ErrExists
		}
	}
	req.ID = primitive.NewObjectID()
	f.requests = append(f.requests, *req)
	return req.ID, nil
}

func (f *fakeStore) List(_ context.Context, status string) ([]models.RoleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RoleRequest{}
	for _, req := range f.requests {
		if status == "" || req.RequestStatus == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.RoleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		if f.requests[i].ID == id {
			req := f.requests[i]
			return &req, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) Decide(_ context.Context, req *models.RoleRequest, d rolereq.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		stored := &f.requests[i]
		if stored.ID != req.ID {
			continue
		}
		stored.RequestStatus = d.Status
		if d.Status == models.RequestApproved && d.NewRole != "" {
			stored.ApprovedRole = d.NewRole
			stored.RoleApplied = false
			if !f.failApply {
				f.apply(stored)
			}
		}
		return nil
	}
	return models.ErrNotFound
}

func (f *fakeStore) Unapplied(context.Context) ([]models.RoleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RoleRequest{}
	for _, req := range f.requests {
		if req.RequestStatus == models.RequestApproved && req.ApprovedRole != "" && !req.RoleApplied {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyRole(_ context.Context, req *models.RoleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		stored := &f.requests[i]
		if stored.ID != req.ID {
			continue
		}
		if stored.ApprovedRole != req.ApprovedRole {
			stored.RoleApplied = false
			return rolereq.ErrStaleApproval
		}
		f.apply(stored)
		return nil
	}
	return models.ErrNotFound
}

func (f *fakeStore) apply(req *models.RoleRequest) {
	f.roles[req.UserEmail] = req.ApprovedRole
	if req.ApprovedRole == models.RoleChef && f.chefIDs[req.UserEmail] == "" {
		f.chefIDs[req.UserEmail] = rolereq.NewChefID()
	}
	req.RoleApplied = true
}

func newServer(store rolereq.Store) http.Handler {
	r := chi.NewRouter()
	routes.AddRoleRequestRoutes(r, rolereq.NewHandler(store), routes.Passthrough)
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

func submit(t *testing.T, h http.Handler, email, kind string) {
	t.Helper()
	rec, out := do(t, h, http.MethodPost, "/role-request", map[string]any{
		"userName": "Cook", "userEmail": email, "requestType": kind,
	})
	if rec.Code != http.StatusOK || out["acknowledged"] != true {
		t.Fatalf("submit %s/%s: %d %v", email, kind, rec.Code, out)
	}
}

func TestCreateStartsPending(t *testing.T) {
	store := newFakeStore()
	srv := newServer(store)
	submit(t, srv, "a@x.com", "chef")

	req := store.requests[0]
	if req.RequestStatus != models.RequestPending || req.RequestTime.IsZero() {
		t.Fatalf("new request not pending: %+v", req)
	}
}

func TestCreateDuplicate(t *testing.T) {
	store := newFakeStore()
	srv := newServer(store)
	submit(t, srv, "a@x.com", "chef")

	_, out := do(t, srv, http.MethodPost, "/role-request", map[string]any{
		"userEmail": "a@x.com", "requestType": "chef",
	})
	if out["message"] != "Request already sent" {
		t.Fatalf("expected duplicate signal, got %v", out)
	}

	// another type is a separate request
	submit(t, srv, "a@x.com", "admin")
	if len(store.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(store.requests))
	}
}

func TestCreateRequiresFields(t *testing.T) {
	srv := newServer(newFakeStore())
	rec, _ := do(t, srv, http.MethodPost, "/role-request", map[string]any{"userEmail": "a@x.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListWithStatusFilter(t *testing.T) {
	store := newFakeStore()
	srv := newServer(store)
	submit(t, srv, "a@x.com", "chef")
	submit(t, srv, "b@x.com", "chef")
	store.requests[1].RequestStatus = models.RequestRejected

	for query, want := range map[string]int{
		"":                 2,
		"?status=pending":  1,
		"?status=rejected": 1,
		"?status=approved": 0,
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/role-request"+query, nil))
		var list []models.RoleRequest
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatalf("%q: decode: %v", query, err)
		}
		if len(list) != want {
			t.Fatalf("%q: expected %d, got %d", query, want, len(list))
		}
	}

	rec, _ := do(t, srv, http.MethodGet, "/role-request?status=done", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter should be 400, got %d", rec.Code)
	}
}

func TestApproveSetsRole(t *testing.T) {
	store := newFakeStore()
	store.roles["a@x.com"] = models.RoleUser
	srv := newServer(store)
	submit(t, srv, "a@x.com", "chef")
	path := "/role-request/" + store.requests[0].ID.Hex()

	rec, out := do(t, srv, http.MethodPatch, path, map[string]any{
		"requestStatus": "approved", "newRole": "chef", "userEmail": "a@x.com",
	})
	if rec.Code != http.StatusOK || out["message"] != "Request updated" {
		t.Fatalf("approve: %d %v", rec.Code, out)
	}
	if store.roles["a@x.com"] != models.RoleChef {
		t.Fatalf("role not applied: %v", store.roles)
	}
	if store.chefIDs["a@x.com"] == "" {
		t.Fatal("chef id not assigned")
	}
}

func TestRejectLeavesUserAlone(t *testing.T) {
	store := newFakeStore()
	store.roles["a@x.com"] = models.RoleUser
	srv := newServer(store)
	submit(t, srv, "a@x.com", "admin")
	path := "/role-request/" + store.requests[0].ID.Hex()

	do(t, srv, http.MethodPatch, path, map[string]any{"requestStatus": "rejected", "newRole": "admin"})

	if store.requests[0].RequestStatus != models.RequestRejected {
		t.Fatalf("status not recorded: %+v", store.requests[0])
	}
	if store.roles["a@x.com"] != models.RoleUser {
		t.Fatalf("rejection changed the user: %v", store.roles)
	}
}

func TestDecideValidation(t *testing.T) {
	store := newFakeStore()
	srv := newServer(store)
	submit(t, srv, "a@x.com", "chef")
	path := "/role-request/" + store.requests[0].ID.Hex()

	cases := []struct {
		name string
		path string
		body map[string]any
		code int
	}{
		{"bad status", path, map[string]any{"requestStatus": "maybe"}, http.StatusBadRequest},
		{"bad role", path, map[string]any{"requestStatus": "approved", "newRole": "owner"}, http.StatusBadRequest},
		{"other user", path, map[string]any{"requestStatus": "approved", "newRole": "chef", "userEmail": "b@x.com"}, http.StatusBadRequest},
		{"malformed id", "/role-request/xyz", map[string]any{"requestStatus": "approved"}, http.StatusBadRequest},
		{"missing", "/role-request/" + primitive.NewObjectID().Hex(), map[string]any{"requestStatus": "approved"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec, _ := do(t, srv, http.MethodPatch, tc.path, tc.body)
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.code, rec.Code)
		}
	}
	if store.requests[0].RequestStatus != models.RequestPending {
		t.Fatalf("rejected decisions must not change the request: %+v", store.requests[0])
	}
}

func TestReconcilerFinishesHalfAppliedApproval(t *testing.T) {
	store := newFakeStore()
	store.failApply = true
	store.roles["a@x.com"] = models.RoleUser
	srv := newServer(store)
	submit(t, srv, "a@x.com", "chef")
	do(t, srv, http.MethodPatch, "/role-request/"+store.requests[0].ID.Hex(),
		map[string]any{"requestStatus": "approved", "newRole": "chef"})

	if store.roles["a@x.com"] != models.RoleUser {
		t.Fatal("setup: role should not be applied yet")
	}

	rc := rolereq.NewReconciler(store, time.Minute, logger.Discard())
	n, err := rc.Sweep(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("sweep: n=%d err=%v", n, err)
	}
	if store.roles["a@x.com"] != models.RoleChef || !store.requests[0].RoleApplied {
		t.Fatalf("role not reconciled: %v %+v", store.roles, store.requests[0])
	}

	// nothing left to do
	if n, _ := rc.Sweep(context.Background()); n != 0 {
		t.Fatalf("second sweep applied %d", n)
	}
}

// staleStore re-decides the request with another role right after the
// reconciler has read its pending approvals.
type staleStore struct {
	*fakeStore
	once sync.Once
}

func (s *staleStore) Unapplied(ctx context.Context) ([]models.RoleRequest, error) {
	pending, err := s.fakeStore.Unapplied(ctx)
	s.once.Do(func() {
		s.mu.Lock()
		s.requests[0].ApprovedRole = models.RoleAdmin
		s.mu.Unlock()
	})
	return pending, err
}

func TestReconcilerSkipsApprovalChangedMidSweep(t *testing.T) {
	base := newFakeStore()
	base.failApply = true
	srv := newServer(base)
	submit(t, srv, "a@x.com", "chef")
	do(t, srv, http.MethodPatch, "/role-request/"+base.requests[0].ID.Hex(),
		map[string]any{"requestStatus": "approved", "newRole": "chef"})

	rc := rolereq.NewReconciler(&staleStore{fakeStore: base}, time.Minute, logger.Discard())
	n, err := rc.Sweep(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("stale sweep: n=%d err=%v", n, err)
	}
	if base.roles["a@x.com"] == models.RoleChef || base.requests[0].RoleApplied {
		t.Fatalf("stale role applied: %v %+v", base.roles, base.requests[0])
	}

	// the next sweep applies the current role
	if n, err := rc.Sweep(context.Background()); err != nil || n != 1 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
	if base.roles["a@x.com"] != models.RoleAdmin || !base.requests[0].RoleApplied {
		t.Fatalf("current role not applied: %v %+v", base.roles, base.requests[0])
	}
}

func TestReconcilerRunStopsWithContext(t *testing.T) {
	rc := rolereq.NewReconciler(newFakeStore(), 5*time.Millisecond, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rc.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
