package orders

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"localchef/logger"
	"localchef/models"
	"localchef/utils"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	store     Store
	customers CustomerLookup
}

func NewHandler(store Store, customers CustomerLookup) *Handler {
	return &Handler{store: store, customers: customers}
}

// POST /orders
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if err := utils.DecodeJSON(r, &order); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	order.UserEmail = utils.Email(order.UserEmail)
	if order.UserEmail == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "userEmail is required")
		return
	}

	customer, err := h.customers.FindByEmail(r.Context(), order.UserEmail)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		utils.RespondWithErr(w, r, err)
		return
	}
	if customer.IsFraud() {
		logger.FromContext(r.Context()).WithField("customer", order.UserEmail).Info("order rejected: customer flagged as fraud")
		utils.RespondWithError(w, http.StatusForbidden, "Fraud users cannot place orders")
		return
	}

	order.ID = primitive.NilObjectID
	order.ChefEmail = utils.Email(order.ChefEmail)
	order.OrderStatus = models.OrderPending
	order.OrderTime = time.Now().UTC()
	order.UpdatedAt = nil

	id, err := h.store.Insert(r.Context(), &order)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.InsertResult{Acknowledged: true, InsertedID: id})
}

// GET /orders/{email}
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ByUser(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

// GET /chef-orders/{email}
func (h *Handler) ByChef(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ByChef(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

// PATCH /orders/{id}
// Any non-empty status is accepted; chefs choose their own workflow.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	var payload struct {
		OrderStatus string `json:"orderStatus"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	status := strings.TrimSpace(payload.OrderStatus)
	if status == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "orderStatus is required")
		return
	}

	matched, err := h.store.SetStatus(r.Context(), id, status)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if matched == 0 {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Order not found"})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// GET /orders/pending/count[?chefEmail=]
func (h *Handler) PendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountPending(r.Context(), utils.Email(r.URL.Query().Get("chefEmail")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"pendingOrders": count})
}
