package rolereq

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"localchef/logger"
	"localchef/models"
	"localchef/utils"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// POST /role-request
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserName    string `json:"userName"`
		UserEmail   string `json:"userEmail"`
		RequestType string `json:"requestType"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	payload.UserEmail = utils.Email(payload.UserEmail)
	payload.RequestType = strings.TrimSpace(payload.RequestType)
	if payload.UserEmail == "" || payload.RequestType == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "userEmail and requestType are required")
		return
	}

	req := models.RoleRequest{
		UserName:      strings.TrimSpace(payload.UserName),
		UserEmail:     payload.UserEmail,
		RequestType:   payload.RequestType,
		RequestStatus: models.RequestPending,
		RequestTime:   time.Now().UTC(),
	}

	id, err := h.store.Insert(r.Context(), &req)
	if errors.Is(err, models.ErrExists) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Request already sent"})
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"email": req.UserEmail,
		"type":  req.RequestType,
	}).Info("role request submitted")
	utils.RespondWithJSON(w, http.StatusOK, models.InsertResult{Acknowledged: true, InsertedID: id})
}

// GET /role-request[?status=]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !models.ValidRequestStatus(status) {
		utils.RespondWithError(w, http.StatusBadRequest, "status must be pending, approved or rejected")
		return
	}

	requests, err := h.store.List(r.Context(), status)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, requests)
}

// PATCH /role-request/{id}
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	var payload struct {
		RequestStatus string `json:"requestStatus"`
		NewRole       string `json:"newRole"`
		UserEmail     string `json:"userEmail"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if !models.ValidRequestStatus(payload.RequestStatus) {
		utils.RespondWithError(w, http.StatusBadRequest, "requestStatus must be pending, approved or rejected")
		return
	}
	if payload.NewRole != "" && !models.ValidRole(payload.NewRole) {
		utils.RespondWithError(w, http.StatusBadRequest, "newRole must be one of user, chef, admin")
		return
	}

	req, err := h.store.FindByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Request not found")
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	// The role always goes to whoever filed the request.
	if email := utils.Email(payload.UserEmail); email != "" && email != req.UserEmail {
		utils.RespondWithError(w, http.StatusBadRequest, "userEmail does not match the request")
		return
	}

	d := Decision{Status: payload.RequestStatus, NewRole: payload.NewRole}
	if err := h.store.Decide(r.Context(), req, d); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Request not found")
			return
		}
		utils.RespondWithErr(w, r, err)
		return
	}

	entry := logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"role_request": id.Hex(),
		"status":       d.Status,
	})
	if d.grantsRole() {
		entry = entry.WithField("new_role", d.NewRole)
	}
	entry.Info("role request decided")

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Request updated"})
}
