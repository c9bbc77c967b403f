package users

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"localchef/logger"
	"localchef/models"
	"localchef/utils"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// POST /users
// Registration never trusts a client supplied role or status.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Image string `json:"image"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	body.Email = utils.Email(body.Email)
	if body.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	user := models.User{
		Name:      strings.TrimSpace(body.Name),
		Email:     body.Email,
		Image:     body.Image,
		Role:      models.RoleUser,
		Status:    models.StatusActive,
		ChefID:    nil,
		CreatedAt: time.Now().UTC(),
	}

	id, err := h.store.Insert(r.Context(), &user)
	if errors.Is(err, models.ErrExists) {
		logger.FromContext(r.Context()).WithField("email", user.Email).Info("user already registered")
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "User exists"})
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.InsertResult{Acknowledged: true, InsertedID: id})
}

// GET /users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// GET /users/count
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Count(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"totalUsers": total})
}

// GET /users/{email}
func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByEmail(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if errors.Is(err, models.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

// GET /users/role/{email}
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByEmail(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if errors.Is(err, models.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"role": user.Role})
}

// PATCH /users/fraud/{id}
func (h *Handler) MarkFraud(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	modified, err := h.store.MarkFraud(r.Context(), id)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if modified == 1 {
		logger.FromContext(r.Context()).WithField("user_id", id.Hex()).Info("user flagged as fraud")
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": modified == 1})
}

// PATCH /users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	raw, err := utils.DecodeFields(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	fields, err := allowedUpdate(raw)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	res, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// allowedUpdate checks a partial update against the fields an admin may
// change. Identity fields (email, _id, createdAt) are never writable.
func allowedUpdate(raw map[string]any) (bson.M, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}

	// sorted so the first offending field reported is stable
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := bson.M{}
	for _, name := range names {
		value := raw[name]
		switch name {
		case "name", "image", "address":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", models.ErrInvalidInput, name)
			}
			fields[name] = s
		case "role":
			s, ok := value.(string)
			if !ok || !models.ValidRole(s) {
				return nil, fmt.Errorf("%w: role must be one of user, chef, admin", models.ErrInvalidInput)
			}
			fields[name] = s
		case "status":
			s, ok := value.(string)
			if !ok || !models.ValidStatus(s) {
				return nil, fmt.Errorf("%w: status must be active or fraud", models.ErrInvalidInput)
			}
			fields[name] = s
		case "chefId":
			switch v := value.(type) {
			case nil:
				fields[name] = nil
			case string:
				fields[name] = v
			default:
				return nil, fmt.Errorf("%w: chefId must be a string or null", models.ErrInvalidInput)
			}
		default:
			return nil, fmt.Errorf("%w: field %q cannot be updated", models.ErrInvalidInput, name)
		}
	}
	return fields, nil
}
