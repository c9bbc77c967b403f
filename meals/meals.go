package meals

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"localchef/logger"
	"localchef/models"
	"localchef/rdx"
	"localchef/utils"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	store Store
	chefs ChefLookup
	cache rdx.Cache
	ttl   time.Duration
}

// NewHandler wires the meal routes. A nil cache disables caching.
func NewHandler(store Store, chefs ChefLookup, cache rdx.Cache, ttl time.Duration) *Handler {
	if cache == nil {
		cache = rdx.Noop{}
	}
	return &Handler{store: store, chefs: chefs, cache: cache, ttl: ttl}
}

func cacheKey(id primitive.ObjectID) string {
	return "meal:" + id.Hex()
}

// POST /meals
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var meal models.Meal
	if err := utils.DecodeJSON(r, &meal); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	meal.ChefEmail = utils.Email(meal.ChefEmail)
	if meal.ChefEmail == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "chefEmail is required")
		return
	}
	if meal.Price < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid price value. Must be a non-negative number.")
		return
	}

	chef, err := h.chefs.FindByEmail(r.Context(), meal.ChefEmail)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		utils.RespondWithErr(w, r, err)
		return
	}
	if chef.IsFraud() {
		logger.FromContext(r.Context()).WithField("chef", meal.ChefEmail).Info("meal rejected: chef flagged as fraud")
		utils.RespondWithError(w, http.StatusForbidden, "Fraud chefs cannot create meals")
		return
	}

	meal.ID = primitive.NilObjectID
	meal.CreatedAt = time.Now().UTC()
	meal.UpdatedAt = nil

	id, err := h.store.Insert(r.Context(), &meal)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.InsertResult{Acknowledged: true, InsertedID: id})
}

// GET /meals?sort=asc|desc&limit=N
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	meals, err := h.store.List(r.Context(), ParseQuery(r.URL.Query()))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meals)
}

// GET /meals/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	key := cacheKey(id)
	if cached, ok := h.cache.Get(r.Context(), key); ok {
		utils.RespondWithRawJSON(w, http.StatusOK, cached)
		return
	}

	meal, err := h.store.FindByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Meal not found")
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	body, err := json.Marshal(meal)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	h.cache.Set(r.Context(), key, body, h.ttl)
	utils.RespondWithRawJSON(w, http.StatusOK, body)
}

// GET /meals/chef/{email}
func (h *Handler) ByChef(w http.ResponseWriter, r *http.Request) {
	meals, err := h.store.ByChef(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meals)
}

// PUT /meals/{id}
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

	fields := bson.M{}
	for name, value := range raw {
		switch name {
		case "_id", "createdAt", "updatedAt":
			continue
		case "price":
			price, ok := value.(float64)
			if !ok || price < 0 {
				utils.RespondWithError(w, http.StatusBadRequest, "Invalid price value. Must be a non-negative number.")
				return
			}
		}
		fields[name] = value
	}
	fields["updatedAt"] = time.Now().UTC()

	modified, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	h.cache.Delete(r.Context(), cacheKey(id))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": modified == 1})
}

// DELETE /meals/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	h.cache.Delete(r.Context(), cacheKey(id))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": deleted == 1})
}
