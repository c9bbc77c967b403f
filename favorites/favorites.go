package favorites

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"localchef/models"
	"localchef/utils"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// POST /favorites
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var fav models.Favorite
	if err := utils.DecodeJSON(r, &fav); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	fav.UserEmail = utils.Email(fav.UserEmail)
	fav.MealID = strings.TrimSpace(fav.MealID)
	if fav.UserEmail == "" || fav.MealID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "userEmail and mealId are required")
		return
	}

	fav.ID = primitive.NilObjectID
	fav.AddedTime = time.Now().UTC()

	_, err := h.store.Insert(r.Context(), &fav)
	if errors.Is(err, models.ErrExists) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"exists": true})
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// GET /favorites/user/{email}
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	favs, err := h.store.ByUser(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, favs)
}

// DELETE /favorites/{id}
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
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": deleted == 1})
}
