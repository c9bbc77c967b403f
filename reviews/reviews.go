package reviews

import (
	"net/http"
	"time"

	"localchef/models"
	"localchef/utils"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func validRating(rating float64) bool {
	return rating >= 1 && rating <= 5
}

// POST /reviews
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var review models.Review
	if err := utils.DecodeJSON(r, &review); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if review.Rating != 0 && !validRating(float64(review.Rating)) {
		utils.RespondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	review.ID = primitive.NilObjectID
	review.ReviewerEmail = utils.Email(review.ReviewerEmail)
	review.Date = time.Now().UTC()
	review.UpdatedAt = nil

	if _, err := h.store.Insert(r.Context(), &review); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// GET /reviews
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.All(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

// GET /reviews/{id}
// The id here is the meal's; the route shares its shape with PUT and DELETE.
func (h *Handler) ByMeal(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ByMeal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

// GET /reviews/user/{email}
func (h *Handler) ByReviewer(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ByReviewer(r.Context(), utils.Email(chi.URLParam(r, "email")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

// PUT /reviews/{id}
// Only rating and comment are editable.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ObjectIDParam(r, "id")
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	var payload struct {
		Rating  *float64 `json:"rating"`
		Comment *string  `json:"comment"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if payload.Rating == nil && payload.Comment == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "rating or comment is required")
		return
	}

	fields := bson.M{"updatedAt": time.Now().UTC()}
	if payload.Rating != nil {
		if !validRating(*payload.Rating) {
			utils.RespondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
			return
		}
		fields["rating"] = *payload.Rating
	}
	if payload.Comment != nil {
		fields["comment"] = *payload.Comment
	}

	modified, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": modified == 1})
}

// DELETE /reviews/{id}
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
