package routes

import (
	"fmt"
	"net/http"

	"localchef/config"
	"localchef/favorites"
	"localchef/meals"
	"localchef/middleware"
	"localchef/orders"
	"localchef/reviews"
	"localchef/rolereq"
	"localchef/users"
	"localchef/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Middleware wraps a route handler. Write routes get the rate limiter.
type Middleware func(http.Handler) http.Handler

// Passthrough is a Middleware that does nothing.
func Passthrough(next http.Handler) http.Handler { return next }

// Handlers groups every feature's handler set.
type Handlers struct {
	Users        *users.Handler
	RoleRequests *rolereq.Handler
	Meals        *meals.Handler
	Orders       *orders.Handler
	Reviews      *reviews.Handler
	Favorites    *favorites.Handler
}

// NewRouter builds the full router. limit guards the routes that write.
func NewRouter(cfg config.Config, log logrus.FieldLogger, h Handlers, limit Middleware) *chi.Mux {
	if limit == nil {
		limit = Passthrough
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	AddServiceRoutes(r)
	RoutesWrapper(r, h, limit)
	return r
}

// RoutesWrapper mounts every feature's routes.
func RoutesWrapper(r chi.Router, h Handlers, limit Middleware) {
	AddUserRoutes(r, h.Users, limit)
	AddRoleRequestRoutes(r, h.RoleRequests, limit)
	AddMealRoutes(r, h.Meals, limit)
	AddOrderRoutes(r, h.Orders, limit)
	AddReviewRoutes(r, h.Reviews, limit)
	AddFavoriteRoutes(r, h.Favorites, limit)
}

func AddServiceRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "LocalChefBazaar Server is Running Successfully!")
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
	})
}

func AddUserRoutes(r chi.Router, h *users.Handler, limit Middleware) {
	r.With(limit).Post("/users", h.Register)
	r.Get("/users", h.List)
	r.Get("/users/count", h.Count)
	r.Get("/users/role/{email}", h.GetRole)
	r.Get("/users/{email}", h.GetByEmail)
	r.With(limit).Patch("/users/fraud/{id}", h.MarkFraud)
	r.With(limit).Patch("/users/{id}", h.Update)
}

func AddRoleRequestRoutes(r chi.Router, h *rolereq.Handler, limit Middleware) {
	r.With(limit).Post("/role-request", h.Create)
	r.Get("/role-request", h.List)
	r.With(limit).Patch("/role-request/{id}", h.Decide)
}

func AddMealRoutes(r chi.Router, h *meals.Handler, limit Middleware) {
	r.With(limit).Post("/meals", h.Create)
	r.Get("/meals", h.List)
	r.Get("/meals/chef/{email}", h.ByChef)
	r.Get("/meals/{id}", h.GetByID)
	r.With(limit).Put("/meals/{id}", h.Update)
	r.With(limit).Delete("/meals/{id}", h.Delete)
}

func AddOrderRoutes(r chi.Router, h *orders.Handler, limit Middleware) {
	r.With(limit).Post("/orders", h.Create)
	r.Get("/orders/pending/count", h.PendingCount)
	r.Get("/orders/{email}", h.ByUser)
	r.Get("/chef-orders/{email}", h.ByChef)
	r.With(limit).Patch("/orders/{id}", h.UpdateStatus)
}

func AddReviewRoutes(r chi.Router, h *reviews.Handler, limit Middleware) {
	r.With(limit).Post("/reviews", h.Create)
	r.Get("/reviews", h.List)
	r.Get("/reviews/user/{email}", h.ByReviewer)
	r.Get("/reviews/{id}", h.ByMeal)
	r.With(limit).Put("/reviews/{id}", h.Update)
	r.With(limit).Delete("/reviews/{id}", h.Delete)
}

func AddFavoriteRoutes(r chi.Router, h *favorites.Handler, limit Middleware) {
	r.With(limit).Post("/favorites", h.Create)
	r.Get("/favorites/user/{email}", h.ByUser)
	r.With(limit).Delete("/favorites/{id}", h.Delete)
}
