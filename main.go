package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"localchef/config"
	"localchef/db"
	"localchef/favorites"
	"localchef/logger"
	"localchef/meals"
	"localchef/orders"
	"localchef/ratelim"
	"localchef/rdx"
	"localchef/reviews"
	"localchef/rolereq"
	"localchef/routes"
	"localchef/users"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// newMealCache returns a Redis cache when REDIS_ADDR is set, otherwise a
// cache that stores nothing. The returned func releases the connection.
func newMealCache(cfg config.RedisConfig, log logrus.FieldLogger) (rdx.Cache, func()) {
	if cfg.Addr == "" {
		log.Info("REDIS_ADDR not set; meal cache disabled")
		return rdx.Noop{}, func() {}
	}

	cache := rdx.NewRedis(cfg.Addr, cfg.Password, cfg.DB)
	cache.OnError = func(op, key string, err error) {
		log.WithError(err).WithFields(logrus.Fields{"op": op, "key": key}).Warn("meal cache call failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		// keep the client; go-redis reconnects on its own
		log.WithError(err).Warn("redis not reachable yet")
	} else {
		log.WithField("addr", cfg.Addr).Info("meal cache on redis")
	}

	return cache, func() {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("redis close failed")
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.Log)
	log.WithField("env", cfg.Env).Info("starting LocalChefBazaar server")

	// no I/O until the first request needs the database
	mgr := db.NewManager(cfg.Mongo, log)

	mealCache, closeCache := newMealCache(cfg.Redis, log)

	userStore := users.NewMongoStore(mgr)
	roleStore := rolereq.NewMongoStore(mgr)

	handlers := routes.Handlers{
		Users:        users.NewHandler(userStore),
		RoleRequests: rolereq.NewHandler(roleStore),
		Meals:        meals.NewHandler(meals.NewMongoStore(mgr), userStore, mealCache, cfg.Redis.MealTTL),
		Orders:       orders.NewHandler(orders.NewMongoStore(mgr), userStore),
		Reviews:      reviews.NewHandler(reviews.NewMongoStore(mgr)),
		Favorites:    favorites.NewHandler(favorites.NewMongoStore(mgr)),
	}

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	router := routes.NewRouter(cfg, log, handlers, rateLimiter.Limit)

	allowAll := slices.Contains(cfg.CORSOrigins, "*")
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !allowAll,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	reconcilerDone := make(chan struct{})
	go func() {
		defer close(reconcilerDone)
		rolereq.NewReconciler(roleStore, cfg.RoleReconcileInterval, log).Run(bgCtx)
	}()

	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received; shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	stopBackground()
	<-reconcilerDone
	rateLimiter.Stop()
	closeCache()
	if err := mgr.Close(ctx); err != nil {
		log.WithError(err).Warn("mongo disconnect failed")
	}

	log.Info("server stopped cleanly")
}
