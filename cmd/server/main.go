package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mateohysa/aiora-reservations/internal/booking"
	"github.com/mateohysa/aiora-reservations/internal/config"
	"github.com/mateohysa/aiora-reservations/internal/database"
	"github.com/mateohysa/aiora-reservations/internal/handler"
	"github.com/mateohysa/aiora-reservations/internal/middleware"
	"github.com/mateohysa/aiora-reservations/internal/queue"
	"github.com/mateohysa/aiora-reservations/internal/repository"
	"github.com/mateohysa/aiora-reservations/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the limiter and browse cache become
	// pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	store := repository.NewStore(db)
	engine := booking.NewService(store)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	userH := handler.NewUserHandler(cfg, users)
	restH := handler.NewRestaurantHandler(restaurants)
	resH := handler.NewReservationHandler(engine, restaurants)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAPI(e, router.APIDeps{
		JWTSecret:    cfg.JWTSecret,
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		BrowseCache:  middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		Users:        userH,
		Restaurants:  restH,
		Reservations: resH,
	})

	// background consumer mirrors confirmed/cancelled events into the
	// reservation log; it reconnects on its own
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
