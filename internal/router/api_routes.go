package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mateohysa/aiora-reservations/internal/handler"
	"github.com/mateohysa/aiora-reservations/internal/middleware"
)

// APIDeps bundles everything the protected API group needs: the
// handlers plus the cross-cutting middleware built in main.
type APIDeps struct {
	JWTSecret    string
	RateLimit    echo.MiddlewareFunc // nil when rate limiting is disabled
	BrowseCache  echo.MiddlewareFunc // nil when response caching is disabled
	Users        *handler.UserHandler
	Restaurants  *handler.RestaurantHandler
	Reservations *handler.ReservationHandler
}

// RegisterAPI registers the protected admission-control API under /v1.
// Every route requires a valid access token; the rate limiter covers
// the whole group, while the response cache only wraps read-mostly
// browse endpoints so admissions are never served stale.
func RegisterAPI(e *echo.Echo, d APIDeps) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(d.JWTSecret))
	if d.RateLimit != nil {
		v1.Use(d.RateLimit)
	}

	cached := func(h echo.HandlerFunc) echo.HandlerFunc {
		if d.BrowseCache == nil {
			return h
		}
		return d.BrowseCache(h)
	}

	// users
	v1.GET("/users", d.Users.List)
	v1.GET("/users/:id", d.Users.Get)
	v1.PUT("/users/:id", d.Users.Update)
	v1.DELETE("/users/:id", d.Users.Delete)

	// restaurants
	v1.POST("/restaurants", d.Restaurants.Create)
	v1.GET("/restaurants", cached(d.Restaurants.List))
	v1.GET("/restaurants/:id", cached(d.Restaurants.Get))
	v1.GET("/restaurants/capacity/:minCapacity", cached(d.Restaurants.ListByMinCapacity))
	v1.PUT("/restaurants/:id", d.Restaurants.Update)
	v1.DELETE("/restaurants/:id", d.Restaurants.Delete)

	// reservations
	v1.POST("/reservations", d.Reservations.Create)
	v1.GET("/reservations", d.Reservations.List)
	v1.GET("/reservations/date-range", d.Reservations.ListByDateRange)
	v1.GET("/reservations/search", d.Reservations.Search)
	v1.GET("/reservations/room/:roomNumber", d.Reservations.ListByRoom)
	v1.GET("/reservations/:id", d.Reservations.Get)
	v1.PUT("/reservations/:id", d.Reservations.Update)
	v1.DELETE("/reservations/:id", d.Reservations.Delete)

	// per-restaurant reservation views
	v1.POST("/restaurants/:id/reservations", d.Reservations.CreateForRestaurant)
	v1.GET("/restaurants/:id/reservations", d.Reservations.ListByRestaurant)
	v1.GET("/restaurants/:id/reservations/recent", d.Reservations.ListRecent)
	v1.GET("/restaurants/:id/reservations/stats", d.Reservations.Stats)
	v1.GET("/restaurants/:id/reservations/count", d.Reservations.Count)

	// meal-benefit lookup for front-desk tooling
	v1.GET("/rooms/:roomNumber/meal-deducted", d.Reservations.MealDeducted)
}
