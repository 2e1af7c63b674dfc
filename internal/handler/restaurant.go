package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mateohysa/aiora-reservations/internal/model"
	"github.com/mateohysa/aiora-reservations/internal/repository"
)

// RestaurantHandler exposes CRUD endpoints for dining venues.
type RestaurantHandler struct {
	Restaurants *repository.RestaurantRepo
}

func NewRestaurantHandler(r *repository.RestaurantRepo) *RestaurantHandler {
	if r == nil {
		panic("nil repository passed to NewRestaurantHandler")
	}
	return &RestaurantHandler{Restaurants: r}
}

type restaurantReq struct {
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	Location             string  `json:"location"`
	Description          *string `json:"description"`
	DefaultCapacity      int     `json:"default_capacity"`
	MaxCapacity          int     `json:"max_capacity"`
	AcceptsOutsideGuests bool    `json:"accepts_outside_guests"`
	RoomOnly             bool    `json:"room_only"`
}

type restaurantResp struct {
	ID                   uint64    `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	Location             string    `json:"location"`
	Description          *string   `json:"description,omitempty"`
	DefaultCapacity      int       `json:"default_capacity"`
	MaxCapacity          int       `json:"max_capacity"`
	AcceptsOutsideGuests bool      `json:"accepts_outside_guests"`
	RoomOnly             bool      `json:"room_only"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toRestaurantResp(r model.Restaurant) restaurantResp {
	return restaurantResp{
		ID:                   r.ID,
		Name:                 r.Name,
		Type:                 string(r.Type),
		Location:             r.Location,
		Description:          r.Description,
		DefaultCapacity:      r.DefaultCapacity,
		MaxCapacity:          r.MaxCapacity,
		AcceptsOutsideGuests: r.AcceptsOutsideGuests,
		RoomOnly:             r.RoomOnly,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// validate normalizes the request and reports the first problem found.
func (req *restaurantReq) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" {
		return "name is required"
	}
	if !model.RestaurantType(req.Type).Valid() {
		return "invalid restaurant type"
	}
	if req.MaxCapacity < 0 || req.DefaultCapacity < 0 {
		return "capacity must not be negative"
	}
	return ""
}

func (req *restaurantReq) toModel() *model.Restaurant {
	return &model.Restaurant{
		Name:                 req.Name,
		Type:                 model.RestaurantType(req.Type),
		Location:             req.Location,
		Description:          req.Description,
		DefaultCapacity:      req.DefaultCapacity,
		MaxCapacity:          req.MaxCapacity,
		AcceptsOutsideGuests: req.AcceptsOutsideGuests,
		RoomOnly:             req.RoomOnly,
	}
}

// Create handles POST /v1/restaurants.
func (h *RestaurantHandler) Create(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.Create(ctx, req.toModel())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create restaurant failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toRestaurantResp(rest)})
}

// List handles GET /v1/restaurants.
func (h *RestaurantHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rests, err := h.Restaurants.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load restaurants"})
	}
	items := make([]restaurantResp, 0, len(rests))
	for _, r := range rests {
		items = append(items, toRestaurantResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/restaurants/:id.
func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load restaurant"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRestaurantResp(rest)})
}

// ListByMinCapacity handles GET /v1/restaurants/capacity/:minCapacity.
// It returns restaurants whose enforced ceiling can seat at least the
// requested party size, largest first.
func (h *RestaurantHandler) ListByMinCapacity(c echo.Context) error {
	minCapacity, err := strconv.Atoi(c.Param("minCapacity"))
	if err != nil || minCapacity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid minimum capacity"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rests, err := h.Restaurants.ListByMinCapacity(ctx, minCapacity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load restaurants"})
	}
	items := make([]restaurantResp, 0, len(rests))
	for _, r := range rests {
		items = append(items, toRestaurantResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PUT /v1/restaurants/:id.
func (h *RestaurantHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Restaurants.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load restaurant"})
	}
	rest, err := h.Restaurants.Update(ctx, id, req.toModel())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update restaurant failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRestaurantResp(rest)})
}

// Delete handles DELETE /v1/restaurants/:id.
func (h *RestaurantHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Restaurants.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete restaurant failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
