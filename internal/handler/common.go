package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mateohysa/aiora-reservations/internal/booking"
)

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64.  JWT numeric claims decode as float64, so the
// switch covers the common encodings.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter; zero is treated as invalid.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// writeBookingErr maps admission-engine errors to HTTP responses:
// missing entities are 404, policy and validation rejections are 400,
// capacity and meal-benefit conflicts are 409.  Anything else is a 500.
func writeBookingErr(c echo.Context, err error) error {
	var (
		nfErr   *booking.NotFoundError
		eligErr *booking.EligibilityError
		capErr  *booking.CapacityError
		mealErr *booking.MealBenefitError
		valErr  *booking.ValidationError
	)
	switch {
	case errors.As(err, &nfErr):
		return c.JSON(http.StatusNotFound, echo.Map{"error": nfErr.Error()})
	case errors.As(err, &eligErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": eligErr.Error()})
	case errors.As(err, &valErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": valErr.Error()})
	case errors.As(err, &capErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": capErr.Error()})
	case errors.As(err, &mealErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": mealErr.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
