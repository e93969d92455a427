package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tikgram/backend/internal/middleware"
	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID returns the caller identity resolved by the auth middleware.
// ok is false for anonymous requests.
func currentUserID(c echo.Context) (primitive.ObjectID, bool) {
	id, ok := c.Get(middleware.UserIDKey).(primitive.ObjectID)
	return id, ok
}

// httpError translates service-layer errors into HTTP responses using the
// shared taxonomy. Unknown errors become a 500.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, models.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Temporarily unavailable, please retry")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
