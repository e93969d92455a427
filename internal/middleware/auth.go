package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserIDKey is the echo context key under which the resolved caller identity
// is stored, as a primitive.ObjectID. Absent key means anonymous.
const UserIDKey = "userID"

// resolveBearer extracts and verifies the bearer token, returning the caller
// id it carries.
func resolveBearer(c echo.Context, secret string) (primitive.ObjectID, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return primitive.NilObjectID, fmt.Errorf("missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return primitive.NilObjectID, fmt.Errorf("malformed Authorization header")
	}

	claims := &models.AuthClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, fmt.Errorf("invalid token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid token subject")
	}
	return userID, nil
}

// Auth requires a valid bearer token and stores the caller id in the
// context; missing or invalid credentials are rejected with 401.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := resolveBearer(c, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// AuthOptional resolves the caller identity when a valid bearer token is
// present and continues anonymously otherwise. An invalid token is treated
// the same as no token.
func AuthOptional(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID, err := resolveBearer(c, secret); err == nil {
				c.Set(UserIDKey, userID)
			}
			return next(c)
		}
	}
}
