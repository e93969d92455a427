package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/tikgram/backend/internal/middleware"
	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"github.com/tikgram/backend/internal/services"
	"github.com/tikgram/backend/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// testEnv wires the full route table against in-memory repositories, exactly
// the way the router does against Mongo.
type testEnv struct {
	e             *echo.Echo
	posts         *repositories.MemoryPostRepository
	users         *repositories.MemoryUserRepository
	views         *repositories.MemoryPostViewRepository
	notifications *repositories.MemoryNotificationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		e:             echo.New(),
		posts:         repositories.NewMemoryPostRepository(),
		users:         repositories.NewMemoryUserRepository(),
		views:         repositories.NewMemoryPostViewRepository(),
		notifications: repositories.NewMemoryNotificationRepository(),
	}
	env.e.Validator = validators.NewValidator()

	interactionSvc := services.NewInteractionService(env.posts, env.users, env.views, env.notifications, services.NotifyPolicy{})
	followSvc := services.NewFollowService(env.users, env.notifications)
	notificationSvc := services.NewNotificationService(env.notifications, env.users, env.posts)

	auth := middleware.Auth(testSecret)
	authOptional := middleware.AuthOptional(testSecret)

	api := env.e.Group("/api")
	NewAuthHandler(env.users, testSecret).RegisterAuthRoutes(api.Group("/auth"), auth)
	NewPostHandler(env.posts, env.users, interactionSvc).RegisterPostRoutes(api.Group("/posts"), auth, authOptional)
	NewUserHandler(env.users, env.posts, followSvc).RegisterUserRoutes(api.Group("/users"), auth, authOptional)
	NewNotificationHandler(notificationSvc).RegisterNotificationRoutes(api.Group("/notifications"), auth)
	return env
}

func (env *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, env.users.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) seedPost(t *testing.T, owner primitive.ObjectID) *models.Post {
	t.Helper()
	p := &models.Post{UserID: owner, Caption: "hello"}
	require.NoError(t, env.posts.CreatePost(context.Background(), p))
	return p
}

func (env *testEnv) token(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	claims := &models.AuthClaims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// request performs an HTTP request against the route table and returns the
// recorder. A non-empty token is sent as a bearer credential.
func (env *testEnv) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
