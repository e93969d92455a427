package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupLoginMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/signup", "", `{"username":"alice","email":"alice@example.com","password":"s3cret-pw"}`)
	requireStatus(t, rec, http.StatusCreated)

	// Duplicate email and duplicate username both conflict.
	rec = env.request(t, http.MethodPost, "/api/auth/signup", "", `{"username":"alice2","email":"alice@example.com","password":"s3cret-pw"}`)
	requireStatus(t, rec, http.StatusConflict)
	rec = env.request(t, http.MethodPost, "/api/auth/signup", "", `{"username":"alice","email":"alice2@example.com","password":"s3cret-pw"}`)
	requireStatus(t, rec, http.StatusConflict)

	rec = env.request(t, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"s3cret-pw"}`)
	requireStatus(t, rec, http.StatusOK)
	var login struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeJSON(t, rec, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "alice", login.User.Username)

	rec = env.request(t, http.MethodGet, "/api/auth/me", login.Token, "")
	requireStatus(t, rec, http.StatusOK)
	var me struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	decodeJSON(t, rec, &me)
	assert.Equal(t, "alice", me.Username)
	assert.Empty(t, me.Password, "password hash must never serialize")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/signup", "", `{"username":"alice","email":"alice@example.com","password":"s3cret-pw"}`)
	requireStatus(t, rec, http.StatusCreated)

	// Wrong password and unknown email are indistinguishable.
	rec = env.request(t, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"wrong-pw"}`)
	requireStatus(t, rec, http.StatusUnauthorized)
	rec = env.request(t, http.MethodPost, "/api/auth/login", "", `{"email":"nobody@example.com","password":"s3cret-pw"}`)
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestSignup_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name, body string
	}{
		{"missing email", `{"username":"alice","password":"s3cret-pw"}`},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"s3cret-pw"}`},
		{"short password", `{"username":"alice","email":"alice@example.com","password":"ab"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/auth/signup", "", tc.body)
			requireStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/auth/me", "", "")
	requireStatus(t, rec, http.StatusUnauthorized)

	rec = env.request(t, http.MethodGet, "/api/auth/me", "not.a.token", "")
	requireStatus(t, rec, http.StatusUnauthorized)
}
