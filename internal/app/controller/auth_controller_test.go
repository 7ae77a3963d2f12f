package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, *testEnv) {
	env := newTestEnv(t)
	ctrl := NewAuthController(env.authService)

	router := gin.New()
	router.POST("/register", ctrl.Register)
	router.POST("/login", ctrl.Login)
	router.GET("/me", env.authMiddleware.Authenticate(), ctrl.GetMe)
	router.PUT("/me", env.authMiddleware.Authenticate(), ctrl.UpdateMe)

	return router, env
}

func TestAuthController_Register(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := doJSON(t, router, "POST", "/register", "", RegisterRequest{
		Email:    "test@example.com",
		Password: "password123",
		Name:     "Test User",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	response := decodeBody(t, w)
	assert.NotNil(t, response["user"])
	assert.NotNil(t, response["tokens"])
}

func TestAuthController_Register_Invalid(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	tests := []struct {
		name string
		body RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "password123", Name: "X"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", Name: "X"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, "POST", "/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	body := RegisterRequest{Email: "dup@example.com", Password: "password123", Name: "X"}
	w := doJSON(t, router, "POST", "/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "POST", "/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_EMAIL_EXISTS")
}

func TestAuthController_Login(t *testing.T) {
	router, env := setupAuthControllerTest(t)
	env.createUser(t, "login@example.com", model.RoleUser)

	w := doJSON(t, router, "POST", "/login", "", LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.NotNil(t, response["tokens"])

	w = doJSON(t, router, "POST", "/login", "", LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_INVALID_CREDENTIALS")
}

func TestAuthController_GetMe(t *testing.T) {
	router, env := setupAuthControllerTest(t)
	user, token := env.createUser(t, "me@example.com", model.RoleUser)

	w := doJSON(t, router, "GET", "/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	userBody, ok := response["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, user.Email, userBody["email"])

	// Without a token.
	w = doJSON(t, router, "GET", "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_UpdateMe(t *testing.T) {
	router, env := setupAuthControllerTest(t)
	_, token := env.createUser(t, "update@example.com", model.RoleUser)

	w := doJSON(t, router, "PUT", "/me", token, UpdateProfileRequest{Name: "Renamed"})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	userBody, ok := response["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Renamed", userBody["name"])
}
