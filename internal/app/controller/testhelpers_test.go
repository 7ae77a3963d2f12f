package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"github.com/velocommerce/velo-backend/internal/app/service"
	"github.com/velocommerce/velo-backend/internal/db"
	"github.com/velocommerce/velo-backend/internal/middleware"
	"github.com/velocommerce/velo-backend/pkg/util"
	"gorm.io/gorm"
)

const controllerTestSecret = "test-secret"

// testEnv wires the full service stack against an in-memory database.
type testEnv struct {
	db             *gorm.DB
	authService    service.AuthService
	productService service.ProductService
	cartService    service.CartService
	orderService   service.OrderService
	authMiddleware *middleware.AuthMiddleware
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	variantRepo := repository.NewVariantRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	inventory := service.NewInventoryService(variantRepo, testDB)
	pricing := service.NewPricingPolicy(service.DefaultTaxRate)

	return &testEnv{
		db:             testDB,
		authService:    service.NewAuthService(userRepo, controllerTestSecret, 15*time.Minute, 7*24*time.Hour),
		productService: service.NewProductService(productRepo, variantRepo, inventory, testDB),
		cartService:    service.NewCartService(cartRepo, inventory, testDB),
		orderService:   service.NewOrderService(orderRepo, cartRepo, inventory, pricing, testDB),
		authMiddleware: middleware.NewAuthMiddleware(controllerTestSecret),
	}
}

func (env *testEnv) createUser(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	t.Helper()

	hash, err := util.HashPassword("password123")
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: hash, Name: "Test User", Role: role}
	require.NoError(t, env.db.Create(user).Error)

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role),
		controllerTestSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (env *testEnv) createVariant(t *testing.T, name string, price string, stock int) *model.ProductVariant {
	t.Helper()

	product := &model.Product{
		Name:     name,
		IsActive: true,
		Variants: []model.ProductVariant{
			{Price: decimal.RequireFromString(price), StockQuantity: stock, IsActive: true},
		},
	}
	require.NoError(t, env.db.Create(product).Error)
	return &product.Variants[0]
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
