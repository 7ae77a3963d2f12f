package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
)

func setupCartControllerTest(t *testing.T) (*gin.Engine, *testEnv) {
	env := newTestEnv(t)
	ctrl := NewCartController(env.cartService)

	router := gin.New()
	cart := router.Group("/cart", env.authMiddleware.Authenticate())
	{
		cart.GET("", ctrl.GetCart)
		cart.DELETE("", ctrl.ClearCart)
		cart.POST("/items", ctrl.AddItem)
		cart.PATCH("/items/:id", ctrl.UpdateItem)
		cart.DELETE("/items/:id", ctrl.RemoveItem)
	}

	return router, env
}

func TestCartController_GetCart_CreatesLazily(t *testing.T) {
	router, env := setupCartControllerTest(t)
	_, token := env.createUser(t, "cart@example.com", model.RoleUser)

	w := doJSON(t, router, "GET", "/cart", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	cart, ok := response["cart"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, cart["item_count"])
}

func TestCartController_AddItem(t *testing.T) {
	router, env := setupCartControllerTest(t)
	_, token := env.createUser(t, "cart@example.com", model.RoleUser)
	variant := env.createVariant(t, "Classic Tee", "19.99", 10)

	w := doJSON(t, router, "POST", "/cart/items", token, AddCartItemRequest{
		VariantID: variant.ID,
		Quantity:  2,
		Note:      "gift wrap",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Adding the same variant again merges, and reports 200 not 201.
	w = doJSON(t, router, "POST", "/cart/items", token, AddCartItemRequest{
		VariantID: variant.ID,
		Quantity:  3,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	item, ok := response["item"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 5, item["quantity"])
}

func TestCartController_AddItem_Errors(t *testing.T) {
	router, env := setupCartControllerTest(t)
	_, token := env.createUser(t, "cart@example.com", model.RoleUser)
	variant := env.createVariant(t, "Classic Tee", "19.99", 3)

	// Unknown variant.
	w := doJSON(t, router, "POST", "/cart/items", token, AddCartItemRequest{VariantID: 99999, Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "VARIANT_NOT_FOUND")

	// More than in stock.
	w = doJSON(t, router, "POST", "/cart/items", token, AddCartItemRequest{VariantID: variant.ID, Quantity: 4})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "STOCK_INSUFFICIENT")

	// Zero quantity never reaches the service; binding rejects it.
	w = doJSON(t, router, "POST", "/cart/items", token, AddCartItemRequest{VariantID: variant.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No auth.
	w = doJSON(t, router, "POST", "/cart/items", "", AddCartItemRequest{VariantID: variant.ID, Quantity: 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_UpdateItem(t *testing.T) {
	router, env := setupCartControllerTest(t)
	user, token := env.createUser(t, "cart@example.com", model.RoleUser)
	variant := env.createVariant(t, "Classic Tee", "19.99", 10)

	item, _, err := env.cartService.AddItem(user.ID, variant.ID, 2, "")
	require.NoError(t, err)

	qty := 5
	w := doJSON(t, router, "PATCH", fmt.Sprintf("/cart/items/%s", item.ID), token,
		UpdateCartItemRequest{Quantity: &qty})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	updated, ok := response["item"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 5, updated["quantity"])

	// Empty update body.
	w = doJSON(t, router, "PATCH", fmt.Sprintf("/cart/items/%s", item.ID), token, UpdateCartItemRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed id.
	w = doJSON(t, router, "PATCH", "/cart/items/not-a-uuid", token, UpdateCartItemRequest{Quantity: &qty})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_ID")
}

func TestCartController_RemoveItemAndClear(t *testing.T) {
	router, env := setupCartControllerTest(t)
	user, token := env.createUser(t, "cart@example.com", model.RoleUser)
	v1 := env.createVariant(t, "Classic Tee", "19.99", 10)
	v2 := env.createVariant(t, "Trail Runner", "100.00", 10)

	item, _, err := env.cartService.AddItem(user.ID, v1.ID, 1, "")
	require.NoError(t, err)
	_, _, err = env.cartService.AddItem(user.ID, v2.ID, 1, "")
	require.NoError(t, err)

	w := doJSON(t, router, "DELETE", fmt.Sprintf("/cart/items/%s", item.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting it again 404s.
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/cart/items/%s", item.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CART_ITEM_NOT_FOUND")

	w = doJSON(t, router, "DELETE", "/cart", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/cart", token, nil)
	response := decodeBody(t, w)
	cart, ok := response["cart"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, cart["item_count"])
}

func TestCartController_CartView_Subtotal(t *testing.T) {
	router, env := setupCartControllerTest(t)
	user, token := env.createUser(t, "cart@example.com", model.RoleUser)
	variant := env.createVariant(t, "Trail Runner", "100.00", 10)

	_, _, err := env.cartService.AddItem(user.ID, variant.ID, 2, "")
	require.NoError(t, err)

	w := doJSON(t, router, "GET", "/cart", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	cart, ok := response["cart"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, cart["item_count"])
	assert.Equal(t, "200", fmt.Sprint(cart["subtotal"]))
}
