package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"github.com/velocommerce/velo-backend/internal/app/service"
	"github.com/velocommerce/velo-backend/internal/errors"
	"github.com/velocommerce/velo-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    *bool  `json:"is_active"`
}

type AttributeRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

type VariantRequest struct {
	SKU        *string            `json:"sku"`
	Price      decimal.Decimal    `json:"price" binding:"required"`
	Stock      int                `json:"stock_quantity"`
	IsActive   *bool              `json:"is_active"`
	Attributes []AttributeRequest `json:"attributes"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (r *VariantRequest) toInput() service.VariantInput {
	input := service.VariantInput{
		SKU:      r.SKU,
		Price:    r.Price,
		Stock:    r.Stock,
		IsActive: true,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	if r.Attributes != nil {
		input.Attributes = make([]model.VariantAttribute, 0, len(r.Attributes))
		for _, attr := range r.Attributes {
			input.Attributes = append(input.Attributes, model.VariantAttribute{
				Key:   attr.Key,
				Value: attr.Value,
			})
		}
	}
	return input
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid id")
		return 0, false
	}
	return uint(value), true
}

// isAdmin reports whether the request carries an authenticated admin.
func isAdmin(c *gin.Context) bool {
	role, ok := middleware.GetUserRole(c)
	return ok && role == model.RoleAdmin
}

// GetAllProducts lists products; inactive ones are visible to admins only
// GET /api/v1/products
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.ProductFilter{
		Search:          c.Query("search"),
		IncludeInactive: isAdmin(c) && c.Query("include_inactive") == "true",
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	products, err := ctrl.productService.ListProducts(filter)
	if err != nil {
		log.Error("Failed to list products", err, nil)
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProductByID returns one product with variants and attributes
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(id, isAdmin(c))
	if err != nil {
		if stderrors.Is(err, service.ErrProductNotFound) {
			errors.NotFound(c, errors.ProductNotFound, "Product not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct creates a product
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := ctrl.productService.CreateProduct(product); err != nil {
		log.Error("Failed to create product", err, map[string]interface{}{
			"name": req.Name,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct edits a product
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	product, err := ctrl.productService.GetProduct(id, true)
	if err != nil {
		if stderrors.Is(err, service.ErrProductNotFound) {
			errors.NotFound(c, errors.ProductNotFound, "Product not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.ImageURL = req.ImageURL
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := ctrl.productService.UpdateProduct(product); err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct deactivates a product (variants referenced by orders
// survive)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeactivateProduct(id); err != nil {
		if stderrors.Is(err, service.ErrProductNotFound) {
			errors.NotFound(c, errors.ProductNotFound, "Product not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

// CreateVariant adds a variant to a product
// POST /api/v1/products/:id/variants
func (ctrl *ProductController) CreateVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	variant, err := ctrl.productService.CreateVariant(productID, req.toInput())
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrProductNotFound):
			errors.NotFound(c, errors.ProductNotFound, "Product not found")
		case stderrors.Is(err, service.ErrInvalidPrice), stderrors.Is(err, service.ErrInvalidStock):
			errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		default:
			info := errors.ParseError(err, "variant")
			if info.Code == errors.VariantSKUExists {
				errors.Conflict(c, info.Code, info.Message)
				return
			}
			log.Error("Failed to create variant", err, map[string]interface{}{
				"product_id": productID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"variant": variant})
}

// UpdateVariant edits a variant; attributes, when present, are replaced
// PUT /api/v1/variants/:id
func (ctrl *ProductController) UpdateVariant(c *gin.Context) {
	variantID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	variant, err := ctrl.productService.UpdateVariant(variantID, req.toInput())
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrVariantNotFound):
			errors.NotFound(c, errors.VariantNotFound, "Variant not found")
		case stderrors.Is(err, service.ErrInvalidPrice):
			errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		default:
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"variant": variant})
}

// AdjustStock applies a signed stock delta
// POST /api/v1/variants/:id/stock
func (ctrl *ProductController) AdjustStock(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	variantID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	variant, err := ctrl.productService.AdjustStock(variantID, req.Delta)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrVariantNotFound):
			errors.NotFound(c, errors.VariantNotFound, "Variant not found")
		case stderrors.Is(err, service.ErrInsufficientStock):
			errors.UnprocessableEntity(c, errors.StockInsufficient, "Not enough stock to remove")
		default:
			log.Error("Failed to adjust stock", err, map[string]interface{}{
				"variant_id": variantID,
				"delta":      req.Delta,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"variant": variant})
}
