package errors

// Error code constants returned to the frontend.
// Format: CATEGORY_SPECIFIC_DETAIL. The frontend maps these codes to
// user-facing messages; the backend message is a fallback.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput    = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID       = "VALIDATION_INVALID_ID"
	ValidationInvalidQuantity = "VALIDATION_INVALID_QUANTITY"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (PRODUCT_/VARIANT_) ====================
	ProductNotFound  = "PRODUCT_NOT_FOUND"
	VariantNotFound  = "VARIANT_NOT_FOUND"
	VariantInactive  = "VARIANT_INACTIVE"
	VariantSKUExists = "VARIANT_SKU_EXISTS"

	// ==================== Stock (STOCK_) ====================
	StockInsufficient = "STOCK_INSUFFICIENT"

	// ==================== Cart (CART_) ====================
	CartItemNotFound = "CART_ITEM_NOT_FOUND"
	CartConflict     = "CART_CONFLICT"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderEmptyCart         = "ORDER_EMPTY_CART"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderNotCancellable    = "ORDER_NOT_CANCELLABLE"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
)
