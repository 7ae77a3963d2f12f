package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing fallback message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a database error into a code + safe message.
// Sensitive driver details are never surfaced to the caller.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	errStrLower := strings.ToLower(err.Error())

	// GORM base errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// PostgreSQL constraint violations. SQLite (tests) phrases these
	// differently, hence the second set of markers.

	// Unique constraint (23505)
	if strings.Contains(errStrLower, "duplicate key") ||
		strings.Contains(errStrLower, "unique constraint") ||
		strings.Contains(errStrLower, "unique failed") {
		return parseDuplicateKeyError(errStrLower, context)
	}

	// Foreign key constraint (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "The referenced record does not exist or is still in use",
		}
	}

	// Not null constraint (23502)
	if strings.Contains(errStrLower, "not-null constraint") ||
		strings.Contains(errStrLower, "not null constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "A required field is missing",
		}
	}

	// Check constraint (23514)
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "A field value is out of range",
		}
	}

	// Connection problems
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "The service is temporarily unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "An internal error occurred. Please try again later",
	}
}

func parseDuplicateKeyError(errStrLower, context string) ErrorInfo {
	switch {
	case strings.Contains(errStrLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
	case strings.Contains(errStrLower, "sku"):
		return ErrorInfo{Code: VariantSKUExists, Message: "A variant with this SKU already exists"}
	case strings.Contains(errStrLower, "cart"):
		// Race on cart creation or on the (cart, variant) pair; the
		// caller should retry the read.
		return ErrorInfo{Code: CartConflict, Message: "The cart changed concurrently. Please retry"}
	default:
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
	}
}

func notFoundMessage(context string) string {
	switch context {
	case "product":
		return "Product not found"
	case "variant":
		return "Variant not found"
	case "cart_item":
		return "Cart item not found"
	case "order":
		return "Order not found"
	case "user":
		return "User not found"
	default:
		return "Record not found"
	}
}
