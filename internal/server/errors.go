package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	subscriptiondomain "github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ruledomain.ErrInvalidID),
		errors.Is(err, ruledomain.ErrInvalidName),
		errors.Is(err, ruledomain.ErrInvalidMaxAmount),
		errors.Is(err, subscriptiondomain.ErrInvalidID),
		errors.Is(err, subscriptiondomain.ErrMissingTenant),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan),
		errors.Is(err, subscriptiondomain.ErrInvalidPaymentMethod),
		errors.Is(err, subscriptiondomain.ErrInvalidAmount),
		errors.Is(err, subscriptiondomain.ErrUnknownAction),
		errors.Is(err, subscriptiondomain.ErrMissingReason),
		errors.Is(err, subscriptiondomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidSubscriptionID),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, notifdomain.ErrInvalidID),
		errors.Is(err, notifdomain.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ruledomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrNotFound),
		errors.Is(err, notifdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// Conflicts cover the transition edges a retry cannot fix by itself: the
// lifecycle does not permit the action, another request won the race, or an
// idempotency key was reused for a different action.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrInvalidTransition),
		errors.Is(err, subscriptiondomain.ErrConcurrentModification),
		errors.Is(err, subscriptiondomain.ErrIdempotencyConflict):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "reason_required":
		return "a reason is required for this action"
	case "tenant_required":
		return "tenant context is required"
	default:
		return "invalid value"
	}
}
