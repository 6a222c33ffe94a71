package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	dispatchdomain "github.com/smallbiznis/scrapline/internal/dispatch/domain"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	ratingdomain "github.com/smallbiznis/scrapline/internal/rating/domain"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
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
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
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
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, bookingdomain.ErrInvalidBooking),
		errors.Is(err, bookingdomain.ErrInvalidStatus),
		errors.Is(err, bookingdomain.ErrInvalidWeight),
		errors.Is(err, bookingdomain.ErrInvalidSchedule),
		errors.Is(err, bookingdomain.ErrRateUnavailable),
		errors.Is(err, catalogdomain.ErrInvalidCategory),
		errors.Is(err, catalogdomain.ErrInvalidRate),
		errors.Is(err, partnerdomain.ErrInvalidPartner),
		errors.Is(err, partnerdomain.ErrInvalidName),
		errors.Is(err, partnerdomain.ErrInvalidPhone),
		errors.Is(err, addressdomain.ErrInvalidAddress),
		errors.Is(err, settlementdomain.ErrInvalidMethod),
		errors.Is(err, settlementdomain.ErrInvalidWeight),
		errors.Is(err, ratingdomain.ErrInvalidStars),
		errors.Is(err, notificationdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, auditdomain.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, bookingdomain.ErrNotAuthorized),
		errors.Is(err, dispatchdomain.ErrNotAuthorized),
		errors.Is(err, settlementdomain.ErrNotAuthorized),
		errors.Is(err, ratingdomain.ErrNotAuthorized),
		errors.Is(err, addressdomain.ErrNotAuthorized),
		errors.Is(err, notificationdomain.ErrNotAuthorized):
		return true
	default:
		return false
	}
}

// Conflicts are legal requests that the booking's current state refuses.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, bookingdomain.ErrInvalidTransition),
		errors.Is(err, bookingdomain.ErrTerminalState),
		errors.Is(err, bookingdomain.ErrNotEditable),
		errors.Is(err, bookingdomain.ErrEmptyItems),
		errors.Is(err, dispatchdomain.ErrAlreadyAssigned),
		errors.Is(err, dispatchdomain.ErrNotAssignable),
		errors.Is(err, settlementdomain.ErrAlreadySettled),
		errors.Is(err, settlementdomain.ErrNotSettleable),
		errors.Is(err, ratingdomain.ErrAlreadyRated),
		errors.Is(err, ratingdomain.ErrNotRatable):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	if err == nil {
		return "conflict"
	}
	return err.Error()
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, bookingdomain.ErrBookingNotFound),
		errors.Is(err, catalogdomain.ErrCategoryNotFound),
		errors.Is(err, catalogdomain.ErrRateNotFound),
		errors.Is(err, partnerdomain.ErrPartnerNotFound),
		errors.Is(err, addressdomain.ErrAddressNotFound),
		errors.Is(err, settlementdomain.ErrItemNotFound),
		errors.Is(err, settlementdomain.ErrPaymentNotFound),
		errors.Is(err, ratingdomain.ErrRatingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
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
	default:
		return "invalid value"
	}
}

// classifyErrorForLog feeds the request logger a stable type/code pair so
// expected rejections log at warn instead of error.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal_error", payload.Type
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if err != nil && payload.Type == "conflict" {
		return payload.Type, err.Error()
	}
	return payload.Type, payload.Type
}
