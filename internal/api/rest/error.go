package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest        ErrorCode = "bad_request"
	errCodeNotFound          ErrorCode = "not_found"
	errCodeValidationFailed  ErrorCode = "validation_failed"
	errCodeForbidden         ErrorCode = "forbidden"
	errCodeStateConflict     ErrorCode = "state_conflict"
	errCodeInsufficientFunds ErrorCode = "insufficient_funds"

	// Server errors (5xx)
	errCodeArithmeticError ErrorCode = "arithmetic_error"
	errCodeInternalError   ErrorCode = "internal_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message, details...)
}

// respondForbidden sends a 403 Forbidden response
func respondForbidden(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusForbidden, errCodeForbidden, message, details...)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses:
// validation 422, authorization 403, state conflicts 409, insufficient
// funds 402, arithmetic overflow 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondWithError(c, http.StatusUnprocessableEntity, errCodeValidationFailed, "Validation failed", err.Error())
	case errors.Is(err, domain.ErrAuthorization):
		respondWithError(c, http.StatusForbidden, errCodeForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrState):
		respondWithError(c, http.StatusConflict, errCodeStateConflict, "Operation conflicts with current state", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		respondWithError(c, http.StatusPaymentRequired, errCodeInsufficientFunds, "Insufficient funds", err.Error())
	case errors.Is(err, domain.ErrArithmetic):
		logger.Error(err)
		respondWithError(c, http.StatusInternalServerError, errCodeArithmeticError, "Arithmetic overflow")
	default:
		respondInternalError(c, err, "Internal server error")
	}
}
