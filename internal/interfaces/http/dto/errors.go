package dto

import "net/http"

// Error code constants exposed over the wire
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeQuantityExceedsBalance is used when a delivery item exceeds
	// the line's remaining balance
	ErrCodeQuantityExceedsBalance = "ERR_QUANTITY_EXCEEDS_BALANCE"
	// ErrCodeQuantityExceedsOrdered is used when a return item exceeds
	// the line's net ordered quantity
	ErrCodeQuantityExceedsOrdered = "ERR_QUANTITY_EXCEEDS_ORDERED"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the actor lacks the required privilege
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConcurrencyConflict is used when the optimistic version check fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Collaborator error codes
const (
	// ErrCodeDependency is used when a required collaborator call failed
	ErrCodeDependency = "ERR_DEPENDENCY"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 422 Unprocessable Entity
	ErrCodeValidation:             http.StatusUnprocessableEntity,
	ErrCodeQuantityExceedsBalance: http.StatusUnprocessableEntity,
	ErrCodeQuantityExceedsOrdered: http.StatusUnprocessableEntity,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Collaborator failures -> 502 Bad Gateway
	ErrCodeDependency: http.StatusBadGateway,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the wire format
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ITEM_NOT_FOUND":           ErrCodeNotFound,
	"FORBIDDEN":                ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"DEPENDENCY_FAILED":        ErrCodeDependency,
	"QUANTITY_EXCEEDS_BALANCE": ErrCodeQuantityExceedsBalance,
	"QUANTITY_EXCEEDS_ORDERED": ErrCodeQuantityExceedsOrdered,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"NO_ITEMS":                 ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error code to the wire format.
// Domain INVALID_* codes all map to validation errors; unknown codes are
// returned as-is so new domain codes degrade to a 500 rather than leaking.
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	if len(code) > 8 && code[:8] == "INVALID_" {
		return ErrCodeValidation
	}
	return code
}
