package dto

import "net/http"

// Error code constants organized by category
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
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeInvalidCredentials is used when email or password is wrong
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Billing error codes
const (
	// ErrCodeDuplicateNumber is used when an invoice number was taken
	// between allocation and write
	ErrCodeDuplicateNumber = "ERR_DUPLICATE_NUMBER"
	// ErrCodeSequenceExhausted is used when the monthly numbering sequence
	// has no room left
	ErrCodeSequenceExhausted = "ERR_SEQUENCE_EXHAUSTED"
	// ErrCodeTotalMismatch is used when monetary totals fail the tolerance check
	ErrCodeTotalMismatch = "ERR_TOTAL_MISMATCH"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Export error codes
const (
	// ErrCodeEmptyBatch is used when a bulk export names no invoices
	ErrCodeEmptyBatch = "ERR_EMPTY_BATCH"
	// ErrCodeBatchTooLarge is used when a bulk export exceeds the size cap
	ErrCodeBatchTooLarge = "ERR_BATCH_SIZE"
	// ErrCodeNoValidInvoices is used when no requested invoice belongs to the caller
	ErrCodeNoValidInvoices = "ERR_NO_VALID_INVOICES"
	// ErrCodeRenderFailed is used when the PDF renderer fails
	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
	// ErrCodeRenderTimeout is used when rendering exceeds its deadline
	ErrCodeRenderTimeout = "ERR_RENDER_TIMEOUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// The allocation race is retryable, so it maps to conflict rather
	// than a validation failure.
	ErrCodeDuplicateNumber:   http.StatusConflict,
	ErrCodeSequenceExhausted: http.StatusUnprocessableEntity,
	ErrCodeTotalMismatch:     http.StatusUnprocessableEntity,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,

	ErrCodeEmptyBatch:      http.StatusBadRequest,
	ErrCodeBatchTooLarge:   http.StatusBadRequest,
	ErrCodeNoValidInvoices: http.StatusNotFound,
	ErrCodeRenderFailed:    http.StatusBadGateway,
	ErrCodeRenderTimeout:   http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"EMAIL_TAKEN":            ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_EMAIL":          ErrCodeInvalidInput,
	"WEAK_PASSWORD":          ErrCodeInvalidInput,
	"INVALID_STATUS":         ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"INVALID_CREDENTIALS":    ErrCodeInvalidCredentials,
	"INVALID_TOKEN":          ErrCodeTokenInvalid,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"DUPLICATE_NUMBER":       ErrCodeDuplicateNumber,
	"SEQUENCE_EXHAUSTED":     ErrCodeSequenceExhausted,
	"SUBTOTAL_MISMATCH":      ErrCodeTotalMismatch,
	"TOTAL_MISMATCH":         ErrCodeTotalMismatch,
	"INVALID_INVOICE_NUMBER": ErrCodeInvalidInput,
	"EMPTY_BATCH":            ErrCodeEmptyBatch,
	"BATCH_SIZE":             ErrCodeBatchTooLarge,
	"NO_VALID_INVOICES":      ErrCodeNoValidInvoices,
	"RENDER_FAILED":          ErrCodeRenderFailed,
	"RENDER_TIMEOUT":         ErrCodeRenderTimeout,
	"INVALID_HTML":           ErrCodeRenderFailed,
	"BINARY_NOT_FOUND":       ErrCodeRenderFailed,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
