package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeMissingFields       = "MISSING_FIELDS"
	CodeInvalidEmailFormat  = "INVALID_EMAIL_FORMAT"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAuthenticationError = "AUTHENTICATION_ERROR"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeRateLimited         = "RATE_LIMITED"

	// Bearer token failures
	CodeMissingAuth       = "MISSING_AUTH"
	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeTokenExpired      = "TOKEN_EXPIRED"
)
