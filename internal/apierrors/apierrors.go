package apierrors

import (
	"fmt"
	"net/http"
)

// APIError is a failure that maps directly onto an HTTP response.
// Services return these for expected domain failures; anything else is
// treated as internal.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an APIError with the given HTTP status, machine code and
// human-readable message.
func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// NewErrValidation reports malformed or missing input.
func NewErrValidation(message string) *APIError {
	return New(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// NewErrMissingAuthorizationToken reports an absent bearer token.
func NewErrMissingAuthorizationToken() *APIError {
	return New(http.StatusUnauthorized, "UNAUTHENTICATED", "authorization token is missing")
}

// NewErrInvalidAuthorizationToken reports a token that failed
// verification: bad signature, malformed payload or elapsed expiry.
func NewErrInvalidAuthorizationToken() *APIError {
	return New(http.StatusUnauthorized, "INVALID_TOKEN", "authorization token is invalid or expired")
}

// NewErrInvalidCredentials reports a failed login attempt.
func NewErrInvalidCredentials() *APIError {
	return New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
}

// NewErrAccountDisabled reports that the account behind an otherwise
// valid token has been disabled.
func NewErrAccountDisabled() *APIError {
	return New(http.StatusForbidden, "ACCOUNT_DISABLED", "account is disabled")
}

// NewErrAdminRequired reports a missing admin capability.
func NewErrAdminRequired() *APIError {
	return New(http.StatusForbidden, "ADMIN_REQUIRED", "admin access required")
}

// NewErrAccessDenied reports an ownership violation.
func NewErrAccessDenied() *APIError {
	return New(http.StatusForbidden, "ACCESS_DENIED", "access denied")
}

// NewErrEmailTaken reports a duplicate email at registration.
func NewErrEmailTaken(email string) *APIError {
	return New(http.StatusConflict, "EMAIL_TAKEN", fmt.Sprintf("email %s is already registered", email))
}

// NewErrPhoneTaken reports a duplicate phone number at registration.
func NewErrPhoneTaken(phone string) *APIError {
	return New(http.StatusConflict, "PHONE_TAKEN", fmt.Sprintf("phone number %s is already registered", phone))
}

// NewErrUserNotFound reports a missing account.
func NewErrUserNotFound() *APIError {
	return New(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
}

// NewErrFileNotFound reports a missing or soft-deleted file record.
func NewErrFileNotFound() *APIError {
	return New(http.StatusNotFound, "FILE_NOT_FOUND", "file not found")
}

// NewErrInvalidFileType reports a disallowed MIME classification.
func NewErrInvalidFileType(mimeType string) *APIError {
	return New(http.StatusBadRequest, "INVALID_FILE_TYPE", fmt.Sprintf("file type %s is not allowed", mimeType))
}

// NewErrFileTooLarge reports a payload above the configured maximum.
func NewErrFileTooLarge(maxBytes int64) *APIError {
	return New(http.StatusBadRequest, "FILE_TOO_LARGE", fmt.Sprintf("file exceeds the maximum size of %d bytes", maxBytes))
}

// NewErrEmptyFile reports a zero-size payload.
func NewErrEmptyFile() *APIError {
	return New(http.StatusBadRequest, "EMPTY_FILE", "file must not be empty")
}

// NewErrInvalidRole reports an unknown role value.
func NewErrInvalidRole(role string) *APIError {
	return New(http.StatusBadRequest, "INVALID_ROLE", fmt.Sprintf("invalid role %q", role))
}

// NewErrUploadFailed reports a blob store collaborator failure. No file
// record exists when this is returned.
func NewErrUploadFailed() *APIError {
	return New(http.StatusInternalServerError, "UPLOAD_FAILED", "file upload failed")
}
