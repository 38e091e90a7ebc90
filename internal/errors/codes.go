package errors

// Error codes returned in the "error" field of failure responses.
// Format: CATEGORY_SPECIFIC_DETAIL. The admin UI maps messages from these.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"

	// ==================== AUTHZ_ ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== VERIFICATION_ ====================
	VerificationInvalidStatus     = "VERIFICATION_INVALID_STATUS"
	VerificationReasonRequired    = "VERIFICATION_REASON_REQUIRED"
	VerificationNotFound          = "VERIFICATION_NOT_FOUND"
	VerificationConflict          = "VERIFICATION_CONFLICT"
	VerificationUpdateFailed      = "VERIFICATION_UPDATE_FAILED"
	VerificationInvalidEntityType = "VERIFICATION_INVALID_ENTITY_TYPE"
	VerificationEntityNotFound    = "VERIFICATION_ENTITY_NOT_FOUND"
	VerificationDocumentNotFound  = "VERIFICATION_DOCUMENT_NOT_FOUND"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
