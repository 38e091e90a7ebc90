package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code/message pair safe to show to the caller.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps store errors to a caller-safe code and message.
// Raw driver messages never leave this function.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	errLower := strings.ToLower(err.Error())

	switch {
	// 23505
	case strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint"):
		if strings.Contains(errLower, "registration_number") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "Registration number is already registered"}
		}
		if strings.Contains(errLower, "email") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "Email is already registered"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Record already exists"}
	// 23503
	case strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{Code: ResourceConflict, Message: "Referenced record is missing or still in use"}
	// 23502
	case strings.Contains(errLower, "violates not-null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	// 23514
	case strings.Contains(errLower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Invalid value"}
	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Code: InternalDatabaseError, Message: defaultMessage(context)}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "verification"):
		return "Verification not found"
	case strings.Contains(contextLower, "driver"):
		return "Driver not found"
	case strings.Contains(contextLower, "vehicle"):
		return "Vehicle not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "Requested record not found"
}

func defaultMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "update") {
		return "Failed to update, please try again later"
	}
	if strings.Contains(contextLower, "export") {
		return "Failed to export, please try again later"
	}
	return "Something went wrong, please try again later"
}

// ParseAndRespond parses err and writes the failure body with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   info.Code,
		Message: info.Message,
	})
}
