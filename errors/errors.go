package errors

import (
	"fmt"
	"net/http"
)

// Class identifies the aggregate failure category a caller should branch on.
type Class string

const (
	ClassValidation        Class = "ValidationError"
	ClassAcquisitionFailed Class = "AcquisitionFailed"
	ClassTrimFailed        Class = "TrimFailed"
	ClassMergeFailed       Class = "MergeFailed"
	ClassPublishFailed     Class = "PublishFailed"
	ClassResource          Class = "ResourceError"
	ClassNotFound          Class = "NotFound"
	ClassUnexpected        Class = "UnexpectedError"
)

type AppError struct {
	Code    int    `json:"-"`
	Class   Class  `json:"errorClass"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Suggestion returns a human-actionable hint for the error class.
func (e *AppError) Suggestion() string {
	switch e.Class {
	case ClassValidation:
		return "Check the request payload for missing video IDs or invalid time ranges"
	case ClassAcquisitionFailed:
		return "Refresh the YouTube session cookies or retry later"
	case ClassTrimFailed, ClassMergeFailed:
		return "The source video may be corrupt; retry with a different video"
	case ClassPublishFailed:
		return "Check object storage credentials and connectivity, then retry"
	case ClassResource:
		return "Free disk space in the download and temp directories"
	default:
		return "Retry the request; contact the operator if the problem persists"
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Class:   ClassValidation,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func NotFound(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Class:   ClassNotFound,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Internal(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Class:   ClassUnexpected,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func AcquisitionFailed(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Class:   ClassAcquisitionFailed,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func TrimFailed(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Class:   ClassTrimFailed,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func MergeFailed(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Class:   ClassMergeFailed,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func PublishFailed(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Class:   ClassPublishFailed,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Resource(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusInsufficientStorage,
		Class:   ClassResource,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// ClassOf extracts the error class, defaulting to UnexpectedError for
// errors that did not originate in this package.
func ClassOf(err error) Class {
	if e, ok := err.(*AppError); ok {
		return e.Class
	}
	return ClassUnexpected
}
