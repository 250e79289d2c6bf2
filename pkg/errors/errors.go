package errors

import (
	"errors"
	"fmt"
)

// ErrUploader is the base kind shared by every error this module returns.
var ErrUploader = errors.New("telegraph uploader")

// Sentinel errors for each failure kind.
var (
	ErrFetch           = errors.New("fetch failed")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUploadTimeout   = errors.New("upload timed out")
	ErrUpload          = errors.New("upload failed")
	ErrSource          = errors.New("source unreadable")
)

// Error codes carried by AppError.
const (
	CodeFetchFailed     = "FETCH_FAILED"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeUploadTimeout   = "UPLOAD_TIMEOUT"
	CodeUploadFailed    = "UPLOAD_FAILED"
	CodeSourceFailed    = "SOURCE_UNREADABLE"
)

// AppError represents a structured uploader error.
//
// Err holds the kind sentinel, Cause the underlying failure (if any). Detail
// carries diagnostic context such as a raw response body or a content type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Err     error  `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Is reports every AppError as an ErrUploader.
func (e *AppError) Is(target error) bool {
	return target == ErrUploader
}

// Fetch creates an error for a failed remote source download.
func Fetch(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeFetchFailed,
		Message: message,
		Err:     ErrFetch,
		Cause:   cause,
	}
}

// UnsupportedType creates an error for a content type outside the allow-list.
// The offending type is kept in Detail.
func UnsupportedType(contentType string) *AppError {
	return &AppError{
		Code:    CodeUnsupportedType,
		Message: fmt.Sprintf("the %q filetype is not supported", contentType),
		Detail:  contentType,
		Err:     ErrUnsupportedType,
	}
}

// UploadTimeout creates an error for an upload whose read timeout elapsed.
func UploadTimeout(cause error) *AppError {
	return &AppError{
		Code:    CodeUploadTimeout,
		Message: "request timeout",
		Err:     ErrUploadTimeout,
		Cause:   cause,
	}
}

// Upload creates a generic upload failure.
func Upload(message, detail string, cause error) *AppError {
	return &AppError{
		Code:    CodeUploadFailed,
		Message: message,
		Detail:  detail,
		Err:     ErrUpload,
		Cause:   cause,
	}
}

// Source creates an error for a local source that could not be opened.
func Source(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeSourceFailed,
		Message: fmt.Sprintf("failed to open file %q", path),
		Detail:  path,
		Err:     ErrSource,
		Cause:   cause,
	}
}

// CodeOf returns the AppError code found in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// DetailOf returns the diagnostic detail found in err's chain, or "" if none.
func DetailOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Detail
	}
	return ""
}
