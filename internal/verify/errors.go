package verify

import "errors"

// Stable error codes returned to callers. Internal detail never leaves the
// process through these; it is logged instead.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidImage       = "invalid_image"
	CodeStorageUnavailable = "storage_unavailable"
	CodeRecordWriteFailed  = "record_write_failed"
	CodeInternal           = "internal_error"
)

// Error pairs a stable response code with the underlying cause.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode extracts the stable code from err, falling back to internal_error.
func ErrorCode(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code
	}
	return CodeInternal
}
