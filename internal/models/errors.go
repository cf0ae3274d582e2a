package models

// ErrorType identifies the category of failure that occurred.
type ErrorType string

const (
	// Input validation
	ErrInputEmpty       ErrorType = "input_empty"
	ErrRefInvalid       ErrorType = "ref_invalid"
	ErrLocalPathMissing ErrorType = "local_path_missing"

	// Ingestion tool
	ErrToolFailed  ErrorType = "tool_failed"
	ErrToolTimeout ErrorType = "tool_timeout"

	// Clone phase (non-fatal for the overall request)
	ErrCloneFailed ErrorType = "clone_failed"

	// Catch-all
	ErrInternalError ErrorType = "internal_error"
)
