package node

import "errors"

// Static errors.
var (
	// ErrUnsupportedOperation is returned for a resource/operation pair
	// outside the route table. No request is sent.
	ErrUnsupportedOperation = errors.New("unsupported resource/operation")
	// ErrMissingRequiredParameter indicates a required parameter is absent or blank.
	ErrMissingRequiredParameter = errors.New("missing required parameter")
	// ErrInvalidParameter indicates a parameter could not be decoded or is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBinaryFieldMissing indicates the input record has no attachment under the referenced field.
	ErrBinaryFieldMissing = errors.New("binary field missing on input item")
)
