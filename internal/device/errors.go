package device

import "codeberg.org/mutker/duckovhaptics/internal/errors"

const (
	// Initialization and Lifecycle Errors
	ErrInitFailed     = errors.ErrorCode("device_init_failed")
	ErrShutdownFailed = errors.ErrorCode("device_shutdown_failed")
	ErrUnsupported    = errors.ErrorCode("device_backend_unsupported")

	// Device Errors
	ErrNotConnected  = errors.ErrorCode("device_not_connected")
	ErrUnknownHandle = errors.ErrorCode("device_unknown_handle")
	ErrRumbleFailed  = errors.ErrorCode("device_rumble_failed")
	ErrReadFailed    = errors.ErrorCode("device_read_failed")
)
