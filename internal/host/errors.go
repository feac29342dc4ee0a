package host

import "codeberg.org/mutker/duckovhaptics/internal/errors"

const (
	// Definition Errors
	ErrInvalidSignature = errors.ErrorCode("host_invalid_signature")
	ErrDuplicateMember  = errors.ErrorCode("host_duplicate_member")

	// Binding Errors
	ErrTypeUnavailable = errors.ErrorCode("host_type_unavailable")
	ErrMemberNotFound  = errors.ErrorCode("host_member_not_found")
	ErrTargetMismatch  = errors.ErrorCode("host_target_mismatch")
	ErrArityMismatch   = errors.ErrorCode("host_arity_mismatch")
	ErrHandlerNotFound = errors.ErrorCode("host_handler_not_found")

	// Raise Errors
	ErrBadArgument = errors.ErrorCode("host_bad_argument")
)
