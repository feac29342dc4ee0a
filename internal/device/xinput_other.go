//go:build !windows

package device

import "codeberg.org/mutker/duckovhaptics/internal/errors"

func newXInputNative() (xinputAPI, error) {
	return nil, errors.New().WithMessage(ErrUnsupported, "XInput is only available on Windows")
}
