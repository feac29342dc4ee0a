//go:build windows

package device

import (
	"syscall"
	"unsafe"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"golang.org/x/sys/windows"
)

const errorDeviceNotConnected = 1167

// xinputState mirrors XINPUT_STATE
type xinputState struct {
	PacketNumber uint32
	Gamepad      xinputGamepad
}

// xinputVibration mirrors XINPUT_VIBRATION
type xinputVibration struct {
	LeftMotorSpeed  uint16
	RightMotorSpeed uint16
}

type xinputNative struct {
	getState *windows.LazyProc
	setState *windows.LazyProc
}

func newXInputNative() (xinputAPI, error) {
	dll := windows.NewLazySystemDLL("xinput1_4.dll")
	n := &xinputNative{
		getState: dll.NewProc("XInputGetState"),
		setState: dll.NewProc("XInputSetState"),
	}

	if err := n.getState.Find(); err != nil {
		return nil, errors.New().Wrap(ErrUnsupported, err)
	}
	if err := n.setState.Find(); err != nil {
		return nil, errors.New().Wrap(ErrUnsupported, err)
	}

	return n, nil
}

func (n *xinputNative) GetState(slot uint32) (xinputGamepad, error) {
	var st xinputState
	r, _, _ := n.getState.Call(uintptr(slot), uintptr(unsafe.Pointer(&st)))

	return st.Gamepad, callError(r, ErrReadFailed)
}

// SetState drives the left (low-frequency) and right (high-frequency) motors
func (n *xinputNative) SetState(slot uint32, low, high uint16) error {
	v := xinputVibration{LeftMotorSpeed: low, RightMotorSpeed: high}
	r, _, _ := n.setState.Call(uintptr(slot), uintptr(unsafe.Pointer(&v)))

	return callError(r, ErrRumbleFailed)
}

func callError(r uintptr, code errors.ErrorCode) error {
	switch r {
	case 0:
		return nil
	case errorDeviceNotConnected:
		return errors.New().New(ErrNotConnected)
	default:
		return errors.New().Wrap(code, syscall.Errno(r))
	}
}
