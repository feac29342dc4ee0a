package device

import (
	"fmt"
	"math"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
)

// XInputSlots is the number of user indices XInput exposes
const XInputSlots = 4

// XINPUT_GAMEPAD button bits
const (
	xinputDpadUp        uint16 = 0x0001
	xinputDpadDown      uint16 = 0x0002
	xinputDpadLeft      uint16 = 0x0004
	xinputDpadRight     uint16 = 0x0008
	xinputStart         uint16 = 0x0010
	xinputBack          uint16 = 0x0020
	xinputLeftThumb     uint16 = 0x0040
	xinputRightThumb    uint16 = 0x0080
	xinputLeftShoulder  uint16 = 0x0100
	xinputRightShoulder uint16 = 0x0200
	xinputA             uint16 = 0x1000
	xinputB             uint16 = 0x2000
	xinputX             uint16 = 0x4000
	xinputY             uint16 = 0x8000
)

// xinputGamepad mirrors XINPUT_GAMEPAD
type xinputGamepad struct {
	Buttons      uint16
	LeftTrigger  uint8
	RightTrigger uint8
	ThumbLX      int16
	ThumbLY      int16
	ThumbRX      int16
	ThumbRY      int16
}

// xinputAPI abstracts XInputGetState and XInputSetState. GetState returns
// an ErrNotConnected error for an empty slot.
type xinputAPI interface {
	GetState(slot uint32) (xinputGamepad, error)
	SetState(slot uint32, low, high uint16) error
}

type xinputPad struct {
	slot uint32
	id   ID
	name string
}

func (p *xinputPad) ID() ID       { return p.id }
func (p *xinputPad) Name() string { return p.name }

// XInput is the Windows backend. Slots are fixed, so Enumerate always returns
// all four and IsConnected tells which ones hold a controller.
type XInput struct {
	api     xinputAPI
	pads    [XInputSlots]*xinputPad
	handles []Handle
	log     logger.Logger
}

var _ Controller = (*XInput)(nil)

// NewXInput loads the XInput library. It fails with ErrUnsupported on
// platforms without it.
func NewXInput() (*XInput, error) {
	api, err := newXInputNative()
	if err != nil {
		return nil, err
	}

	return newXInput(api), nil
}

func newXInput(api xinputAPI) *XInput {
	x := &XInput{
		api:     api,
		handles: make([]Handle, 0, XInputSlots),
		log:     logger.Component("xinput"),
	}
	for i := range x.pads {
		p := &xinputPad{
			slot: uint32(i),
			id:   ID(fmt.Sprintf("xinput:%d", i)),
			name: fmt.Sprintf("XInput Controller %d", i+1),
		}
		x.pads[i] = p
		x.handles = append(x.handles, p)
	}

	return x
}

func (x *XInput) Enumerate() []Handle {
	return x.handles
}

func (x *XInput) IsConnected(h Handle) bool {
	p, err := x.lookup(h)
	if err != nil {
		return false
	}
	_, err = x.api.GetState(p.slot)

	return err == nil
}

func (x *XInput) SetMotors(h Handle, low, high float64) error {
	p, err := x.lookup(h)
	if err != nil {
		return err
	}

	if err := x.api.SetState(p.slot, MotorSpeed(low), MotorSpeed(high)); err != nil {
		if errors.HasCode(err, ErrNotConnected) {
			return err
		}
		return errors.New().Wrap(ErrRumbleFailed, err)
	}

	return nil
}

func (x *XInput) ReadInputState(h Handle) (InputState, error) {
	p, err := x.lookup(h)
	if err != nil {
		return InputState{}, err
	}

	pad, err := x.api.GetState(p.slot)
	if err != nil {
		return InputState{}, err
	}

	return decodeXInput(pad), nil
}

// Close stops the motors of every connected slot
func (x *XInput) Close() error {
	for _, p := range x.pads {
		if _, err := x.api.GetState(p.slot); err != nil {
			continue
		}
		if err := x.api.SetState(p.slot, 0, 0); err != nil {
			x.log.Debug().Err(err).Str("device", string(p.id)).Msg("Failed to stop motors")
		}
	}

	return nil
}

func (x *XInput) lookup(h Handle) (*xinputPad, error) {
	p, ok := h.(*xinputPad)
	if !ok || p == nil || p.slot >= XInputSlots || x.pads[p.slot] != p {
		return nil, errors.New().New(ErrUnknownHandle)
	}

	return p, nil
}

func decodeXInput(pad xinputGamepad) InputState {
	var s InputState

	b := pad.Buttons
	s.Buttons = ButtonState{
		A:      b&xinputA != 0,
		B:      b&xinputB != 0,
		X:      b&xinputX != 0,
		Y:      b&xinputY != 0,
		LB:     b&xinputLeftShoulder != 0,
		RB:     b&xinputRightShoulder != 0,
		L3:     b&xinputLeftThumb != 0,
		R3:     b&xinputRightThumb != 0,
		Select: b&xinputBack != 0,
		Start:  b&xinputStart != 0,
	}
	s.Dpad = DpadState{
		Up:    b&xinputDpadUp != 0,
		Down:  b&xinputDpadDown != 0,
		Left:  b&xinputDpadLeft != 0,
		Right: b&xinputDpadRight != 0,
	}

	s.Triggers.LT = ApplyDeadzone(float64(pad.LeftTrigger)/math.MaxUint8, Deadzone)
	s.Triggers.RT = ApplyDeadzone(float64(pad.RightTrigger)/math.MaxUint8, Deadzone)

	s.Sticks.Left = Vector{
		X: ApplyDeadzone(NormalizeAxis(pad.ThumbLX), Deadzone),
		Y: ApplyDeadzone(NormalizeAxis(pad.ThumbLY), Deadzone),
	}
	s.Sticks.Right = Vector{
		X: ApplyDeadzone(NormalizeAxis(pad.ThumbRX), Deadzone),
		Y: ApplyDeadzone(NormalizeAxis(pad.ThumbRY), Deadzone),
	}

	return s
}
