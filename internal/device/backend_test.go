package device

import (
	stderrors "errors"
	"math"
	"testing"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJoystick struct {
	info      joystickInfo
	connected bool
	axes      map[int32]int16
	buttons   map[int32]bool
	numButton int32
	hat       uint8
	rumble    [2]uint16
	duration  uint32
}

type fakeJoystickAPI struct {
	initErr   error
	sticks    map[uint32]*fakeJoystick
	attached  []uint32
	added     []uint32
	removed   []uint32
	rumbleErr error
	closed    []uint32
	quit      bool
}

func newFakeJoystickAPI() *fakeJoystickAPI {
	return &fakeJoystickAPI{sticks: make(map[uint32]*fakeJoystick)}
}

func (f *fakeJoystickAPI) attach(id uint32, vendor, product uint16) *fakeJoystick {
	js := &fakeJoystick{
		info:      joystickInfo{Name: "stick", Vendor: vendor, Product: product},
		connected: true,
		axes:      make(map[int32]int16),
		buttons:   make(map[int32]bool),
		numButton: 11,
	}
	f.sticks[id] = js
	f.attached = append(f.attached, id)

	return js
}

func (f *fakeJoystickAPI) Init() error         { return f.initErr }
func (f *fakeJoystickAPI) Quit()               { f.quit = true }
func (f *fakeJoystickAPI) Joysticks() []uint32 { return f.attached }

func (f *fakeJoystickAPI) Open(id uint32) (joystickInfo, error) {
	js, ok := f.sticks[id]
	if !ok {
		return joystickInfo{}, stderrors.New("no such joystick")
	}

	return js.info, nil
}

func (f *fakeJoystickAPI) Close(id uint32)          { f.closed = append(f.closed, id) }
func (f *fakeJoystickAPI) Connected(id uint32) bool { return f.sticks[id] != nil && f.sticks[id].connected }

func (f *fakeJoystickAPI) PollDevices(added, removed func(id uint32)) {
	for _, id := range f.added {
		added(id)
	}
	for _, id := range f.removed {
		removed(id)
	}
	f.added, f.removed = nil, nil
}

func (f *fakeJoystickAPI) Axis(id uint32, index int32) int16  { return f.sticks[id].axes[index] }
func (f *fakeJoystickAPI) NumButtons(id uint32) int32         { return f.sticks[id].numButton }
func (f *fakeJoystickAPI) Button(id uint32, index int32) bool { return f.sticks[id].buttons[index] }
func (f *fakeJoystickAPI) NumHats(uint32) int32               { return 1 }
func (f *fakeJoystickAPI) Hat(id uint32, _ int32) uint8       { return f.sticks[id].hat }

func (f *fakeJoystickAPI) Rumble(id uint32, low, high uint16, durationMs uint32) error {
	if f.rumbleErr != nil {
		return f.rumbleErr
	}
	f.sticks[id].rumble = [2]uint16{low, high}
	f.sticks[id].duration = durationMs

	return nil
}

func TestSDLInitFailure(t *testing.T) {
	api := newFakeJoystickAPI()
	api.initErr = stderrors.New("no video driver")

	_, err := newSDL(api)
	assert.True(t, errors.HasCode(err, ErrInitFailed))
}

func TestSDLEnumerateAndHotplug(t *testing.T) {
	api := newFakeJoystickAPI()
	api.attach(3, 0x045E, 0x02FF)

	s, err := newSDL(api)
	require.NoError(t, err)

	handles := s.Enumerate()
	require.Len(t, handles, 1)
	assert.Equal(t, ID("sdl:3"), handles[0].ID())
	first := handles[0]

	api.attach(7, 0x054C, 0x0CE6)
	api.added = []uint32{7, 7}
	handles = s.Enumerate()
	require.Len(t, handles, 2, "duplicate add events open once")
	assert.Equal(t, ID("sdl:7"), handles[1].ID())

	api.removed = []uint32{3}
	handles = s.Enumerate()
	require.Len(t, handles, 1)
	assert.Equal(t, ID("sdl:7"), handles[0].ID())
	assert.Equal(t, []uint32{3}, api.closed)

	// A handle that outlived its joystick is rejected
	assert.False(t, s.IsConnected(first))
	assert.True(t, errors.HasCode(s.SetMotors(first, 1, 1), ErrUnknownHandle))
}

func TestSDLSetMotors(t *testing.T) {
	api := newFakeJoystickAPI()
	js := api.attach(1, 0, 0)

	s, err := newSDL(api)
	require.NoError(t, err)
	h := s.Enumerate()[0]

	require.NoError(t, s.SetMotors(h, 0.5, 2))
	assert.Equal(t, [2]uint16{32768, math.MaxUint16}, js.rumble)
	assert.Equal(t, uint32(RumbleCapMs), js.duration)

	api.rumbleErr = stderrors.New("haptics unsupported")
	assert.True(t, errors.HasCode(s.SetMotors(h, 0.5, 0.5), ErrRumbleFailed))

	js.connected = false
	assert.True(t, errors.HasCode(s.SetMotors(h, 0, 0), ErrNotConnected))
	assert.True(t, errors.HasCode(s.SetMotors(nil, 0, 0), ErrUnknownHandle))
}

func TestSDLReadInputState(t *testing.T) {
	api := newFakeJoystickAPI()
	js := api.attach(1, 0x054C, 0x0CE6)

	s, err := newSDL(api)
	require.NoError(t, err)
	h := s.Enumerate()[0]

	// Triggers rest at the bottom of a full-range axis
	js.axes[4], js.axes[5] = math.MinInt16, math.MinInt16
	state, err := s.ReadInputState(h)
	require.NoError(t, err)
	assert.False(t, state.Active())

	js.axes[1] = math.MaxInt16
	js.axes[5] = math.MaxInt16
	js.buttons[9] = true // L1 on a DualSense
	js.hat = HatUp | HatLeft

	state, err = s.ReadInputState(h)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, state.Sticks.Left.Y, 1e-9)
	assert.InDelta(t, 1.0, state.Triggers.RT, 1e-9)
	assert.True(t, state.Buttons.LB)
	assert.False(t, state.Buttons.Select)
	assert.Equal(t, DpadState{Up: true, Left: true}, state.Dpad)
	assert.True(t, state.Active())

	js.numButton = 5
	state, err = s.ReadInputState(h)
	require.NoError(t, err)
	assert.False(t, state.Buttons.LB, "buttons beyond the device count are ignored")
}

func TestSDLClose(t *testing.T) {
	api := newFakeJoystickAPI()
	api.attach(1, 0, 0)
	api.attach(2, 0, 0)

	s, err := newSDL(api)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.True(t, api.quit)
	assert.ElementsMatch(t, []uint32{1, 2}, api.closed)
	assert.Empty(t, s.Enumerate())
}

type fakeXInput struct {
	pads   [XInputSlots]*xinputGamepad
	motors [XInputSlots][2]uint16
}

func (f *fakeXInput) GetState(slot uint32) (xinputGamepad, error) {
	if f.pads[slot] == nil {
		return xinputGamepad{}, errors.New().New(ErrNotConnected)
	}

	return *f.pads[slot], nil
}

func (f *fakeXInput) SetState(slot uint32, low, high uint16) error {
	if f.pads[slot] == nil {
		return errors.New().New(ErrNotConnected)
	}
	f.motors[slot] = [2]uint16{low, high}

	return nil
}

func TestXInputSlots(t *testing.T) {
	api := &fakeXInput{}
	api.pads[1] = &xinputGamepad{}
	x := newXInput(api)

	handles := x.Enumerate()
	require.Len(t, handles, XInputSlots)
	assert.Equal(t, ID("xinput:1"), handles[1].ID())
	assert.False(t, x.IsConnected(handles[0]))
	assert.True(t, x.IsConnected(handles[1]))

	require.NoError(t, x.SetMotors(handles[1], 1, 0.25))
	assert.Equal(t, [2]uint16{math.MaxUint16, 16384}, api.motors[1])
	assert.True(t, errors.HasCode(x.SetMotors(handles[0], 1, 1), ErrNotConnected))

	_, err := x.ReadInputState(handles[2])
	assert.True(t, errors.HasCode(err, ErrNotConnected))

	require.NoError(t, x.Close())
	assert.Equal(t, [2]uint16{}, api.motors[1])
}

func TestDecodeXInput(t *testing.T) {
	state := decodeXInput(xinputGamepad{
		Buttons:      xinputA | xinputBack | xinputDpadRight | xinputRightThumb,
		RightTrigger: math.MaxUint8,
		LeftTrigger:  5,
		ThumbLX:      math.MinInt16,
		ThumbRY:      1000,
	})

	assert.True(t, state.Buttons.A)
	assert.True(t, state.Buttons.Select)
	assert.True(t, state.Buttons.R3)
	assert.False(t, state.Buttons.Start)
	assert.Equal(t, DpadState{Right: true}, state.Dpad)
	assert.InDelta(t, 1.0, state.Triggers.RT, 1e-9)
	assert.Zero(t, state.Triggers.LT, "inside the deadzone")
	assert.InDelta(t, -1.0, state.Sticks.Left.X, 1e-9)
	assert.Zero(t, state.Sticks.Right.Y, "inside the deadzone")

	assert.False(t, decodeXInput(xinputGamepad{}).Active())
}

func TestMappingHelpers(t *testing.T) {
	assert.Equal(t, "playstation", MappingFor(0x054C, 0x0CE6).Name)
	assert.Equal(t, "switch_pro", MappingFor(0x057E, 0x2009).Name)
	assert.Equal(t, "generic", MappingFor(0x1234, 0x5678).Name)

	assert.InDelta(t, -1.0, NormalizeAxis(math.MinInt16), 1e-9)
	assert.InDelta(t, 0.5, NormalizeTrigger(0, -100, 100), 1e-9)
	assert.Zero(t, NormalizeTrigger(5, 3, 3))
	assert.Zero(t, ApplyDeadzone(0.04, Deadzone))

	assert.Equal(t, uint16(0), MotorSpeed(math.NaN()))
	assert.Equal(t, uint16(0), MotorSpeed(-1))
	assert.Equal(t, uint16(math.MaxUint16), MotorSpeed(1.5))
}
