package device

import (
	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"github.com/jupiterrider/purego-sdl3/sdl"
)

// sdlNative forwards joystickAPI to the SDL3 shared library
type sdlNative struct {
	joysticks map[uint32]*sdl.Joystick
}

func (n *sdlNative) Init() error {
	if !sdl.Init(sdl.InitJoystick) {
		return errors.New().WithMessage(ErrInitFailed, sdl.GetError())
	}
	n.joysticks = make(map[uint32]*sdl.Joystick)

	return nil
}

func (n *sdlNative) Quit() {
	sdl.Quit()
}

func (n *sdlNative) Joysticks() []uint32 {
	ids := sdl.GetJoysticks()
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint32(id))
	}

	return out
}

func (n *sdlNative) Open(id uint32) (joystickInfo, error) {
	js := sdl.OpenJoystick(sdl.JoystickID(id))
	if js == nil {
		return joystickInfo{}, errors.New().WithMessage(ErrInitFailed, sdl.GetError())
	}
	n.joysticks[id] = js

	return joystickInfo{
		Name:    sdl.GetJoystickName(js),
		Vendor:  sdl.GetJoystickVendor(js),
		Product: sdl.GetJoystickProduct(js),
	}, nil
}

func (n *sdlNative) Close(id uint32) {
	if js, ok := n.joysticks[id]; ok {
		sdl.CloseJoystick(js)
		delete(n.joysticks, id)
	}
}

func (n *sdlNative) Connected(id uint32) bool {
	js, ok := n.joysticks[id]
	return ok && sdl.JoystickConnected(js)
}

func (n *sdlNative) PollDevices(added, removed func(id uint32)) {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			added(uint32(event.JDevice().Which))
		case sdl.EventJoystickRemoved:
			removed(uint32(event.JDevice().Which))
		}
	}
}

func (n *sdlNative) Axis(id uint32, index int32) int16 {
	return sdl.GetJoystickAxis(n.joysticks[id], index)
}

func (n *sdlNative) NumButtons(id uint32) int32 {
	return sdl.GetNumJoystickButtons(n.joysticks[id])
}

func (n *sdlNative) Button(id uint32, index int32) bool {
	return sdl.GetJoystickButton(n.joysticks[id], index)
}

func (n *sdlNative) NumHats(id uint32) int32 {
	return sdl.GetNumJoystickHats(n.joysticks[id])
}

func (n *sdlNative) Hat(id uint32, index int32) uint8 {
	return sdl.GetJoystickHat(n.joysticks[id], index)
}

func (n *sdlNative) Rumble(id uint32, low, high uint16, durationMs uint32) error {
	if !sdl.RumbleJoystick(n.joysticks[id], low, high, durationMs) {
		return errors.New().WithMessage(ErrRumbleFailed, sdl.GetError())
	}

	return nil
}
