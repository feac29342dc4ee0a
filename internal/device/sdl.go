package device

import (
	"fmt"
	"math"
	"sync"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
)

// RumbleCapMs bounds every rumble request so the motors stop on their own
// if the process dies mid-pulse. The scheduler zeroes them well before.
const RumbleCapMs = 5000

// joystickAPI abstracts the SDL joystick calls for testing
type joystickAPI interface {
	Init() error
	Quit()
	Joysticks() []uint32
	Open(id uint32) (joystickInfo, error)
	Close(id uint32)
	Connected(id uint32) bool
	PollDevices(added, removed func(id uint32))
	Axis(id uint32, index int32) int16
	NumButtons(id uint32) int32
	Button(id uint32, index int32) bool
	NumHats(id uint32) int32
	Hat(id uint32, index int32) uint8
	Rumble(id uint32, low, high uint16, durationMs uint32) error
}

type joystickInfo struct {
	Name    string
	Vendor  uint16
	Product uint16
}

type sdlPad struct {
	jid     uint32
	id      ID
	name    string
	mapping *Mapping
}

func (p *sdlPad) ID() ID       { return p.id }
func (p *sdlPad) Name() string { return p.name }

// SDL is the cross-platform joystick backend. All calls, including the
// constructor, must come from the same OS thread.
type SDL struct {
	api     joystickAPI
	mu      sync.Mutex
	pads    map[uint32]*sdlPad
	order   []*sdlPad
	handles []Handle
	closed  bool
	log     logger.Logger
}

var _ Controller = (*SDL)(nil)

// NewSDL initializes the SDL joystick subsystem and opens every attached
// joystick
func NewSDL() (*SDL, error) {
	return newSDL(&sdlNative{})
}

func newSDL(api joystickAPI) (*SDL, error) {
	if err := api.Init(); err != nil {
		return nil, errors.New().Wrap(ErrInitFailed, err)
	}

	s := &SDL{
		api:  api,
		pads: make(map[uint32]*sdlPad),
		log:  logger.Component("sdl"),
	}
	for _, id := range api.Joysticks() {
		s.open(id)
	}
	s.log.Debug().Int("count", len(s.order)).Msg("SDL joystick subsystem initialized")

	return s, nil
}

// Enumerate drains pending hot-plug events and returns the open joysticks
// in connection order. The returned slice is reused by the next call.
func (s *SDL) Enumerate() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.api.PollDevices(s.open, s.remove)

	s.handles = s.handles[:0]
	for _, p := range s.order {
		s.handles = append(s.handles, p)
	}

	return s.handles
}

func (s *SDL) IsConnected(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(h)
	if err != nil {
		return false
	}

	return s.api.Connected(p.jid)
}

func (s *SDL) SetMotors(h Handle, low, high float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	if !s.api.Connected(p.jid) {
		return errors.New().WithData(ErrNotConnected, p.id)
	}

	if err := s.api.Rumble(p.jid, MotorSpeed(low), MotorSpeed(high), RumbleCapMs); err != nil {
		return errors.New().Wrap(ErrRumbleFailed, err)
	}

	return nil
}

func (s *SDL) ReadInputState(h Handle) (InputState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state InputState

	p, err := s.lookup(h)
	if err != nil {
		return state, err
	}
	if !s.api.Connected(p.jid) {
		return state, errors.New().WithData(ErrNotConnected, p.id)
	}

	for _, am := range p.mapping.Axes {
		raw := s.api.Axis(p.jid, am.Index)
		if am.Trigger {
			state.SetAxis(am.Control, ApplyDeadzone(NormalizeTrigger(raw, am.RawMin, am.RawMax), Deadzone))
			continue
		}
		v := NormalizeAxis(raw)
		if am.Invert {
			v = -v
		}
		state.SetAxis(am.Control, ApplyDeadzone(v, Deadzone))
	}

	numButtons := s.api.NumButtons(p.jid)
	for _, bm := range p.mapping.Buttons {
		if bm.Index < numButtons {
			state.SetButton(bm.Control, s.api.Button(p.jid, bm.Index))
		}
	}

	if p.mapping.HasHat && s.api.NumHats(p.jid) > 0 {
		state.SetHat(s.api.Hat(p.jid, 0))
	}

	return state, nil
}

// Close releases every joystick and shuts SDL down
func (s *SDL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for _, p := range s.order {
		s.api.Close(p.jid)
	}
	s.order = nil
	clear(s.pads)
	s.api.Quit()
	s.closed = true

	return nil
}

func (s *SDL) open(jid uint32) {
	if _, ok := s.pads[jid]; ok {
		return
	}

	info, err := s.api.Open(jid)
	if err != nil {
		s.log.Warn().Err(err).Uint32("joystick", jid).Msg("Failed to open joystick")
		return
	}

	p := &sdlPad{
		jid:     jid,
		id:      ID(fmt.Sprintf("sdl:%d", jid)),
		name:    info.Name,
		mapping: MappingFor(info.Vendor, info.Product),
	}
	s.pads[jid] = p
	s.order = append(s.order, p)

	s.log.Info().
		Str("device", string(p.id)).
		Str("name", p.name).
		Str("vid", fmt.Sprintf("%04X", info.Vendor)).
		Str("pid", fmt.Sprintf("%04X", info.Product)).
		Str("mapping", p.mapping.Name).
		Msg("Joystick connected")
}

func (s *SDL) remove(jid uint32) {
	p, ok := s.pads[jid]
	if !ok {
		return
	}

	s.api.Close(jid)
	delete(s.pads, jid)
	for i, o := range s.order {
		if o == p {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.log.Info().Str("device", string(p.id)).Str("name", p.name).Msg("Joystick disconnected")
}

func (s *SDL) lookup(h Handle) (*sdlPad, error) {
	p, ok := h.(*sdlPad)
	if !ok || p == nil {
		return nil, errors.New().New(ErrUnknownHandle)
	}
	if s.pads[p.jid] != p {
		return nil, errors.New().WithData(ErrUnknownHandle, p.id)
	}

	return p, nil
}

// MotorSpeed converts an intensity in [0, 1] to a 16-bit motor speed
func MotorSpeed(v float64) uint16 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return math.MaxUint16
	}

	return uint16(math.Round(v * math.MaxUint16))
}
