// Package devicetest provides an in-memory controller backend for tests.
package devicetest

import (
	"fmt"

	"codeberg.org/mutker/duckovhaptics/internal/device"
)

// Pad is one fake controller
type Pad struct {
	id        device.ID
	name      string
	Connected bool
	Input     device.InputState
	ReadErr   error
	SetErr    error
}

func (p *Pad) ID() device.ID { return p.id }
func (p *Pad) Name() string  { return p.name }

// Press marks the south button held
func (p *Pad) Press() { p.Input.Buttons.A = true }

// Release clears all input
func (p *Pad) Release() { p.Input = device.InputState{} }

// MotorCall records one SetMotors invocation
type MotorCall struct {
	ID   device.ID
	Low  float64
	High float64
}

// Backend implements device.Controller over a list of pads
type Backend struct {
	Pads  []*Pad
	Calls []MotorCall

	handles []device.Handle
}

var _ device.Controller = (*Backend)(nil)

// New returns a backend with n connected pads named pad0..padN-1
func New(n int) *Backend {
	b := &Backend{}
	for i := 0; i < n; i++ {
		b.Add(fmt.Sprintf("pad%d", i))
	}

	return b
}

// Add attaches a connected pad
func (b *Backend) Add(name string) *Pad {
	p := &Pad{id: device.ID(name), name: name, Connected: true}
	b.Pads = append(b.Pads, p)

	return p
}

// Pad returns the i-th pad
func (b *Backend) Pad(i int) *Pad {
	return b.Pads[i]
}

func (b *Backend) Enumerate() []device.Handle {
	b.handles = b.handles[:0]
	for _, p := range b.Pads {
		b.handles = append(b.handles, p)
	}

	return b.handles
}

func (b *Backend) IsConnected(h device.Handle) bool {
	p := b.find(h)
	return p != nil && p.Connected
}

func (b *Backend) SetMotors(h device.Handle, low, high float64) error {
	p := b.find(h)
	if p == nil {
		return fmt.Errorf("unknown pad %v", h)
	}
	if p.SetErr != nil {
		return p.SetErr
	}
	b.Calls = append(b.Calls, MotorCall{ID: p.id, Low: low, High: high})

	return nil
}

func (b *Backend) ReadInputState(h device.Handle) (device.InputState, error) {
	p := b.find(h)
	if p == nil {
		return device.InputState{}, fmt.Errorf("unknown pad %v", h)
	}
	if p.ReadErr != nil {
		return device.InputState{}, p.ReadErr
	}

	return p.Input, nil
}

// Last returns the most recent motor call
func (b *Backend) Last() (MotorCall, bool) {
	if len(b.Calls) == 0 {
		return MotorCall{}, false
	}

	return b.Calls[len(b.Calls)-1], true
}

// Reset forgets recorded motor calls
func (b *Backend) Reset() {
	b.Calls = nil
}

func (b *Backend) find(h device.Handle) *Pad {
	if h == nil {
		return nil
	}
	for _, p := range b.Pads {
		if p.id == h.ID() {
			return p
		}
	}

	return nil
}
