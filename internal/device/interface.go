package device

import (
	"math"
	"time"
)

const (
	// TriggerThreshold is the trigger travel that counts as input
	TriggerThreshold = 0.1
	// StickThreshold is the stick deflection magnitude that counts as input
	StickThreshold = 0.2
)

// Controller is the platform capability for game controllers
type Controller interface {
	// Enumerate lists the devices the backend currently knows about
	Enumerate() []Handle

	// IsConnected reports whether the device is still attached
	IsConnected(h Handle) bool

	// SetMotors drives the low- and high-frequency motors, intensities in [0, 1]
	SetMotors(h Handle, low, high float64) error

	// ReadInputState returns the live input state of the device
	ReadInputState(h Handle) (InputState, error)
}

// Handle identifies one controller of a backend
type Handle interface {
	ID() ID
	Name() string
}

// ID is a backend-unique, stable device identifier
type ID string

// Domain types for controller input
type (
	Vector struct {
		X, Y float64
	}

	ButtonState struct {
		A, B, X, Y bool
		LB, RB     bool
		L3, R3     bool
		Select     bool
		Start      bool
		Home       bool
	}

	DpadState struct {
		Up, Down, Left, Right bool
	}

	TriggerState struct {
		LT, RT float64
	}

	SticksState struct {
		Left, Right Vector
	}

	InputState struct {
		Buttons  ButtonState
		Dpad     DpadState
		Triggers TriggerState
		Sticks   SticksState
	}
)

// Magnitude returns the length of the vector
func (v Vector) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Active reports whether any button, trigger, stick or d-pad input is present
func (s InputState) Active() bool {
	return s.Buttons != ButtonState{} ||
		s.Dpad != DpadState{} ||
		s.Triggers.LT > TriggerThreshold || s.Triggers.RT > TriggerThreshold ||
		s.Sticks.Left.Magnitude() > StickThreshold || s.Sticks.Right.Magnitude() > StickThreshold
}

// Snapshot is the per-tick view of one connected controller
type Snapshot struct {
	ID             ID
	Name           string
	HasRecentInput bool
	LastInput      time.Time
}

// Selection is the controller currently deemed in use
type Selection struct {
	Handle    Handle
	LastInput time.Time
}

// Empty reports whether no controller is selected
func (s Selection) Empty() bool {
	return s.Handle == nil
}

// ID returns the selected device ID, or "" when empty
func (s Selection) ID() ID {
	if s.Handle == nil {
		return ""
	}

	return s.Handle.ID()
}
