package haptics

import (
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/device"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
)

// DefaultStaleAfter is how long the selected controller may sit idle before
// pulses stop being routed to it while several controllers are connected.
const DefaultStaleAfter = time.Second

// Selector exposes the active-device decision the scheduler routes to.
// *device.Tracker implements it.
type Selector interface {
	Selection() device.Selection
	Connected() []device.Handle
	Count() int
}

// State is the timed on/off state of the motors
type State struct {
	Active bool
	End    time.Time
}

// Reason explains the outcome of a Vibrate call
type Reason int

const (
	ReasonIssued Reason = iota
	ReasonNoDevice
	ReasonStale
	ReasonDeviceError
	ReasonDisabled
)

func (r Reason) String() string {
	switch r {
	case ReasonIssued:
		return "issued"
	case ReasonNoDevice:
		return "no_device"
	case ReasonStale:
		return "stale"
	case ReasonDeviceError:
		return "device_error"
	case ReasonDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Result describes what a Vibrate call did
type Result struct {
	Issued bool
	Reason Reason
	Device device.ID
	Low    float64
	High   float64
	End    time.Time
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStaleAfter sets the multi-controller staleness threshold
func WithStaleAfter(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// Scheduler is the only component issuing motor commands. A new pulse always
// replaces the one in progress.
type Scheduler struct {
	ctrl       device.Controller
	sel        Selector
	now        func() time.Time
	staleAfter time.Duration
	state      State
	pulsed     device.Handle
	log        logger.Logger
}

func NewScheduler(ctrl device.Controller, sel Selector, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctrl:       ctrl,
		sel:        sel,
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
		log:        logger.Component("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Vibrate starts p on the target controller
func (s *Scheduler) Vibrate(p Profile) Result {
	now := s.now()
	p = p.Clamped()
	res := Result{Low: p.Low, High: p.High}

	if s.sel.Count() > 1 {
		if now.Sub(s.sel.Selection().LastInput) > s.staleAfter {
			s.log.Debug().Str("profile", p.String()).Msg("Pulse suppressed, no recent controller input")
			res.Reason = ReasonStale
			return res
		}
	}

	target := s.Target()
	if target == nil {
		res.Reason = ReasonNoDevice
		return res
	}
	res.Device = target.ID()

	if err := s.ctrl.SetMotors(target, p.Low, p.High); err != nil {
		s.log.Warn().Err(err).Str("device", string(target.ID())).Msg("Failed to set motors")
		res.Reason = ReasonDeviceError
		return res
	}

	if s.pulsed != nil && s.pulsed.ID() != target.ID() {
		s.zero(s.pulsed)
	}

	s.pulsed = target
	s.state = State{Active: true, End: now.Add(p.Duration)}

	res.Issued = true
	res.Reason = ReasonIssued
	res.End = s.state.End

	return res
}

// Tick expires the running pulse once its end time is reached
func (s *Scheduler) Tick(now time.Time) {
	if !s.state.Active || now.Before(s.state.End) {
		return
	}

	if s.pulsed != nil {
		s.zero(s.pulsed)
	}
	s.state.Active = false
}

// StopImmediately zeroes the motors regardless of the timer
func (s *Scheduler) StopImmediately() {
	h := s.pulsed
	if h == nil {
		h = s.Target()
	}
	if h != nil {
		s.zero(h)
	}

	s.pulsed = nil
	s.state = State{}
}

// State returns the current pulse state
func (s *Scheduler) State() State {
	return s.state
}

// Target returns the controller a pulse would go to right now: the selection
// when it is still connected, else the first connected controller.
func (s *Scheduler) Target() device.Handle {
	connected := s.sel.Connected()
	if len(connected) == 0 {
		return nil
	}

	if sel := s.sel.Selection(); !sel.Empty() {
		for _, h := range connected {
			if h.ID() == sel.ID() {
				return h
			}
		}
	}

	return connected[0]
}

func (s *Scheduler) zero(h device.Handle) {
	if err := s.ctrl.SetMotors(h, 0, 0); err != nil {
		s.log.Debug().Err(err).Str("device", string(h.ID())).Msg("Failed to stop motors")
	}
}
