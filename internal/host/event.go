package host

import (
	"reflect"
	"sync"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
)

// Event is a notification point. Handlers run synchronously on the goroutine
// calling Raise, in installation order.
type Event struct {
	sig  reflect.Type
	mu   sync.Mutex
	subs []*subscription
}

type subscription struct {
	fn reflect.Value
}

func newEvent(sig reflect.Type) *Event {
	return &Event{sig: sig}
}

// Arity returns the number of arguments Raise expects
func (e *Event) Arity() int {
	return e.sig.NumIn()
}

// Len returns the number of installed handlers
func (e *Event) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.subs)
}

// Raise invokes every handler with args. nil is accepted for parameters of
// pointer, interface, map, slice, func or chan type.
func (e *Event) Raise(args ...any) error {
	if len(args) != e.sig.NumIn() {
		return errors.New().WithData(ErrBadArgument, map[string]int{"want": e.sig.NumIn(), "got": len(args)})
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := e.sig.In(i)
		if arg == nil {
			if !nillable(pt.Kind()) {
				return errors.New().WithData(ErrBadArgument, pt.String())
			}
			in[i] = reflect.Zero(pt)
			continue
		}

		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(pt) {
			return errors.New().WithData(ErrBadArgument, v.Type().String()+" to "+pt.String())
		}
		in[i] = v
	}

	e.mu.Lock()
	subs := make([]*subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn.Call(in)
	}

	return nil
}

func (e *Event) add(fn reflect.Value) *subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &subscription{fn: fn}
	e.subs = append(e.subs, s)

	return s
}

func (e *Event) remove(s *subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subs {
		if sub == s {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return true
		}
	}

	return false
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
