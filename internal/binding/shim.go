package binding

import (
	"fmt"

	"codeberg.org/mutker/duckovhaptics/internal/host"
)

// Sink receives notifications with their arguments in display form
type Sink interface {
	Notify(kind Kind, args []string)
}

// Stringify returns the display form of an opaque host value
func Stringify(v any) string {
	if v == nil {
		return ""
	}

	// fmt calls String or Error when present and recovers their panics
	return fmt.Sprintf("%+v", v)
}

// newShim picks the shim variant for arity
func newShim(kind Kind, arity int, sink Sink) (host.Shim, bool) {
	switch arity {
	case 0:
		return host.Shim0(func() {
			sink.Notify(kind, nil)
		}), true
	case 1:
		return host.Shim1(func(a any) {
			sink.Notify(kind, []string{Stringify(a)})
		}), true
	case 2:
		return host.Shim2(func(a, b any) {
			sink.Notify(kind, []string{Stringify(a), Stringify(b)})
		}), true
	default:
		return nil, false
	}
}
