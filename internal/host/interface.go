// Package host describes the type universe a plugin binds into and provides
// Catalog, an in-process implementation for Go hosts.
package host

// Universe is the capability-queried view of the host's loaded types
type Universe interface {
	// EnumerateLoadedTypes lists the types currently loaded by the host
	EnumerateLoadedTypes() []Type

	// FindMember returns the public notification point of t named name
	FindMember(t Type, name string) (Member, bool)

	// GetMemberArity returns the number of parameters the notification passes
	GetMemberArity(m Member) (int, error)

	// InstallHandler attaches shim to m on target (nil for static members)
	InstallHandler(m Member, target Instance, shim Shim) (Handler, error)

	// RemoveHandler detaches a handler previously returned by InstallHandler
	RemoveHandler(m Member, target Instance, h Handler) error

	// FindLiveInstance returns a live instance of t, if any
	FindLiveInstance(t Type) (Instance, bool)
}

// Type is an opaque handle to a host type
type Type interface {
	Name() string
}

// Member is an opaque handle to a notification point of a type
type Member interface {
	Name() string
	Static() bool
}

// Instance is an opaque handle to a live host object
type Instance any

// Handler is an opaque handle to an installed shim
type Handler any

// Shim is a handler with a fixed arity. Arguments are opaque host values.
type Shim interface {
	Arity() int
}

type (
	Shim0 func()
	Shim1 func(a any)
	Shim2 func(a, b any)
)

func (Shim0) Arity() int { return 0 }
func (Shim1) Arity() int { return 1 }
func (Shim2) Arity() int { return 2 }

// MaxArity is the largest arity a Shim variant exists for
const MaxArity = 2
