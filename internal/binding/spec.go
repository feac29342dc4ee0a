// Package binding discovers host notification points by name and attaches
// arity-matched shims that forward to a Sink.
package binding

import (
	"fmt"
	"slices"
)

// Kind is the handler a notification routes to
type Kind int

const (
	KindFire Kind = iota
	KindDeath
	KindWeaponSwitch
	KindKill
)

func (k Kind) String() string {
	switch k {
	case KindFire:
		return "fire"
	case KindDeath:
		return "death"
	case KindWeaponSwitch:
		return "weapon_switch"
	case KindKill:
		return "kill"
	default:
		return "unknown"
	}
}

// NotificationSpec describes a notification point to look for. An empty
// HostTypeName matches any loaded type exposing a static member of that name.
type NotificationSpec struct {
	HostTypeName     string
	NotificationName string
	Arities          []int
	Kind             Kind
}

// Accepts reports whether a notification of the given arity can be bound
func (s NotificationSpec) Accepts(arity int) bool {
	return slices.Contains(s.Arities, arity)
}

func (s NotificationSpec) String() string {
	host := s.HostTypeName
	if host == "" {
		host = "*"
	}

	return fmt.Sprintf("%s.%s", host, s.NotificationName)
}

func (s NotificationSpec) key() string {
	return fmt.Sprintf("%s/%d", s, s.Kind)
}

var anyArity = []int{0, 1, 2}

// DefaultSpecs returns the notification points of the game
func DefaultSpecs() []NotificationSpec {
	return []NotificationSpec{
		{HostTypeName: "ItemAgent_Gun", NotificationName: "OnMainCharacterShootEvent", Arities: anyArity, Kind: KindFire},
		{HostTypeName: "LevelManager", NotificationName: "OnMainCharacterDead", Arities: anyArity, Kind: KindDeath},
		{HostTypeName: "InputManager", NotificationName: "OnSwitchWeaponInput", Arities: anyArity, Kind: KindWeaponSwitch},
		{NotificationName: "OnKillMarker", Arities: anyArity, Kind: KindKill},
	}
}
