// Package weapon maps weapon names to a category and its pulse profile.
package weapon

import (
	"strings"

	"codeberg.org/mutker/duckovhaptics/internal/haptics"
)

type Category int

const (
	Unknown Category = iota
	Shotgun
	Sniper
	SMG
	Rifle
	Pistol
	Melee
	Heavy
)

func (c Category) String() string {
	switch c {
	case Shotgun:
		return "shotgun"
	case Sniper:
		return "sniper"
	case SMG:
		return "smg"
	case Rifle:
		return "rifle"
	case Pistol:
		return "pistol"
	case Melee:
		return "melee"
	case Heavy:
		return "heavy"
	default:
		return "unknown"
	}
}

type entry struct {
	category Category
	keywords []string
	profile  haptics.Profile
}

// Evaluated in order; the first category with a matching keyword wins.
// Keywords are upper case.
var table = []entry{
	{Shotgun, []string{"MP155", "TOZ", "SHOTGUN", "SAIGA"}, haptics.NewProfile(0.8, 1.0, 150)},
	{Sniper, []string{"SV98", "M107", "SNIPER", "SVD", "MOSIN"}, haptics.NewProfile(1.0, 1.0, 300)},
	{SMG, []string{"MP7", "MP5", "VECTOR", "UZI", "SMG", "P90"}, haptics.NewProfile(0.4, 0.5, 40)},
	{Rifle, []string{"AK", "MDR", "M4", "RIFLE", "SCAR"}, haptics.NewProfile(0.5, 0.7, 80)},
	{Pistol, []string{"GLOCK", "TT", "PISTOL", "1911", "BERETTA"}, haptics.NewProfile(0.3, 0.5, 60)},
	{Melee, []string{"KNIFE", "MELEE", "AXE"}, haptics.NewProfile(0.6, 0.8, 100)},
	{Heavy, []string{"ROCKET", "RPG", "LAUNCHER"}, haptics.NewProfile(1.0, 1.0, 300)},
}

// Classify returns the category of a weapon name. Matching is a
// case-insensitive substring search.
func Classify(name string) Category {
	if name == "" {
		return Unknown
	}

	upper := strings.ToUpper(name)
	for _, e := range table {
		for _, kw := range e.keywords {
			if strings.Contains(upper, kw) {
				return e.category
			}
		}
	}

	return Unknown
}

// Profile returns the default pulse of a category. It returns false for
// Unknown; callers fall back to their configured fire profile.
func Profile(c Category) (haptics.Profile, bool) {
	for _, e := range table {
		if e.category == c {
			return e.profile, true
		}
	}

	return haptics.Profile{}, false
}
