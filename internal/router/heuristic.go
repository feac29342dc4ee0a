package router

import (
	"regexp"
	"strconv"
	"strings"
)

var critField = regexp.MustCompile(`(?i)crit[a-z_]*\s*[:=]\s*(-?\d+(?:\.\d+)?|true|false)\b`)

// IsCrit guesses from the display form of a kill payload whether the kill
// was a headshot. The payload type is unknown, so this is a heuristic:
//
//   - when the text holds numeric or boolean crit fields ("crit=1",
//     "IsCrit:false", "critDamage: 12.5") the kill counts as a headshot if
//     any of them is non-zero or true;
//   - otherwise the text containing "crit" anywhere counts.
//
// False positives: unrelated names containing "crit" ("Critter"), or a
// non-zero field that is not a headshot flag ("critChance=0.1").
// False negatives: payloads whose display form omits the flag, such as a
// bare type name, or that call headshots something else.
func IsCrit(s string) bool {
	if s == "" {
		return false
	}

	matches := critField.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return strings.Contains(strings.ToLower(s), "crit")
	}

	for _, m := range matches {
		switch v := strings.ToLower(m[1]); v {
		case "true":
			return true
		case "false":
		default:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f != 0 {
				return true
			}
		}
	}

	return false
}

// isHeadshot applies IsCrit to a single payload. Two-argument markers only
// look for "crit" in either string.
func isHeadshot(args []string) bool {
	switch len(args) {
	case 0:
		return false
	case 1:
		return IsCrit(args[0])
	default:
		for _, a := range args {
			if strings.Contains(strings.ToLower(a), "crit") {
				return true
			}
		}

		return false
	}
}
