package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/host"
)

const errUnknownCommand = errors.ErrorCode("unknown_command")

// Gun is the payload of the simulated shoot notification
type Gun struct {
	Name string
}

func (g *Gun) String() string {
	return g.Name
}

// KillInfo is the payload of the simulated kill marker
type KillInfo struct {
	Victim string
	Crit   bool
}

func (k *KillInfo) String() string {
	if k.Crit {
		return k.Victim + " (crit)"
	}

	return k.Victim
}

// simulatedHost exposes the game's notification points through a catalog so
// the whole binding path can be driven from the console
type simulatedHost struct {
	catalog *host.Catalog
	shoot   *host.Event
	dead    *host.Event
	kill    *host.Event
	input   *host.Object
}

func newSimulatedHost() (*simulatedHost, error) {
	h := &simulatedHost{catalog: host.NewCatalog()}

	var err error
	if h.shoot, err = h.catalog.Define("Duckov.ItemAgent_Gun").
		StaticEvent("OnMainCharacterShootEvent", (func(*Gun))(nil)); err != nil {
		return nil, err
	}
	if h.dead, err = h.catalog.Define("Duckov.LevelManager").
		StaticEvent("OnMainCharacterDead", (func())(nil)); err != nil {
		return nil, err
	}
	if h.kill, err = h.catalog.Define("Duckov.UI.KillMarker").
		StaticEvent("OnKillMarker", (func(string, *KillInfo))(nil)); err != nil {
		return nil, err
	}

	im := h.catalog.Define("InputManager")
	if err := im.InstanceEvent("OnSwitchWeaponInput", (func())(nil)); err != nil {
		return nil, err
	}
	h.input = im.NewObject()

	return h, nil
}

// command is one parsed console line
type command struct {
	verb string
	args []string
}

func parseCommand(line string) (command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return command{}, false
	}

	return command{verb: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// raise fires the notification a game event verb stands for. It reports
// false for verbs that are not game events.
func (h *simulatedHost) raise(cmd command) (bool, error) {
	switch cmd.verb {
	case "fire", "shoot":
		return true, h.shoot.Raise(&Gun{Name: strings.Join(cmd.args, " ")})
	case "death", "dead":
		return true, h.dead.Raise()
	case "switch":
		return true, h.input.Event("OnSwitchWeaponInput").Raise()
	case "kill", "headshot":
		info := &KillInfo{Crit: cmd.verb == "headshot"}
		if len(cmd.args) > 0 {
			info.Victim = cmd.args[0]
		}
		for _, a := range cmd.args[min(1, len(cmd.args)):] {
			if strings.EqualFold(a, "crit") {
				info.Crit = true
			}
		}
		return true, h.kill.Raise("KillInfo", info)
	default:
		return false, nil
	}
}

// readCommands forwards console lines until r is exhausted, then closes out
func readCommands(r io.Reader, out chan<- command) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if cmd, ok := parseCommand(scanner.Text()); ok {
			out <- cmd
		}
	}
}

func usage() string {
	return strings.Join([]string{
		"fire [weapon]      raise the shoot notification",
		"kill [victim] [crit]",
		"headshot [victim]  raise the kill marker",
		"death              raise the death notification",
		"switch             raise the weapon switch input",
		"preview <name>     play a preset (light, medium, strong, fire, kill, headshot, death, switch)",
		"weapon <name>      play the pulse for a weapon name",
		"rescan             bind notifications that appeared since the last scan",
		"status             log controllers and bindings",
		"stop               stop the motors",
		"quit",
	}, "\n")
}

func unknownCommand(verb string) error {
	return errors.New().WithData(errUnknownCommand, fmt.Sprintf("%q, try \"help\"", verb))
}
