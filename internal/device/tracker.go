package device

import (
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/logger"
)

// Tracker decides which connected controller is the one in use.
//
// With a single controller that controller is always selected and its input
// timestamp is refreshed every tick. With several, the first one showing
// input wins; when none does, the previous selection is kept.
type Tracker struct {
	ctrl      Controller
	connected []Handle
	snapshots []Snapshot
	lastInput map[ID]time.Time
	selection Selection
	log       logger.Logger
}

func NewTracker(ctrl Controller) *Tracker {
	return &Tracker{
		ctrl:      ctrl,
		lastInput: make(map[ID]time.Time),
		log:       logger.Component("tracker"),
	}
}

// Update recomputes the connected set and the selection
func (t *Tracker) Update(now time.Time) {
	t.connected = t.connected[:0]
	for _, h := range t.ctrl.Enumerate() {
		if h != nil && t.ctrl.IsConnected(h) {
			t.connected = append(t.connected, h)
		}
	}
	t.snapshots = t.snapshots[:0]

	switch len(t.connected) {
	case 0:
		if !t.selection.Empty() {
			t.log.Info().Str("device", string(t.selection.ID())).Msg("No controllers connected")
		}
		t.selection = Selection{}

	case 1:
		h := t.connected[0]
		t.lastInput[h.ID()] = now
		t.snapshots = append(t.snapshots, Snapshot{ID: h.ID(), Name: h.Name(), HasRecentInput: true, LastInput: now})
		t.selectHandle(h, now)

	default:
		var picked Handle
		for _, h := range t.connected {
			id := h.ID()
			active := t.hasInput(h)
			if active {
				t.lastInput[id] = now
				if picked == nil {
					picked = h
				}
			}
			t.snapshots = append(t.snapshots, Snapshot{ID: id, Name: h.Name(), HasRecentInput: active, LastInput: t.lastInput[id]})
		}
		switch {
		case picked != nil:
			t.selectHandle(picked, now)
		case !t.selection.Empty() && !t.IsConnected(t.selection.Handle):
			// Keep the input time so the staleness gate is unchanged
			t.log.Info().Str("device", string(t.selection.ID())).Msg("Active controller disconnected")
			t.selection = Selection{LastInput: t.selection.LastInput}
		}
	}
}

func (t *Tracker) hasInput(h Handle) bool {
	state, err := t.ctrl.ReadInputState(h)
	if err != nil {
		return false
	}

	return state.Active()
}

func (t *Tracker) selectHandle(h Handle, now time.Time) {
	if t.selection.ID() != h.ID() {
		t.log.Info().Str("device", string(h.ID())).Str("name", h.Name()).Msg("Active controller changed")
	}
	t.selection = Selection{Handle: h, LastInput: now}
}

// Selection returns the current selection
func (t *Tracker) Selection() Selection {
	return t.selection
}

// Connected returns the controllers seen connected on the last update.
// The slice is reused by the next update.
func (t *Tracker) Connected() []Handle {
	return t.connected
}

// Count returns the number of connected controllers
func (t *Tracker) Count() int {
	return len(t.connected)
}

// IsConnected reports whether h was connected on the last update
func (t *Tracker) IsConnected(h Handle) bool {
	if h == nil {
		return false
	}
	for _, c := range t.connected {
		if c.ID() == h.ID() {
			return true
		}
	}

	return false
}

// Snapshots returns the per-device view of the last update.
// The slice is reused by the next update.
func (t *Tracker) Snapshots() []Snapshot {
	return t.snapshots
}
