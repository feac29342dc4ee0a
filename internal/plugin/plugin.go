// Package plugin ties the haptics core to a host's lifecycle: it binds
// notifications on enable, drives the device tracker and pulse scheduler
// every frame and tears everything down on disable.
package plugin

import (
	"strings"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/binding"
	"codeberg.org/mutker/duckovhaptics/internal/config"
	"codeberg.org/mutker/duckovhaptics/internal/device"
	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/haptics"
	"codeberg.org/mutker/duckovhaptics/internal/host"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
	"codeberg.org/mutker/duckovhaptics/internal/router"
	"codeberg.org/mutker/duckovhaptics/internal/telemetry"
)

// DefaultRescanInterval is how often unbound notifications are looked for
// again while the plugin is enabled
const DefaultRescanInterval = 5 * time.Second

const ErrDestroyed = errors.ErrorCode("plugin_destroyed")

// dispatcher is implemented by option stores that queue change callbacks,
// such as config.ViperOptions
type dispatcher interface {
	Dispatch()
}

// Settings configures a Plugin
type Settings struct {
	Namespace      string
	StaleAfter     time.Duration
	RescanInterval time.Duration
	Specs          []binding.NotificationSpec
	Collector      telemetry.Collector
	Clock          func() time.Time
}

// DefaultSettings binds the default notifications under the default namespace
func DefaultSettings() Settings {
	return Settings{
		Namespace:      config.DefaultNamespace,
		StaleAfter:     haptics.DefaultStaleAfter,
		RescanInterval: DefaultRescanInterval,
		Specs:          binding.DefaultSpecs(),
	}
}

// Status is the snapshot a debug view renders
type Status struct {
	Enabled       bool
	Controllers   []device.Snapshot
	Active        device.ID
	ActiveName    string
	Vibrating     bool
	Subscriptions int
	Bound         []string
	LastEvent     string
}

// Plugin owns one instance of every core component
type Plugin struct {
	opts      config.Options
	specs     []binding.NotificationSpec
	cache     *binding.TypeCache
	registry  *binding.Registry
	router    *router.Router
	tracker   *device.Tracker
	scheduler *haptics.Scheduler
	now       func() time.Time

	rescanEvery time.Duration
	lastScan    time.Time
	enabled     bool
	destroyed   bool
	log         logger.Logger
}

// New builds the components; nothing is bound until Enable
func New(u host.Universe, ctrl device.Controller, opts config.Options, s Settings) *Plugin {
	if s.Clock == nil {
		s.Clock = time.Now
	}
	if s.Specs == nil {
		s.Specs = binding.DefaultSpecs()
	}

	p := &Plugin{
		opts:        opts,
		specs:       s.Specs,
		now:         s.Clock,
		rescanEvery: s.RescanInterval,
		log:         logger.Component("plugin"),
	}

	p.tracker = device.NewTracker(ctrl)
	p.scheduler = haptics.NewScheduler(ctrl, p.tracker,
		haptics.WithClock(s.Clock),
		haptics.WithStaleAfter(s.StaleAfter),
	)
	p.router = router.New(p.scheduler, opts, s.Collector)
	p.cache = binding.NewTypeCache(u, s.Namespace)
	p.registry = binding.NewRegistry(u, p.cache, p.router)

	p.log.Info().
		Str("namespace", s.Namespace).
		Int("notifications", len(s.Specs)).
		Msg("Haptics initialized")

	return p
}

// Enable binds every notification the host currently exposes
func (p *Plugin) Enable() error {
	if p.destroyed {
		return errors.New().New(ErrDestroyed)
	}
	if p.enabled {
		return nil
	}

	p.enabled = true
	p.scan()

	return nil
}

// Disable stops any pulse and removes every installed handler
func (p *Plugin) Disable() {
	if !p.enabled {
		return
	}

	p.scheduler.StopImmediately()
	p.registry.UnbindAll()
	p.enabled = false

	p.log.Info().Msg("Haptics disabled")
}

// Destroy disables the plugin for good
func (p *Plugin) Destroy() {
	if p.destroyed {
		return
	}

	p.Disable()
	p.scheduler.StopImmediately()
	p.cache.Invalidate()
	p.destroyed = true
}

// Update runs one frame: queued option changes, device selection, pulse
// expiry and, while some notifications are still unbound, a periodic rescan
func (p *Plugin) Update(now time.Time) {
	if p.destroyed {
		return
	}

	if d, ok := p.opts.(dispatcher); ok {
		d.Dispatch()
	}

	p.tracker.Update(now)
	p.scheduler.Tick(now)

	if p.enabled && p.rescanEvery > 0 && p.registry.Len() < len(p.specs) &&
		now.Sub(p.lastScan) >= p.rescanEvery {
		p.scan()
	}
}

// Rescan binds notifications from host content that loaded since the last
// scan. Bound notifications are left alone.
func (p *Plugin) Rescan() int {
	if !p.enabled {
		return 0
	}

	return p.scan()
}

func (p *Plugin) scan() int {
	p.lastScan = p.now()
	added := len(p.registry.Bind(p.specs))
	if added > 0 {
		p.log.Info().
			Int("added", added).
			Int("bound", p.registry.Len()).
			Int("wanted", len(p.specs)).
			Msg("Notifications bound")
	}

	return added
}

// Preview plays a named test pulse: one of the router presets or an event
// name (fire, kill, headshot, death, switch)
func (p *Plugin) Preview(name string) (haptics.Result, error) {
	switch strings.ToLower(name) {
	case "fire":
		return p.router.OnFire(), nil
	case "kill":
		return p.router.OnKill(false), nil
	case "headshot":
		return p.router.OnKill(true), nil
	case "death":
		return p.router.OnDeath(), nil
	case "switch", "weapon_switch":
		return p.router.OnWeaponSwitch(), nil
	default:
		return p.router.Preview(name)
	}
}

// PreviewWeapon plays the fire pulse for a weapon name
func (p *Plugin) PreviewWeapon(name string) haptics.Result {
	return p.router.OnGenericWeaponEvent(name)
}

// Stop zeroes the motors immediately
func (p *Plugin) Stop() {
	p.scheduler.StopImmediately()
}

// Status returns a snapshot for display
func (p *Plugin) Status() Status {
	sel := p.tracker.Selection()

	st := Status{
		Enabled:       p.enabled,
		Controllers:   append([]device.Snapshot(nil), p.tracker.Snapshots()...),
		Active:        sel.ID(),
		Vibrating:     p.scheduler.State().Active,
		Subscriptions: p.registry.Len(),
		LastEvent:     p.router.LastEvent(),
	}
	if !sel.Empty() {
		st.ActiveName = sel.Handle.Name()
	}
	for _, r := range p.registry.Records() {
		st.Bound = append(st.Bound, r.Type.Name()+"."+r.Member.Name())
	}

	return st
}

// Pending reports whether a pulse is still running
func (p *Plugin) Pending() bool {
	return p.scheduler.State().Active
}
