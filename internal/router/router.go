// Package router turns bound host notifications into haptic pulses.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/binding"
	"codeberg.org/mutker/duckovhaptics/internal/config"
	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/haptics"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
	"codeberg.org/mutker/duckovhaptics/internal/telemetry"
	"codeberg.org/mutker/duckovhaptics/internal/weapon"
)

// Option keys, relative to the haptics namespace
const (
	KeyEnabled           = "enabled"
	KeyFireIntensity     = "fire_intensity"
	KeyFireDuration      = "fire_duration"
	KeyKillIntensity     = "kill_intensity"
	KeyHeadshotIntensity = "headshot_intensity"
	KeyDamageIntensity   = "damage_intensity"
	KeyDamageDuration    = "damage_duration"
)

const ErrUnknownPreset = errors.ErrorCode("router_unknown_preset")

// Pulser issues pulses. *haptics.Scheduler implements it.
type Pulser interface {
	Vibrate(p haptics.Profile) haptics.Result
}

// Tunables are the live haptic settings
type Tunables struct {
	Enabled           bool
	FireIntensity     float64
	FireDuration      int
	KillIntensity     float64
	HeadshotIntensity float64
	DamageIntensity   float64
	DamageDuration    int
}

func DefaultTunables() Tunables {
	return Tunables{
		Enabled:           true,
		FireIntensity:     0.6,
		FireDuration:      100,
		KillIntensity:     0.9,
		HeadshotIntensity: 1.0,
		DamageIntensity:   0.8,
		DamageDuration:    200,
	}
}

// LoadTunables reads every tunable from opts, falling back to the defaults
func LoadTunables(opts config.Options) Tunables {
	d := DefaultTunables()

	return Tunables{
		Enabled:           opts.GetBool(KeyEnabled, d.Enabled),
		FireIntensity:     opts.GetFloat(KeyFireIntensity, d.FireIntensity),
		FireDuration:      opts.GetInt(KeyFireDuration, d.FireDuration),
		KillIntensity:     opts.GetFloat(KeyKillIntensity, d.KillIntensity),
		HeadshotIntensity: opts.GetFloat(KeyHeadshotIntensity, d.HeadshotIntensity),
		DamageIntensity:   opts.GetFloat(KeyDamageIntensity, d.DamageIntensity),
		DamageDuration:    opts.GetInt(KeyDamageDuration, d.DamageDuration),
	}
}

func (t Tunables) FireProfile() haptics.Profile {
	return haptics.NewProfile(t.FireIntensity*0.7, t.FireIntensity, t.FireDuration)
}

// DeathProfile is the damage pulse at twice the damage duration
func (t Tunables) DeathProfile() haptics.Profile {
	return haptics.NewProfile(t.DamageIntensity, t.DamageIntensity*0.75, t.DamageDuration).Scaled(2)
}

func (t Tunables) KillProfile() haptics.Profile {
	return haptics.NewProfile(t.KillIntensity*0.5, t.KillIntensity*0.7, 120)
}

func (t Tunables) HeadshotProfile() haptics.Profile {
	return haptics.NewProfile(t.HeadshotIntensity*0.8, t.HeadshotIntensity, 180)
}

// WeaponSwitchProfile is a fixed light tick
func WeaponSwitchProfile() haptics.Profile {
	return haptics.NewProfile(0.2, 0.3, 50)
}

var presets = map[string]haptics.Profile{
	"light":  haptics.NewProfile(0.2, 0.3, 200),
	"medium": haptics.NewProfile(0.5, 0.6, 300),
	"strong": haptics.NewProfile(0.9, 1.0, 500),
}

// Presets returns the names accepted by Preview
func Presets() []string {
	return []string{"light", "medium", "strong"}
}

// Router is the haptic policy behind every bound notification
type Router struct {
	pulser    Pulser
	opts      config.Options
	collector telemetry.Collector
	now       func() time.Time
	tunables  Tunables
	lastEvent string
	log       logger.Logger
}

var _ binding.Sink = (*Router)(nil)

// New builds a router reading its tunables from opts. A nil collector
// disables pulse recording.
func New(pulser Pulser, opts config.Options, collector telemetry.Collector) *Router {
	if collector == nil {
		collector = telemetry.Noop()
	}

	r := &Router{
		pulser:    pulser,
		opts:      opts,
		collector: collector,
		now:       time.Now,
		log:       logger.Component("router"),
	}
	r.Reload()
	opts.OnChanged(r.optionChanged)

	return r
}

// Reload re-reads every tunable
func (r *Router) Reload() {
	r.tunables = LoadTunables(r.opts)
	r.log.Debug().
		Bool("enabled", r.tunables.Enabled).
		Float64("fire_intensity", r.tunables.FireIntensity).
		Int("fire_duration", r.tunables.FireDuration).
		Msg("Haptic settings loaded")
}

func (r *Router) optionChanged(key string) {
	if strings.HasPrefix(key, config.OptionsPrefix+".") {
		r.Reload()
	}
}

// Tunables returns the settings in effect
func (r *Router) Tunables() Tunables {
	return r.tunables
}

// LastEvent returns the name of the last event that reached the scheduler
func (r *Router) LastEvent() string {
	return r.lastEvent
}

// Notify dispatches a bound notification. A panic in a handler is recovered
// and the fire profile is applied instead.
func (r *Router) Notify(kind binding.Kind, args []string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().
				Str("kind", kind.String()).
				Strs("args", args).
				Str("panic", fmt.Sprint(rec)).
				Msg("Handler failed, applying default pulse")
			r.fallback()
		}
	}()

	switch kind {
	case binding.KindFire:
		if len(args) == 0 {
			r.OnFire()
			return
		}
		r.OnGenericWeaponEvent(strings.Join(args, " "))
	case binding.KindDeath:
		r.OnDeath()
	case binding.KindWeaponSwitch:
		r.OnWeaponSwitch()
	case binding.KindKill:
		r.OnKill(isHeadshot(args))
	default:
		r.log.Debug().Int("kind", int(kind)).Msg("Unknown notification kind")
	}
}

// fallback applies the fire profile; a second fault is only logged
func (r *Router) fallback() {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("panic", fmt.Sprint(rec)).Msg("Default pulse failed")
		}
	}()

	r.apply("fallback", r.tunables.FireProfile())
}

func (r *Router) OnFire() haptics.Result {
	return r.apply("fire", r.tunables.FireProfile())
}

func (r *Router) OnDeath() haptics.Result {
	return r.apply("death", r.tunables.DeathProfile())
}

func (r *Router) OnWeaponSwitch() haptics.Result {
	return r.apply("weapon_switch", WeaponSwitchProfile())
}

func (r *Router) OnKill(headshot bool) haptics.Result {
	if headshot {
		return r.apply("headshot", r.tunables.HeadshotProfile())
	}

	return r.apply("kill", r.tunables.KillProfile())
}

// OnGenericWeaponEvent classifies the weapon named in payload and applies its
// profile; unknown weapons get the fire profile.
func (r *Router) OnGenericWeaponEvent(payload string) haptics.Result {
	cat := weapon.Classify(payload)
	p, ok := weapon.Profile(cat)
	if !ok {
		p = r.tunables.FireProfile()
	}

	return r.apply("weapon:"+cat.String(), p)
}

// Preview plays one of the test presets
func (r *Router) Preview(preset string) (haptics.Result, error) {
	p, ok := presets[strings.ToLower(preset)]
	if !ok {
		return haptics.Result{}, errors.New().WithData(ErrUnknownPreset, preset)
	}

	return r.apply("preview:"+strings.ToLower(preset), p), nil
}

func (r *Router) apply(event string, p haptics.Profile) haptics.Result {
	if !r.tunables.Enabled {
		return haptics.Result{Reason: haptics.ReasonDisabled}
	}

	res := r.pulser.Vibrate(p)
	r.lastEvent = event

	r.log.Debug().
		Str("event", event).
		Str("profile", p.String()).
		Str("device", string(res.Device)).
		Str("reason", res.Reason.String()).
		Msg("Pulse requested")

	err := r.collector.Record(context.Background(), &telemetry.Pulse{
		Timestamp: r.now(),
		Event:     event,
		Device:    string(res.Device),
		Low:       res.Low,
		High:      res.High,
		Duration:  p.Duration,
		Issued:    res.Issued,
		Reason:    res.Reason.String(),
	})
	if err != nil {
		r.log.Debug().Err(err).Msg("Failed to record pulse")
	}

	return res
}
