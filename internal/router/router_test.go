package router

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/binding"
	"codeberg.org/mutker/duckovhaptics/internal/config"
	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/haptics"
	"codeberg.org/mutker/duckovhaptics/internal/telemetry"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePulser struct {
	profiles []haptics.Profile
	panics   int
}

func (f *fakePulser) Vibrate(p haptics.Profile) haptics.Result {
	if f.panics > 0 {
		f.panics--
		panic("motor driver exploded")
	}
	f.profiles = append(f.profiles, p)

	return haptics.Result{Issued: true, Reason: haptics.ReasonIssued, Device: "pad0", Low: p.Low, High: p.High}
}

func (f *fakePulser) last(t *testing.T) haptics.Profile {
	t.Helper()
	require.NotEmpty(t, f.profiles)

	return f.profiles[len(f.profiles)-1]
}

type fakeCollector struct {
	pulses []*telemetry.Pulse
}

func (c *fakeCollector) Record(_ context.Context, p *telemetry.Pulse) error {
	c.pulses = append(c.pulses, p)
	return nil
}

func (c *fakeCollector) Close() error  { return nil }
func (c *fakeCollector) Enabled() bool { return true }

func newTestRouter() (*Router, *fakePulser, *config.ViperOptions, *fakeCollector) {
	pulser := &fakePulser{}
	opts := config.NewViperOptions(viper.New(), config.OptionsPrefix)
	collector := &fakeCollector{}

	return New(pulser, opts, collector), pulser, opts, collector
}

func assertProfile(t *testing.T, want, got haptics.Profile) {
	t.Helper()
	assert.InDelta(t, want.Low, got.Low, 1e-9, "low")
	assert.InDelta(t, want.High, got.High, 1e-9, "high")
	assert.Equal(t, want.Duration, got.Duration, "duration")
}

func TestIsCrit(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"normal", false},
		{"crit=1", true},
		{"crit=0", false},
		{"CRIT", true},
		{"KillInfo{IsCrit:true Damage:40}", true},
		{"KillInfo{IsCrit:false Damage:40}", false},
		{"&{Victim:scav Crit:1}", true},
		{"critDamage: 12.5", true},
		{"crit=0 critical=2", true},
		{"Critter", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCrit(tt.in))
		})
	}
}

func TestKillHeadshotHeuristic(t *testing.T) {
	r, pulser, _, _ := newTestRouter()

	r.Notify(binding.KindKill, []string{"KillInfo", "crit=1"})
	assertProfile(t, haptics.NewProfile(0.8, 1.0, 180), pulser.last(t))

	r.Notify(binding.KindKill, []string{"KillInfo", "normal"})
	assertProfile(t, haptics.NewProfile(0.45, 0.63, 120), pulser.last(t))

	// Either argument may carry the marker
	r.Notify(binding.KindKill, []string{"crit", "KillInfo"})
	assertProfile(t, haptics.NewProfile(0.8, 1.0, 180), pulser.last(t))

	// Two-argument markers only look for the substring
	r.Notify(binding.KindKill, []string{"KillInfo", "crit=0"})
	assertProfile(t, haptics.NewProfile(0.8, 1.0, 180), pulser.last(t))

	r.Notify(binding.KindKill, []string{"IsCrit:false", "x"})
	assertProfile(t, haptics.NewProfile(0.8, 1.0, 180), pulser.last(t))

	r.Notify(binding.KindKill, []string{"IsCrit:false"})
	assertProfile(t, haptics.NewProfile(0.45, 0.63, 120), pulser.last(t))

	r.Notify(binding.KindKill, []string{"IsCrit:true"})
	assertProfile(t, haptics.NewProfile(0.8, 1.0, 180), pulser.last(t))

	r.Notify(binding.KindKill, nil)
	assertProfile(t, haptics.NewProfile(0.45, 0.63, 120), pulser.last(t))
}

func TestFireDispatch(t *testing.T) {
	r, pulser, _, _ := newTestRouter()

	r.Notify(binding.KindFire, nil)
	assertProfile(t, haptics.NewProfile(0.42, 0.6, 100), pulser.last(t))

	r.Notify(binding.KindFire, []string{"AK-74"})
	assertProfile(t, haptics.NewProfile(0.5, 0.7, 80), pulser.last(t))

	r.Notify(binding.KindFire, []string{"Gun", "SV98"})
	assertProfile(t, haptics.NewProfile(1.0, 1.0, 300), pulser.last(t))

	r.Notify(binding.KindFire, []string{"unknown_weapon_xyz"})
	assertProfile(t, haptics.NewProfile(0.42, 0.6, 100), pulser.last(t))
	assert.Equal(t, "weapon:unknown", r.LastEvent())
}

func TestDeathAndWeaponSwitch(t *testing.T) {
	r, pulser, _, _ := newTestRouter()

	r.Notify(binding.KindDeath, []string{"ignored"})
	assertProfile(t, haptics.NewProfile(0.8, 0.6, 400), pulser.last(t))

	r.Notify(binding.KindWeaponSwitch, []string{"AK-74"})
	assertProfile(t, haptics.NewProfile(0.2, 0.3, 50), pulser.last(t))
	assert.Equal(t, "weapon_switch", r.LastEvent())
}

func TestDisabledIsNoop(t *testing.T) {
	r, pulser, opts, collector := newTestRouter()

	opts.Set(KeyEnabled, false)
	r.Notify(binding.KindFire, nil)
	res := r.OnKill(true)
	_, err := r.Preview("strong")
	require.NoError(t, err)

	assert.Empty(t, pulser.profiles)
	assert.Empty(t, collector.pulses)
	assert.Equal(t, haptics.ReasonDisabled, res.Reason)

	opts.Set(KeyEnabled, true)
	r.Notify(binding.KindFire, nil)
	assert.Len(t, pulser.profiles, 1)
}

func TestTunablesFollowOptions(t *testing.T) {
	r, pulser, opts, _ := newTestRouter()
	assert.Equal(t, DefaultTunables(), r.Tunables())

	opts.Set(KeyFireIntensity, 1.0)
	opts.Set(KeyFireDuration, 250)
	opts.Set(KeyDamageDuration, 50)

	r.OnFire()
	assertProfile(t, haptics.NewProfile(0.7, 1.0, 250), pulser.last(t))

	r.OnDeath()
	assert.Equal(t, 100*time.Millisecond, pulser.last(t).Duration)
}

func TestHandlerPanicAppliesDefault(t *testing.T) {
	r, pulser, _, collector := newTestRouter()
	pulser.panics = 1

	assert.NotPanics(t, func() {
		r.Notify(binding.KindKill, []string{"crit=1"})
	})

	assertProfile(t, haptics.NewProfile(0.42, 0.6, 100), pulser.last(t))
	require.Len(t, collector.pulses, 1)
	assert.Equal(t, "fallback", collector.pulses[0].Event)

	// A fault in the fallback itself is swallowed too
	pulser.panics = 2
	assert.NotPanics(t, func() {
		r.Notify(binding.KindFire, nil)
	})
}

func TestPreview(t *testing.T) {
	r, pulser, _, collector := newTestRouter()

	for _, name := range Presets() {
		res, err := r.Preview(name)
		require.NoError(t, err)
		assert.True(t, res.Issued)
	}
	require.Len(t, pulser.profiles, 3)
	assertProfile(t, haptics.NewProfile(0.2, 0.3, 200), pulser.profiles[0])
	assertProfile(t, haptics.NewProfile(0.5, 0.6, 300), pulser.profiles[1])
	assertProfile(t, haptics.NewProfile(0.9, 1.0, 500), pulser.profiles[2])
	assert.Equal(t, "preview:strong", collector.pulses[2].Event)

	_, err := r.Preview("earthquake")
	assert.True(t, errors.HasCode(err, ErrUnknownPreset))
}

func TestPulsesAreRecorded(t *testing.T) {
	r, _, _, collector := newTestRouter()

	r.OnKill(false)
	require.Len(t, collector.pulses, 1)

	p := collector.pulses[0]
	assert.Equal(t, "kill", p.Event)
	assert.Equal(t, "pad0", p.Device)
	assert.Equal(t, 120*time.Millisecond, p.Duration)
	assert.True(t, p.Issued)
	assert.Equal(t, "issued", p.Reason)
}

func TestNilCollector(t *testing.T) {
	r := New(&fakePulser{}, config.NewViperOptions(viper.New(), config.OptionsPrefix), nil)
	assert.True(t, r.OnFire().Issued)
}
