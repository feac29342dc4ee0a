package config_test

import (
	"context"
	"os"
	"testing"

	"codeberg.org/mutker/duckovhaptics/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	opts := config.NewViperOptions(viper.New(), "haptics")

	assert.True(t, opts.GetBool("enabled", true))
	assert.InDelta(t, 0.6, opts.GetFloat("fire_intensity", 0.6), 1e-9)
	assert.Equal(t, 100, opts.GetInt("fire_duration", 100))
}

func TestOptionsSetNotifies(t *testing.T) {
	opts := config.NewViperOptions(viper.New(), "haptics")

	var keys []string
	opts.OnChanged(func(key string) { keys = append(keys, key) })

	opts.Set("Fire_Intensity", 0.25)
	opts.Set("enabled", false)

	assert.Equal(t, []string{"haptics.fire_intensity", "haptics.enabled"}, keys)
	assert.InDelta(t, 0.25, opts.GetFloat("fire_intensity", 0.6), 1e-9)
	assert.False(t, opts.GetBool("enabled", true))
}

func TestOptionsDispatchReportsFileChanges(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
[haptics]
fire_intensity = 0.5
fire_duration = 100
`)
	cfg, err := config.Load([]string{"--config", path})
	require.NoError(t, err)

	opts := cfg.Options()
	var keys []string
	opts.OnChanged(func(key string) { keys = append(keys, key) })

	// Nothing flagged yet
	opts.Dispatch()
	assert.Empty(t, keys)

	require.NoError(t, os.WriteFile(path, []byte(`
[haptics]
fire_intensity = 0.9
fire_duration = 100
`), 0o600))
	opts.MarkChanged()
	opts.Dispatch()

	assert.Equal(t, []string{"haptics.fire_intensity"}, keys)
	assert.InDelta(t, 0.9, opts.GetFloat("fire_intensity", 0), 1e-9)

	// The flag is consumed
	opts.Dispatch()
	assert.Len(t, keys, 1)
}

func TestOptionsWatchWithoutFile(t *testing.T) {
	opts := config.NewViperOptions(viper.New(), "haptics")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, opts.Watch(ctx))
}
