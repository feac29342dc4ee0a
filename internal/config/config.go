package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval   = 16
	DefaultLogLevel   = string(LogLevelWarning)
	DefaultBackend    = string(BackendSDL)
	DefaultNamespace  = "Duckov"
	DefaultStaleAfter = 1000

	// OptionsPrefix is the namespace haptic tunables live under
	OptionsPrefix = "haptics"

	configName      = "duckovhaptics"
	defaultEnv      = "DUCKOVHAPTICS"
	defaultDBPath   = "/var/lib/duckovhaptics/telemetry.db"
	defaultBatch    = 32
	defaultBatchAge = 5 * time.Second
)

type Config struct {
	Interval   int    `mapstructure:"interval_ms"`
	LogLevel   string `mapstructure:"log_level"`
	Backend    string `mapstructure:"backend"`
	Namespace  string `mapstructure:"namespace"`
	StaleAfter int    `mapstructure:"stale_after_ms"`
	Monitor    bool   `mapstructure:"monitor"`
	Pulse      string `mapstructure:"pulse"`
	Weapon     string `mapstructure:"weapon"`
	Console    bool   `mapstructure:"console"`

	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	v    *viper.Viper
	opts *ViperOptions
}

type TelemetryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	DBPath       string        `mapstructure:"db_path"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// Load reads configuration from defaults, the config file, the environment
// and the given command line arguments, in increasing order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: defaultEnv}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	// Define flags
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to the config file")
	debugFlag := fs.Bool("debug", false, "Enable debugging mode")
	verboseFlag := fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Int("interval", DefaultInterval, "Frame interval in milliseconds")
	fs.String("backend", DefaultBackend, "Controller backend (sdl, xinput)")
	fs.String("namespace", DefaultNamespace, "Host namespace tried after the bare type name")
	fs.Bool("monitor", false, "Only log controller activity")
	fs.String("pulse", "", "Play a preview pulse and exit (light, medium, strong, fire, kill, headshot, death, switch)")
	fs.String("weapon", "", "Play the fire pulse for the given weapon name and exit")
	fs.Bool("console", false, "Read simulated game events from standard input")
	fs.Bool("telemetry", false, "Record pulses to the telemetry database")

	// Parse flags
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	for key, name := range map[string]string{
		"log_level":         "log-level",
		"interval_ms":       "interval",
		"backend":           "backend",
		"namespace":         "namespace",
		"monitor":           "monitor",
		"pulse":             "pulse",
		"weapon":            "weapon",
		"console":           "console",
		"telemetry.enabled": "telemetry",
	} {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	// Environment
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load configuration from file
	path := o.configPath
	if *configFlag != "" {
		path = *configFlag
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}
	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	// Apply debug and verbose flags
	if *debugFlag {
		v.Set("log_level", string(LogLevelDebug))
	} else if *verboseFlag && !fs.Changed("log-level") && !v.InConfig("log_level") {
		v.Set("log_level", string(LogLevelInfo))
	}

	// Unmarshal the configuration
	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval_ms", DefaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("namespace", DefaultNamespace)
	v.SetDefault("stale_after_ms", DefaultStaleAfter)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.db_path", defaultDBPath)
	v.SetDefault("telemetry.batch_size", defaultBatch)
	v.SetDefault("telemetry.batch_timeout", defaultBatchAge)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if !Backend(c.Backend).IsValid() {
		return errFactory.WithData(errors.ErrInvalidBackend, c.Backend)
	}
	if c.StaleAfter <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "stale_after_ms must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.DBPath == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "telemetry.db_path is required when telemetry is enabled")
	}

	return nil
}

// FrameInterval returns the update interval as a duration
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// StaleAfterDuration returns the multi-controller input timeout
func (c *Config) StaleAfterDuration() time.Duration {
	return time.Duration(c.StaleAfter) * time.Millisecond
}

// FileUsed returns the config file that was read, if any
func (c *Config) FileUsed() string {
	return c.v.ConfigFileUsed()
}

// Options returns the haptic option store backed by this configuration
func (c *Config) Options() *ViperOptions {
	if c.opts == nil {
		c.opts = NewViperOptions(c.v, OptionsPrefix)
	}

	return c.opts
}
