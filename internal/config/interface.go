package config

import "context"

// Options is the live option store the haptics policy reads its tunables from.
// Keys are relative to the store's namespace; change callbacks receive the
// fully qualified key (for example "haptics.fire_intensity").
type Options interface {
	// GetBool returns the option value, or def when it is not set
	GetBool(key string, def bool) bool

	// GetFloat returns the option value, or def when it is not set
	GetFloat(key string, def float64) float64

	// GetInt returns the option value, or def when it is not set
	GetInt(key string, def int) int

	// Set stores a value and notifies change callbacks
	Set(key string, value any)

	// OnChanged registers a callback invoked with the qualified key of every
	// changed option
	OnChanged(callback func(key string))
}

// Watcher enables live option updates from the config file
type Watcher interface {
	// Watch starts watching the config file until ctx is done
	Watch(ctx context.Context) error

	// Dispatch applies pending file changes and runs change callbacks on the
	// calling goroutine
	Dispatch()
}

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envPrefix  string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "DUCKOVHAPTICS"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Backend names a controller backend
type Backend string

const (
	BackendSDL    Backend = "sdl"
	BackendXInput Backend = "xinput"
)

// IsValid returns whether the backend is known
func (b Backend) IsValid() bool {
	return b == BackendSDL || b == BackendXInput
}
