package telemetry

import (
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
)

const (
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/duckovhaptics/telemetry.db"
	defaultBatchSize    = 32
	defaultBatchTimeout = 5 * time.Second

	// maxBufferFactor bounds the pending buffer to a multiple of the batch size
	maxBufferFactor = 8
)

type Config struct {
	DBPath       string
	BatchSize    int
	BatchTimeout time.Duration
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Enabled:      false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate storage settings if telemetry is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "batch_size must be positive")
	}
	if c.BatchTimeout <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "batch_timeout must be positive")
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
