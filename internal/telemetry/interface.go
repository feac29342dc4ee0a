package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, pulse *Pulse) error
	Close() error
	Enabled() bool
}

// Repository defines the interface for pulse storage
type Repository interface {
	Record(pulse *Pulse) error
	Close() error
}

// Pulse is one pulse request and its outcome
type Pulse struct {
	Timestamp time.Time
	Event     string
	Device    string
	Low       float64
	High      float64
	Duration  time.Duration
	Issued    bool
	Reason    string
}
