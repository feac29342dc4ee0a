package haptics

import (
	"fmt"
	"time"
)

// Profile describes one two-motor pulse. Low drives the low-frequency
// (left) motor, High the high-frequency (right) motor.
type Profile struct {
	Low      float64
	High     float64
	Duration time.Duration
}

// NewProfile builds a profile from a millisecond duration; negative durations
// become zero.
func NewProfile(low, high float64, durationMs int) Profile {
	if durationMs < 0 {
		durationMs = 0
	}

	return Profile{
		Low:      low,
		High:     high,
		Duration: time.Duration(durationMs) * time.Millisecond,
	}
}

// Clamped returns the profile with both intensities limited to [0, 1]
func (p Profile) Clamped() Profile {
	p.Low = clamp01(p.Low)
	p.High = clamp01(p.High)
	if p.Duration < 0 {
		p.Duration = 0
	}

	return p
}

// Scaled returns the profile with its duration multiplied by factor
func (p Profile) Scaled(factor int) Profile {
	p.Duration *= time.Duration(factor)
	return p
}

func (p Profile) String() string {
	return fmt.Sprintf("low=%.2f high=%.2f dur=%s", p.Low, p.High, p.Duration)
}

func clamp01(v float64) float64 {
	// NaN compares false both ways; treat it as off
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}
