package models

import "time"

// PoolConfig represents the configuration values recognized by the top-level
// connection pool and its per-host sub-pools.
type PoolConfig struct {
	// ConnectionsPerHost is how many connections each host sub-pool primes
	// and holds open.
	ConnectionsPerHost int `json:"ConnectionsPerHost"`

	// MaxTimeoutWhenExhausted bounds how long a single borrow attempt (across
	// all hosts tried by the selection strategy) may block.
	MaxTimeoutWhenExhausted time.Duration `json:"MaxTimeoutWhenExhausted"`

	// ShutdownGracePeriod bounds how long a draining host sub-pool waits for
	// outstanding borrows to return before it force-closes everything.
	ShutdownGracePeriod time.Duration `json:"ShutdownGracePeriod"`

	// RetryCount configures the default RetryNTimes policy used when no
	// RetryPolicyFactory is supplied explicitly.
	RetryCount int `json:"RetryCount"`

	// ErrorCheckConfig configures the per-host ErrorRateMonitor.
	ErrorCheckConfig ErrorCheckConfig `json:"ErrorCheckConfig"`

	// SleepOnErrorInterval paces the recovery worker's retries when a
	// replacement connection repeatedly fails to open.
	SleepOnErrorInterval time.Duration `json:"SleepOnErrorInterval"`
}

// Threshold is one error-rate rule: fire when more than Count errors are seen
// within Duration, then suppress refiring for Repeat seconds.
type Threshold struct {
	Count    int           `json:"Count"`
	Duration time.Duration `json:"Duration"`
	Repeat   time.Duration `json:"Repeat"`
}

// ErrorCheckConfig configures the sliding-window error-rate monitor kept per
// host by the connection pool health tracker. The monitor is purely
// event-driven: every observed connection error evaluates the thresholds
// inline, so there is no separate polling frequency to configure.
type ErrorCheckConfig struct {
	Window         time.Duration `json:"Window"`
	SuppressWindow time.Duration `json:"SuppressWindow"`
	Thresholds     []Threshold   `json:"Thresholds"`
}

// DefaultPoolConfig mirrors the teacher's sane-default seasoning: a handful
// of connections per host, a short exhaustion timeout, and an error-rate rule
// that trips after ten errors in a one-second window.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		ConnectionsPerHost:      3,
		MaxTimeoutWhenExhausted: 2 * time.Second,
		ShutdownGracePeriod:     5 * time.Second,
		RetryCount:              3,
		SleepOnErrorInterval:    100 * time.Millisecond,
		ErrorCheckConfig: ErrorCheckConfig{
			Window:         10 * time.Second,
			SuppressWindow: 60 * time.Second,
			Thresholds: []Threshold{
				{Count: 10, Duration: time.Second, Repeat: 100 * time.Second},
			},
		},
	}
}
