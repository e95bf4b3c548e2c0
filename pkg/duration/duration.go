// Package duration provides canonical time constants for the probing engine.
// All timeout and threshold values live here so that probe timing, detector
// thresholds, and supervisor budgets stay consistent across packages.
package duration

import "time"

// HTTP probe timeouts.
const (
	// ProbeTimeout is the per-request transport timeout (single-digit
	// seconds by design: a hung probe must not stall the worker pool).
	ProbeTimeout = 8 * time.Second

	// BaselineTimeout is the timeout for the initial unmodified request.
	// Slightly longer than ProbeTimeout since the baseline also decides
	// whether the target is reachable at all.
	BaselineTimeout = 10 * time.Second
)

// Detector thresholds.
const (
	// SleepProbe is the delay injected by time-based payloads.
	SleepProbe = 5 * time.Second

	// TimingSlack is subtracted from the expected sleep when comparing
	// payload latency against the baseline, to absorb network jitter.
	TimingSlack = 1 * time.Second
)

// Supervisor budgets.
const (
	// ScanBudget is the default wall-clock budget for one assessment.
	ScanBudget = 10 * time.Minute

	// DrainGrace is how long the supervisor waits for in-flight probes
	// after cancellation before emitting the partial assessment.
	DrainGrace = 15 * time.Second
)
