package gate

import "time"

// GateBuilderOption is a functional option for configuring a Gate.
type GateBuilderOption func(*gateImpl)

// WithInterval sets the polling period. Non-positive values are ignored.
//
// Parameters:
//   - d: the period between probe checks
//
// Returns:
//   - GateBuilderOption: option function to apply
func WithInterval(d time.Duration) GateBuilderOption {
	return func(g *gateImpl) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithTimeout sets how long the gate polls before failing. Non-positive values are ignored.
//
// Parameters:
//   - d: the total wait
//
// Returns:
//   - GateBuilderOption: option function to apply
func WithTimeout(d time.Duration) GateBuilderOption {
	return func(g *gateImpl) {
		if d > 0 {
			g.timeout = d
		}
	}
}
