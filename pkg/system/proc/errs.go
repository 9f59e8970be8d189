package proc

import "errors"

var (
	// ErrNoCPU indicates that /proc/stat had no aggregate cpu line, or the
	// line was shorter than the label plus SystemCPUFields values.
	ErrNoCPU = errors.New("proc: malformed or missing cpu line")

	// ErrClockTicks indicates that the clock tick rate could not be determined.
	ErrClockTicks = errors.New("proc: clock ticks unavailable")
)
