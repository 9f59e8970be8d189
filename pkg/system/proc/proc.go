//go:build linux

package proc

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ja7ad/scout/pkg/system/counter"
	"github.com/tklauser/go-sysconf"
)

// DefaultStatPath is the system-wide CPU accounting file.
const DefaultStatPath = "/proc/stat"

// SystemCPUFields is the number of leading jiffy columns of the aggregate cpu
// line that are summed: user nice system idle iowait irq softirq.
const SystemCPUFields = 7

const nanoPerSec = 1_000_000_000

// ClockTicks returns the number of jiffies (clock ticks) per second.
// It first checks the env var CLK_TCK (useful for testing), otherwise asks
// sysconf(_SC_CLK_TCK). It is meant to be called once at startup and the
// result injected wherever jiffies are converted.
func ClockTicks() (uint64, error) {
	if v, err := strconv.ParseUint(os.Getenv("CLK_TCK"), 10, 64); err == nil && v > 0 {
		return v, nil
	}
	v, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrClockTicks, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: sysconf returned %d", ErrClockTicks, v)
	}
	return uint64(v), nil
}

// TicksToNanos converts a jiffy count to nanoseconds for the given tick rate
// without overflowing for large tick counts.
func TicksToNanos(ticks, clockTicks uint64) uint64 {
	if clockTicks == 0 {
		return 0
	}
	return ticks/clockTicks*nanoPerSec + ticks%clockTicks*nanoPerSec/clockTicks
}

// ReadSystemTicks parses the aggregate cpu line of a /proc/stat formatted file
// and returns the sum of its first SystemCPUFields columns.
//
// The line is the first one whose first field is literally "cpu"; per-core
// lines (cpu0, cpu1, ...) never match.
func ReadSystemTicks(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", counter.ErrPath, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) == 0 || fs[0] != "cpu" {
			continue
		}
		if len(fs) < SystemCPUFields+1 {
			return 0, fmt.Errorf("%w: %d fields", ErrNoCPU, len(fs)-1)
		}
		var sum uint64
		for _, s := range fs[1 : SystemCPUFields+1] {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %w", counter.ErrParse, err)
			}
			sum += v
		}
		return sum, nil
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", counter.ErrPath, err)
	}
	return 0, ErrNoCPU
}

// ReadSystemUsage is ReadSystemTicks converted to nanoseconds.
func ReadSystemUsage(path string, clockTicks uint64) (uint64, error) {
	ticks, err := ReadSystemTicks(path)
	if err != nil {
		return 0, err
	}
	return TicksToNanos(ticks, clockTicks), nil
}
