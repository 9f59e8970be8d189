package stats

import (
	"fmt"

	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/ja7ad/scout/pkg/system/counter"
	"github.com/ja7ad/scout/pkg/system/proc"
	"github.com/ja7ad/scout/pkg/system/util"
)

const (
	cpuacctUsage       = "cpuacct.usage"
	cpuacctUsagePerCPU = "cpuacct.usage_percpu"
)

// CPUSample is the CPU state after the latest successful update.
type CPUSample struct {
	TotalUsage     uint64  // cgroup usage, ns
	SystemUsage    uint64  // host usage, ns
	InstantPercent float64 // usage over the last interval, 100 per core
	EMAPercent     float64 // smoothed InstantPercent
	SampleCount    uint64  // successful updates so far
}

// CPU derives container CPU utilization from cpuacct counters relative to the
// host-wide usage in /proc/stat.
type CPU struct {
	path       cgroup.Path
	statPath   string
	clockTicks uint64

	sample CPUSample
	ema    util.EMA
}

// NewCPU returns a sampler for the cpu controller path p. statPath is usually
// proc.DefaultStatPath; clockTicks comes from proc.ClockTicks.
func NewCPU(p cgroup.Path, statPath string, clockTicks uint64) *CPU {
	return &CPU{path: p, statPath: statPath, clockTicks: clockTicks}
}

// Sample returns a copy of the current state.
func (c *CPU) Sample() CPUSample { return c.sample }

// Update reads the counters once. When either the cgroup usage or the host
// usage cannot be read, the sample is left untouched and the error returned.
func (c *CPU) Update() error {
	usage, err := counter.ReadUint64(c.path.File(cpuacctUsage))
	if err != nil {
		return fmt.Errorf("cpu usage: %w", err)
	}
	system, err := proc.ReadSystemUsage(c.statPath, c.clockTicks)
	if err != nil {
		return fmt.Errorf("system cpu: %w", err)
	}

	cpuDelta := util.DeltaU64(usage, c.sample.TotalUsage)
	systemDelta := util.DeltaU64(system, c.sample.SystemUsage)

	var percent float64
	// the first sample has nothing to diff against
	if c.sample.SampleCount > 0 && cpuDelta > 0 && systemDelta > 0 {
		cores := c.cores()
		percent = util.Round2(util.SafeDiv(float64(cpuDelta), float64(systemDelta)) * float64(cores) * 100)
	}

	c.sample.InstantPercent = percent
	c.sample.EMAPercent = c.ema.Next(percent)
	c.sample.SampleCount = c.ema.Count()
	c.sample.TotalUsage = usage
	c.sample.SystemUsage = system
	return nil
}

func (c *CPU) cores() int {
	perCPU, err := counter.ReadUint64List(c.path.File(cpuacctUsagePerCPU))
	if err != nil {
		return 0
	}
	return len(perCPU)
}
