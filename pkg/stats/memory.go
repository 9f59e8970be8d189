package stats

import (
	"errors"
	"fmt"

	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/ja7ad/scout/pkg/system/counter"
	"github.com/ja7ad/scout/pkg/system/util"
)

const (
	memoryUsage = "memory.usage_in_bytes"
	memoryLimit = "memory.limit_in_bytes"
)

// Upper bounds (inclusive, in percent) of the memory levels.
const (
	LowThreshold    = 30
	MediumThreshold = 60
	HighThreshold   = 95
)

// MemoryLevel bands memory usage relative to the limit.
type MemoryLevel int

const (
	Low MemoryLevel = iota
	Medium
	High
	Critical
)

func (l MemoryLevel) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "critical"
	}
}

// LevelOf maps a usage percentage to its level.
func LevelOf(percent float32) MemoryLevel {
	switch {
	case percent <= LowThreshold:
		return Low
	case percent <= MediumThreshold:
		return Medium
	case percent <= HighThreshold:
		return High
	default:
		return Critical
	}
}

// MemorySample is the memory state after the latest update.
type MemorySample struct {
	UsageBytes uint64
	LimitBytes uint64
	Percent    float32 // 0..100, 0 when the limit is unknown
	Level      MemoryLevel
}

// Memory reads the memory controller usage and limit of one group.
type Memory struct {
	path   cgroup.Path
	sample MemorySample
}

func NewMemory(p cgroup.Path) *Memory {
	return &Memory{path: p}
}

func (m *Memory) Sample() MemorySample { return m.sample }

// Update rereads usage and limit. The limit is read every tick since it can
// be changed while the container runs. An unreadable counter counts as 0;
// the returned error only reports what was defaulted.
func (m *Memory) Update() error {
	var errs []error

	usage, err := counter.ReadUint64(m.path.File(memoryUsage))
	if err != nil {
		errs = append(errs, fmt.Errorf("memory usage: %w", err))
	}
	limit, err := counter.ReadUint64(m.path.File(memoryLimit))
	if err != nil {
		errs = append(errs, fmt.Errorf("memory limit: %w", err))
	}

	var percent float32
	if limit != 0 {
		ratio := util.Clamp01(float64(usage) / float64(limit))
		percent = float32(util.Round2(ratio * 100))
	}

	m.sample = MemorySample{
		UsageBytes: usage,
		LimitBytes: limit,
		Percent:    percent,
		Level:      LevelOf(percent),
	}
	return errors.Join(errs...)
}
