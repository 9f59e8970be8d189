// Package config loads the agent configuration from YAML. Command line flags
// are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/scout/pkg/monitor"
	"github.com/ja7ad/scout/pkg/stats"
	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/ja7ad/scout/pkg/system/proc"
)

// AutoInterface asks the agent to pick the first interface matching
// InterfacePrefix.
const AutoInterface = "auto"

// DefaultInterfacePrefix is what AutoInterface looks for.
const DefaultInterfacePrefix = "eth"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	ID          string `yaml:"id"`
	CgroupPath  string `yaml:"cgroup_path"`
	Group       string `yaml:"group"`
	Interface   string `yaml:"interface"`
	IntervalMS  int64  `yaml:"interval_ms"`
	Blkio       bool   `yaml:"blkio"`
	Listen      string `yaml:"listen"`
	MetricsAddr string `yaml:"metrics_addr"`
	ProcStat    string `yaml:"proc_stat"`
	Sysfs       string `yaml:"sysfs"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ID:         monitor.DefaultID,
		CgroupPath: cgroup.DefaultBase,
		Group:      monitor.DefaultID,
		IntervalMS: monitor.DefaultInterval.Milliseconds(),
		Listen:     "127.0.0.1:7070",
		ProcStat:   proc.DefaultStatPath,
		Sysfs:      stats.DefaultSysfs,
	}
}

// Load reads path over Default. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Group == "" {
		errs = append(errs, errors.New("group is required"))
	}
	if c.CgroupPath == "" {
		errs = append(errs, errors.New("cgroup_path is required"))
	}
	if c.IntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("interval_ms must be > 0, got %d", c.IntervalMS))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Monitor maps c to the collector configuration. iface is the resolved
// interface name, which differs from c.Interface when that is AutoInterface.
func (c Config) Monitor(iface string, clockTicks uint64) monitor.Config {
	return monitor.Config{
		ID:         c.ID,
		CgroupPath: c.CgroupPath,
		Group:      c.Group,
		Interface:  iface,
		Interval:   c.Interval(),
		ClockTicks: clockTicks,
		ProcStat:   c.ProcStat,
		Sysfs:      c.Sysfs,
		EnableIO:   c.Blkio,
	}
}
