// Package monitor drives the samplers of one workload on a timer and pushes
// every snapshot to the subscribers that asked for it.
//
// A Monitor is an actor: Run owns the samplers and the subscriber set, and
// every other method only posts a message to its mailbox.
package monitor

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/ja7ad/scout/pkg/api"
	"github.com/ja7ad/scout/pkg/stats"
	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/ja7ad/scout/pkg/system/proc"
	"github.com/ja7ad/scout/pkg/transport"
	"github.com/ja7ad/scout/pkg/types"
)

const (
	DefaultID          = "process"
	DefaultInterval    = 2000 * time.Millisecond
	DefaultMailboxSize = 16
)

// ErrStopped is returned by queries once Run has returned.
var ErrStopped = errors.New("monitor: stopped")

// Config selects what a Monitor samples.
type Config struct {
	ID         string        // reported in every MetricReport
	CgroupPath string        // cgroup v1 mount, cgroup.DefaultBase when empty
	Group      string        // group under each controller
	Interface  string        // network interface, no network sampling when empty
	Interval   time.Duration // collect period
	ClockTicks uint64        // from proc.ClockTicks
	ProcStat   string        // proc.DefaultStatPath when empty
	Sysfs      string        // stats.DefaultSysfs when empty
	EnableIO   bool          // sample blkio.io_service_bytes
}

func (c Config) withDefaults() Config {
	if c.ID == "" {
		c.ID = DefaultID
	}
	if c.CgroupPath == "" {
		c.CgroupPath = cgroup.DefaultBase
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.ProcStat == "" {
		c.ProcStat = proc.DefaultStatPath
	}
	if c.Sysfs == "" {
		c.Sysfs = stats.DefaultSysfs
	}
	return c
}

// State is the lifecycle state of a Monitor.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

type (
	startMsg   struct{}
	stopMsg    struct{}
	killMsg    struct{}
	collectMsg struct{ generation uint64 }
	queryMsg   struct{ fn func() }
)

// Monitor samples one cgroup and broadcasts a Report per tick.
type Monitor struct {
	log       logr.Logger
	cfg       Config
	transport transport.Transport
	scheduler Scheduler
	metrics   *Metrics

	mailbox chan any
	done    chan struct{}

	// owned by Run
	state       State
	timer       Timer
	generation  uint64
	memory      *stats.Memory
	cpu         *stats.CPU
	network     *stats.Network
	io          *stats.IO
	subscribers []transport.Address
}

// New builds an idle Monitor. metrics may be nil, in which case unregistered
// metrics are used.
func New(logger logr.Logger, cfg Config, tr transport.Transport, scheduler Scheduler, metrics *Metrics) *Monitor {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = NewMetrics(nil, cfg.ID)
	}

	m := &Monitor{
		log:       logger.WithName("monitor").WithValues("id", cfg.ID),
		cfg:       cfg,
		transport: tr,
		scheduler: scheduler,
		metrics:   metrics,
		mailbox:   make(chan any, DefaultMailboxSize),
		done:      make(chan struct{}),
		memory:    stats.NewMemory(cgroup.New(cfg.CgroupPath, cgroup.Memory, cfg.Group)),
		cpu:       stats.NewCPU(cgroup.New(cfg.CgroupPath, cgroup.CPU, cfg.Group), cfg.ProcStat, cfg.ClockTicks),
	}
	if cfg.Interface != "" {
		m.network = stats.NewNetwork(cfg.Sysfs, cfg.Interface)
	}
	if cfg.EnableIO {
		m.io = stats.NewIO(cgroup.New(cfg.CgroupPath, cgroup.Blkio, cfg.Group))
	}
	return m
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

// Start schedules the collect timer.
func (m *Monitor) Start() { m.post(startMsg{}) }

// Stop cancels the collect timer. Subscribers are kept.
func (m *Monitor) Stop() { m.post(stopMsg{}) }

// Kill cancels the timer and ends Run.
func (m *Monitor) Kill() { m.post(killMsg{}) }

// Done is closed once Run has returned.
func (m *Monitor) Done() <-chan struct{} { return m.done }

// Subscribers returns a copy of the subscriber set in subscription order.
func (m *Monitor) Subscribers(ctx context.Context) ([]transport.Address, error) {
	return ask(ctx, m, func() []transport.Address {
		return slices.Clone(m.subscribers)
	})
}

// State reports whether the collect timer is scheduled.
func (m *Monitor) State(ctx context.Context) (State, error) {
	return ask(ctx, m, func() State { return m.state })
}

// Run processes the mailbox and the transport's inbound messages until ctx
// is done or Kill is handled. It must be called exactly once.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.done)
	defer m.cancelTimer()

	m.log.Info("monitor ready", "group", m.cfg.Group, "interval", m.cfg.Interval,
		"interface", m.cfg.Interface, "blkio", m.cfg.EnableIO, "addr", m.transport.Addr())

	inbound := m.transport.Inbound()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.mailbox:
			if !m.handle(msg) {
				m.log.Info("monitor killed")
				return nil
			}
		case env, ok := <-inbound:
			if !ok {
				m.log.V(1).Info("transport inbound closed")
				inbound = nil
				continue
			}
			m.receive(env)
		}
	}
}

// handle applies one mailbox message and reports whether Run should go on.
func (m *Monitor) handle(msg any) bool {
	switch msg := msg.(type) {
	case startMsg:
		m.start()
	case stopMsg:
		if m.cancelTimer() {
			m.log.Info("monitor stopped")
		}
	case killMsg:
		m.cancelTimer()
		return false
	case collectMsg:
		if m.state != Running || msg.generation != m.generation {
			m.log.V(2).Info("discarding stale tick", "generation", msg.generation)
			return true
		}
		m.collect()
	case queryMsg:
		msg.fn()
	}
	return true
}

func (m *Monitor) start() {
	if m.state == Running {
		m.log.V(1).Info("start ignored, already running")
		return
	}
	m.generation++
	gen := m.generation
	m.timer = m.scheduler.SchedulePeriodic(m.cfg.Interval, m.cfg.Interval, func() {
		m.tick(gen)
	})
	m.state = Running
	m.metrics.Running.Set(1)
	m.log.Info("monitor started", "interval", m.cfg.Interval)
}

// cancelTimer moves the Monitor to Idle and reports whether it was running.
func (m *Monitor) cancelTimer() bool {
	if m.state != Running {
		return false
	}
	m.timer.Cancel()
	m.timer = nil
	m.generation++
	m.state = Idle
	m.metrics.Running.Set(0)
	return true
}

// tick runs on the scheduler's goroutine and must not block.
func (m *Monitor) tick(generation uint64) {
	select {
	case m.mailbox <- collectMsg{generation: generation}:
	default:
		m.metrics.DroppedTicks.Inc()
		m.log.Info("mailbox full, dropping tick")
	}
}

func (m *Monitor) collect() {
	m.metrics.Collections.Inc()

	m.update("memory", m.memory.Update)
	m.update("cpu", m.cpu.Update)
	if m.network != nil {
		m.update("network", m.network.Update)
	}
	if m.io != nil {
		m.update("io", m.io.Update)
	}

	report := m.report()
	m.metrics.CPUPercent.Set(report.CPU.InstantPercent)
	m.metrics.MemoryPercent.Set(float64(report.Memory.Percent))
	m.log.V(1).Info("collected",
		"memoryLevel", report.Memory.Level.String(),
		"memoryPercent", report.Memory.Percent,
		"memoryUsage", types.Bytes(report.Memory.UsageBytes).Humanized(),
		"cpuPercent", report.CPU.InstantPercent,
		"cpuEMA", report.CPU.EMAPercent,
		"subscribers", len(m.subscribers),
	)

	payload := report.Message().Marshal()
	for _, sub := range m.subscribers {
		if err := m.transport.Send(sub, api.SerIDProtobuf, payload); err != nil {
			m.metrics.SendErrors.Inc()
			m.log.Info("report not delivered", "subscriber", sub, "err", err.Error())
			continue
		}
		m.metrics.ReportsSent.Inc()
	}
}

func (m *Monitor) update(sampler string, fn func() error) {
	if err := fn(); err != nil {
		m.metrics.SampleErrors.WithLabelValues(sampler).Inc()
		m.log.V(1).Info("sample fell back", "sampler", sampler, "err", err.Error())
	}
}

func (m *Monitor) report() Report {
	r := Report{
		ID:     m.cfg.ID,
		Memory: m.memory.Sample(),
		CPU:    m.cpu.Sample(),
	}
	if m.network != nil {
		s := m.network.Sample()
		r.Network = &s
	}
	if m.io != nil {
		s := m.io.Sample()
		r.IO = &s
	}
	return r
}

func (m *Monitor) receive(env transport.Envelope) {
	if _, err := api.DecodeSubscribe(env.SerID, env.Payload); err != nil {
		m.metrics.ProtocolErrors.Inc()
		m.log.Error(err, "unexpected message", "from", env.From, "serID", env.SerID, "size", len(env.Payload))
		return
	}
	m.subscribers = append(m.subscribers, env.From)
	m.metrics.Subscribers.Set(float64(len(m.subscribers)))
	m.log.Info("subscriber added", "subscriber", env.From, "subscribers", len(m.subscribers))
}

// post delivers a control message, waiting for mailbox space unless Run has
// already returned.
func (m *Monitor) post(msg any) {
	select {
	case m.mailbox <- msg:
	case <-m.done:
	}
}

// ask runs fn on Run's goroutine and hands its result back. The reply
// channel is buffered so an abandoned query never blocks Run.
func ask[T any](ctx context.Context, m *Monitor, fn func() T) (T, error) {
	var zero T
	reply := make(chan T, 1)
	msg := queryMsg{fn: func() { reply <- fn() }}

	select {
	case m.mailbox <- msg:
	case <-m.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-reply:
		return v, nil
	case <-m.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
