// Package proc reads the host-wide counters the per-container samplers need
// as a reference: the aggregate cpu line of /proc/stat and the scheduler
// clock tick rate used to turn its jiffies into nanoseconds.
//
// # Clock ticks
//
// ClockTicks asks sysconf(_SC_CLK_TCK) (via github.com/tklauser/go-sysconf,
// no cgo). A CLK_TCK environment variable overrides it, which keeps tests
// hermetic. The value is computed once at startup and injected; a failure is
// fatal for the agent.
//
// # System CPU
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// ReadSystemTicks sums the first seven columns (user..softirq). Fewer than
// seven columns is ErrNoCPU, a non-numeric column wraps counter.ErrParse.
//
//	ticks := 200 // "cpu 100 0 100 0 0 0 0"
//	ns := TicksToNanos(ticks, 100) // 2_000_000_000
//
// Package import path: github.com/ja7ad/scout/pkg/system/proc
package proc
