package monitor

import (
	"github.com/ja7ad/scout/pkg/api"
	"github.com/ja7ad/scout/pkg/stats"
)

// Report is one snapshot of the samplers, built fresh on every tick.
type Report struct {
	ID      string
	Memory  stats.MemorySample
	CPU     stats.CPUSample
	Network *stats.NetworkSample // nil without an interface
	IO      *stats.IOSample      // nil unless blkio sampling is enabled
}

// Message converts r to its wire form.
func (r Report) Message() *api.MetricReport {
	msg := &api.MetricReport{
		ID: r.ID,
		Memory: api.Memory{
			Usage: r.Memory.UsageBytes,
			Limit: r.Memory.LimitBytes,
		},
		CPU: api.CPU{
			Total:  r.CPU.TotalUsage,
			System: r.CPU.SystemUsage,
		},
	}
	if r.Network != nil {
		msg.Network = &api.Network{
			RxBytes:   r.Network.RxBytes,
			RxPackets: r.Network.RxPackets,
			TxBytes:   r.Network.TxBytes,
			TxPackets: r.Network.TxPackets,
		}
	}
	if r.IO != nil {
		msg.IO = &api.IO{Read: r.IO.ReadBytes, Write: r.IO.WriteBytes}
	}
	return msg
}
