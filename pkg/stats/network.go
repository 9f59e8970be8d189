package stats

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ja7ad/scout/pkg/system/counter"
)

// DefaultSysfs is the sysfs mount point.
const DefaultSysfs = "/sys"

// NetworkSample holds the interface counters read on the latest update.
type NetworkSample struct {
	Interface string
	RxBytes   uint64
	RxPackets uint64
	TxBytes   uint64
	TxPackets uint64
}

// Network reads the statistics of one network interface from sysfs.
type Network struct {
	dir    string
	sample NetworkSample
}

// NewNetwork returns a sampler for iface under the sysfs root (normally
// DefaultSysfs).
func NewNetwork(sysfs, iface string) *Network {
	return &Network{
		dir:    filepath.Join(sysfs, "class", "net", iface, "statistics"),
		sample: NetworkSample{Interface: iface},
	}
}

func (n *Network) Sample() NetworkSample { return n.sample }

// Update rereads the four counters. Each one that cannot be read is 0 for
// this tick while the others keep their fresh values.
func (n *Network) Update() error {
	var errs []error
	read := func(name string) uint64 {
		v, err := counter.ReadUint64(filepath.Join(n.dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return 0
		}
		return v
	}

	n.sample.RxBytes = read("rx_bytes")
	n.sample.RxPackets = read("rx_packets")
	n.sample.TxBytes = read("tx_bytes")
	n.sample.TxPackets = read("tx_packets")
	return errors.Join(errs...)
}
