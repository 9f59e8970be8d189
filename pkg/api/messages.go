// Package api defines the two messages exchanged between the agent and its
// subscribers and their protobuf wire encoding:
//
//	message Subscribe {}
//
//	message MetricReport {
//	  string  id      = 1;
//	  Memory  memory  = 2; // usage = 1, limit = 2
//	  Cpu     cpu     = 3; // total = 1, system = 2
//	  Network network = 4; // rx_bytes = 1, rx_packets = 2, tx_bytes = 3, tx_packets = 4
//	  Io      io      = 5; // read = 1, write = 2
//	}
//
// Payloads carry no framing; the transport pairs each one with SerIDProtobuf.
package api

// SerIDProtobuf tags payloads serialized by this package.
const SerIDProtobuf uint64 = 20

// Subscribe asks the receiver to push MetricReports to the sender.
type Subscribe struct{}

type Memory struct {
	Usage uint64
	Limit uint64
}

type CPU struct {
	Total  uint64
	System uint64
}

type Network struct {
	RxBytes   uint64
	RxPackets uint64
	TxBytes   uint64
	TxPackets uint64
}

type IO struct {
	Read  uint64
	Write uint64
}

// MetricReport is one snapshot of a monitored workload. Network and IO are
// nil when the agent does not sample them.
type MetricReport struct {
	ID      string
	Memory  Memory
	CPU     CPU
	Network *Network
	IO      *IO
}
