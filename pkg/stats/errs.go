package stats

import (
	"errors"

	"github.com/ja7ad/scout/pkg/system/counter"
	"github.com/ja7ad/scout/pkg/system/proc"
)

var (
	// ErrPath indicates that a counter file was missing or unreadable.
	ErrPath = counter.ErrPath

	// ErrParse indicates that a counter file held malformed text.
	ErrParse = counter.ErrParse

	// ErrCPUParse indicates that the system-wide cpu line was missing or short.
	ErrCPUParse = proc.ErrNoCPU

	// ErrBlkioParse indicates that blkio.io_service_bytes did not match the
	// two-line Read/Write layout.
	ErrBlkioParse = errors.New("stats: malformed blkio service bytes")
)
