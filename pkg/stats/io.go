package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/ja7ad/scout/pkg/system/counter"
)

const blkioServiceBytes = "blkio.io_service_bytes"

// IOSample holds the cumulative bytes read and written by the group.
type IOSample struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// IO parses the blkio service bytes of one group. The file is expected to
// start with
//
//	<major>:<minor> Read <bytes>
//	<major>:<minor> Write <bytes>
//
// and anything else leaves the previous sample in place.
type IO struct {
	path   cgroup.Path
	sample IOSample
}

func NewIO(p cgroup.Path) *IO {
	return &IO{path: p}
}

func (i *IO) Sample() IOSample { return i.sample }

// Update replaces both counters or neither.
func (i *IO) Update() error {
	s, err := ParseBlkioServiceBytes(i.path.File(blkioServiceBytes))
	if err != nil {
		return err
	}
	i.sample = s
	return nil
}

// ParseBlkioServiceBytes reads the Read and Write totals from the first two
// lines of a blkio.io_service_bytes file.
func ParseBlkioServiceBytes(path string) (IOSample, error) {
	lines, err := counter.ReadLines(path)
	if err != nil {
		return IOSample{}, fmt.Errorf("%w: %w", ErrBlkioParse, err)
	}
	if len(lines) < 2 {
		return IOSample{}, fmt.Errorf("%w: %d lines", ErrBlkioParse, len(lines))
	}
	read, err := blkioField(lines[0], "Read")
	if err != nil {
		return IOSample{}, err
	}
	write, err := blkioField(lines[1], "Write")
	if err != nil {
		return IOSample{}, err
	}
	return IOSample{ReadBytes: read, WriteBytes: write}, nil
}

func blkioField(line, op string) (uint64, error) {
	fs := strings.Fields(line)
	if len(fs) < 3 || fs[1] != op {
		return 0, fmt.Errorf("%w: want %s in %q", ErrBlkioParse, op, line)
	}
	v, err := strconv.ParseUint(fs[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBlkioParse, err)
	}
	return v, nil
}
