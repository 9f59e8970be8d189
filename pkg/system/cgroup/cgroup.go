//go:build linux

package cgroup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Controller names of the cgroup v1 subsystems the agent reads from.
const (
	CPU    = "cpu"
	Memory = "memory"
	Blkio  = "blkio"
)

// DefaultBase is where cgroup v1 hierarchies are conventionally mounted.
const DefaultBase = "/sys/fs/cgroup"

// Path locates the counter files of one controller for one group:
// <Base>/<Controller>/<Group>.
type Path struct {
	Base       string
	Controller string
	Group      string
}

// New returns the Path for controller under base for the given group.
func New(base, controller, group string) Path {
	return Path{Base: base, Controller: controller, Group: group}
}

// Dir returns the controller directory for the group.
func (p Path) Dir() string {
	return filepath.Join(p.Base, p.Controller, p.Group)
}

// File returns the full path of a counter file inside the group directory.
func (p Path) File(name string) string {
	return filepath.Join(p.Dir(), name)
}

func (p Path) String() string { return p.Dir() }

type Version int

const (
	Unsupported Version = iota // non-Linux or no cgroup mounts
	V1                         // legacy multi-hierarchy cgroup v1
	V2                         // unified cgroup v2
	Hybrid                     // both v1 and v2 present
)

func (v Version) String() string {
	switch v {
	case V1:
		return "cgroup v1"
	case V2:
		return "cgroup v2"
	case Hybrid:
		return "cgroup hybrid"
	default:
		return "unsupported"
	}
}

// HasV1Counters reports whether the v1 accounting files the samplers depend on
// are reachable for this version.
func (v Version) HasV1Counters() bool {
	return v == V1 || v == Hybrid
}

// Detect returns the detected cgroup version and a human-readable detail string.
//
// It parses /proc/self/mountinfo looking for cgroup filesystems.
func Detect() (Version, string, error) {
	return DetectFrom("/proc/self/mountinfo")
}

// DetectFrom is Detect reading an arbitrary mountinfo file.
// The line format has a " - fstype " separator; we only care about fstype.
func DetectFrom(mountinfo string) (Version, string, error) {
	f, err := os.Open(mountinfo)
	if err != nil {
		return Unsupported, "", fmt.Errorf("open mountinfo: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var (
		hasV1 bool
		hasV2 bool
		v1Pts []string
		v2Pts []string
		sc    = bufio.NewScanner(f)
	)
	for sc.Scan() {
		line := sc.Text()
		// mountinfo has: <fields> - <fstype> <source> <superopts>
		sep := " - "
		i := strings.LastIndex(line, sep)
		if i < 0 {
			continue
		}
		fields := strings.Fields(line[i+len(sep):])
		if len(fields) < 1 {
			continue
		}
		fstype := fields[0]

		// Ref: man 5 proc
		pre := strings.Fields(line[:i])
		if len(pre) < 5 {
			continue
		}
		mountPoint := pre[4]

		switch fstype {
		case "cgroup2":
			hasV2 = true
			v2Pts = append(v2Pts, mountPoint)
		case "cgroup":
			hasV1 = true
			v1Pts = append(v1Pts, mountPoint)
		}
	}
	if err := sc.Err(); err != nil {
		return Unsupported, "", fmt.Errorf("scan mountinfo: %w", err)
	}

	switch {
	case hasV1 && hasV2:
		return Hybrid, fmt.Sprintf("cgroup2 on %v; cgroup v1 on %v",
			strings.Join(v2Pts, ","), strings.Join(v1Pts, ",")), nil
	case hasV2:
		return V2, fmt.Sprintf("cgroup2 on %v", strings.Join(v2Pts, ",")), nil
	case hasV1:
		return V1, fmt.Sprintf("cgroup v1 on %v", strings.Join(v1Pts, ",")), nil
	default:
		return Unsupported, "no cgroup mounts found", nil
	}
}

// CheckGroup verifies that every controller directory of group exists under
// base. It returns the first missing directory as an error.
func CheckGroup(base, group string, controllers ...string) error {
	for _, c := range controllers {
		dir := New(base, c, group).Dir()
		st, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("cgroup %s: %w", c, err)
		}
		if !st.IsDir() {
			return fmt.Errorf("cgroup %s: %s is not a directory", c, dir)
		}
	}
	return nil
}
