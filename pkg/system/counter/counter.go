// Package counter reads single-value and list-valued text counters as exposed
// by cgroupfs, sysfs and procfs. Readers never retry; the caller picks the
// fallback when a read fails.
package counter

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadString returns the whole file at path with surrounding whitespace trimmed.
func ReadString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPath, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadUint64 parses the file at path as a single unsigned decimal integer.
func ReadUint64(path string) (uint64, error) {
	s, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return v, nil
}

// ReadUint64List parses the whitespace separated integers of the file at path,
// e.g. cpuacct.usage_percpu.
func ReadUint64List(path string) ([]uint64, error) {
	s, err := ReadString(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	out := make([]uint64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadLines returns the trimmed file split into lines.
func ReadLines(path string) ([]string, error) {
	s, err := ReadString(path)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\n"), nil
}
