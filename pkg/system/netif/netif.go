// Package netif looks up network interfaces by name.
package netif

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/net"
)

var ErrNotFound = errors.New("netif: no matching interface")

// Names lists the host's interfaces in kernel index order.
func Names() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names, nil
}

// Find returns the first interface whose name starts with prefix.
func Find(prefix string) (string, error) {
	names, err := Names()
	if err != nil {
		return "", err
	}
	return Match(names, prefix)
}

// Match returns the first of names starting with prefix.
func Match(names []string, prefix string) (string, error) {
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: prefix %q", ErrNotFound, prefix)
}
