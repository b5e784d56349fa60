// Package discovery locates the serial endpoint of an attached radio.
package discovery

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ErrNoDevice means no serial endpoints exist on this machine at all.
var ErrNoDevice = errors.New("no serial devices found")

// Fragments of USB-serial chipset names commonly found on mesh radios.
// Matched case-insensitively against the port name and USB product string.
var knownFragments = []string{"cp210", "ch340", "ch9102", "usb serial", "ttyusb", "ttyacm"}

// FindPort scans the available serial endpoints and returns the most
// likely radio port: the first one matching a known chipset fragment, or
// failing that, the first port present. Returns ErrNoDevice when the
// machine has no serial endpoints.
func FindPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", ErrNoDevice
	}

	for _, p := range ports {
		desc := strings.ToLower(p.Name + " " + p.Product)
		for _, frag := range knownFragments {
			if strings.Contains(desc, frag) {
				return p.Name, nil
			}
		}
	}

	return ports[0].Name, nil
}
