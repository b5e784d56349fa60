// Package transport abstracts the radio link behind a single contract
// with three interchangeable delivery strategies: a stateful mesh
// session, a line-protocol serial channel, and an external command
// invocation.
package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Transport is one radio delivery strategy.
//
// Connect failure is fatal to the run: without a radio there is nothing
// to do. Send failure is transient: the caller logs it and the next
// cycle retries independently, at-most-once, no queue. Disconnect is
// idempotent and must be safe on a never-connected transport.
type Transport interface {
	Connect() error
	Send(text string) error
	Disconnect() error
}

// ErrNotConnected is returned by Send before Connect or after Disconnect.
var ErrNotConnected = errors.New("transport not connected")

// Destination is the canonical target of outbound messages: the 32-bit
// mesh node number. All other spellings convert to it at this boundary.
type Destination uint32

// Broadcast addresses every node in the mesh.
const Broadcast Destination = 0xffffffff

// Hex renders the destination in the "!hex" form radio firmwares accept.
func (d Destination) Hex() string {
	return fmt.Sprintf("!%08x", uint32(d))
}

func (d Destination) String() string {
	if d == Broadcast {
		return "broadcast"
	}
	return strconv.FormatUint(uint64(d), 10)
}

// Resolver maps a node name to its number, typically backed by the node
// registry.
type Resolver func(name string) (uint32, bool)

// ParseDestination converts a configured target spelling to the canonical
// Destination. Accepted forms: empty / "broadcast" / "all" for the
// broadcast sentinel, a decimal node number, a "!hex" node id, or a node
// name looked up through the resolver.
func ParseDestination(s string, resolve Resolver) (Destination, error) {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "", "broadcast", "all", "^all":
		return Broadcast, nil
	}

	if strings.HasPrefix(s, "!") {
		n, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid node id %q: %w", s, err)
		}
		return Destination(n), nil
	}

	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return Destination(n), nil
	}

	if resolve != nil {
		if n, ok := resolve(s); ok {
			return Destination(n), nil
		}
	}
	return 0, fmt.Errorf("unknown destination %q: not a node number, !hex id, or known node name", s)
}
