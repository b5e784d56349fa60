package sensor

import (
	"fmt"

	"github.com/rs/zerolog"

	"meshbeacon/internal/mesh"
)

// NodeBattery reads the battery level the attached radio reports about
// itself. It piggybacks on an existing mesh session and never opens
// hardware of its own.
type NodeBattery struct {
	sess *mesh.Session
	log  zerolog.Logger
}

// NewNodeBattery returns a battery source backed by the radio's own
// device metrics.
func NewNodeBattery(sess *mesh.Session, log zerolog.Logger) *NodeBattery {
	return &NodeBattery{sess: sess, log: log}
}

func (s *NodeBattery) Kind() Kind { return KindBattery }

func (s *NodeBattery) Init() error {
	if s.sess == nil {
		return fmt.Errorf("node battery backend requires the session transport")
	}
	return nil
}

// Read returns the radio's last reported charge. The radio streams device
// metrics on its own schedule, so the level may be absent for the first
// cycles after connecting.
func (s *NodeBattery) Read() Reading {
	percent, ok := s.sess.BatteryLevel()
	if !ok {
		s.log.Debug().Msg("Radio has not reported battery metrics yet")
		return Absent(KindBattery)
	}
	return BatteryReading(percent)
}

// Close is a no-op: the session belongs to the transport.
func (s *NodeBattery) Close() error { return nil }
