package sensor

import (
	"fmt"

	"github.com/distatus/battery"
	"github.com/rs/zerolog"
)

// HostBattery reads the charge of the machine running the beacon, for
// deployments where the radio has no battery telemetry of its own.
type HostBattery struct {
	log zerolog.Logger
}

// NewHostBattery returns a battery source backed by the host's power
// supply information.
func NewHostBattery(log zerolog.Logger) *HostBattery {
	return &HostBattery{log: log}
}

func (s *HostBattery) Kind() Kind { return KindBattery }

// Init probes for a battery once; machines without one (desktops, most
// SBCs) disable this source for the run.
func (s *HostBattery) Init() error {
	// GetAll may report partial errors while still returning batteries;
	// only a completely empty result disables the source.
	bats, err := battery.GetAll()
	if len(bats) == 0 {
		if err != nil {
			return fmt.Errorf("probing host batteries: %w", err)
		}
		return fmt.Errorf("no host battery present")
	}
	return nil
}

func (s *HostBattery) Read() Reading {
	bats, err := battery.GetAll()
	if len(bats) == 0 {
		s.log.Debug().Err(err).Msg("Host battery read failed")
		return Absent(KindBattery)
	}
	b := bats[0]
	if b.Full <= 0 {
		return Absent(KindBattery)
	}
	return BatteryReading(int(b.Current / b.Full * 100))
}

func (s *HostBattery) Close() error { return nil }
