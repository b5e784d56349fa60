package sensor

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/host"
)

// cpuSensorFragments mark thermal zones worth reporting, in preference
// order. Anything else falls back to the first zone with a sane value.
var cpuSensorFragments = []string{"coretemp", "cpu_thermal", "cpu-thermal", "k10temp", "soc_thermal"}

// HostClimate reports the machine's own thermal sensors as a degraded
// climate backend for radios deployed without an environmental sensor.
// It has no humidity channel.
type HostClimate struct {
	log zerolog.Logger
}

// NewHostClimate returns a climate source backed by host thermal zones.
func NewHostClimate(log zerolog.Logger) *HostClimate {
	return &HostClimate{log: log}
}

func (s *HostClimate) Kind() Kind { return KindClimate }

func (s *HostClimate) Init() error {
	stats, err := host.SensorsTemperatures()
	if err != nil {
		return fmt.Errorf("probing host thermal sensors: %w", err)
	}
	if len(stats) == 0 {
		return fmt.Errorf("no host thermal sensors present")
	}
	return nil
}

func (s *HostClimate) Read() Reading {
	stats, err := host.SensorsTemperatures()
	if err != nil || len(stats) == 0 {
		s.log.Debug().Err(err).Msg("Host thermal read failed")
		return Absent(KindClimate)
	}

	if t, ok := pickCPUTemperature(stats); ok {
		return TempOnlyReading(t)
	}
	return Absent(KindClimate)
}

func (s *HostClimate) Close() error { return nil }

func pickCPUTemperature(stats []host.TemperatureStat) (float64, bool) {
	for _, frag := range cpuSensorFragments {
		for _, st := range stats {
			if strings.Contains(strings.ToLower(st.SensorKey), frag) && st.Temperature != 0 {
				return st.Temperature, true
			}
		}
	}
	for _, st := range stats {
		if st.Temperature != 0 {
			return st.Temperature, true
		}
	}
	return 0, false
}
