package sensor

import (
	"fmt"

	dht "github.com/d2r2/go-dht"
	"github.com/rs/zerolog"
)

// DHT22 reads temperature and humidity from a DHT22 one-wire sensor on a
// GPIO pin. These sensors are specified as occasionally unreadable at
// normal polling cadence; a failed read is expected and yields an absent
// reading, not an error.
type DHT22 struct {
	pin int
	log zerolog.Logger
}

// NewDHT22 returns a climate source for a DHT22 on the given GPIO pin.
func NewDHT22(pin int, log zerolog.Logger) *DHT22 {
	return &DHT22{pin: pin, log: log}
}

func (s *DHT22) Kind() Kind { return KindClimate }

// Init verifies the sensor answers at all. One successful handshake is
// enough; per-cycle glitches afterwards are tolerated.
func (s *DHT22) Init() error {
	if s.pin <= 0 {
		return fmt.Errorf("invalid GPIO pin %d", s.pin)
	}
	if _, _, _, err := dht.ReadDHTxxWithRetry(dht.DHT22, s.pin, false, 3); err != nil {
		return fmt.Errorf("probing DHT22 on GPIO%d: %w", s.pin, err)
	}
	return nil
}

func (s *DHT22) Read() Reading {
	temp, hum, err := dht.ReadDHTxx(dht.DHT22, s.pin, false)
	if err != nil {
		// one-wire checksum failures are normal for this sensor class
		s.log.Debug().Err(err).Int("gpio", s.pin).Msg("DHT22 read glitch")
		return Absent(KindClimate)
	}
	return ClimateReading(float64(temp), float64(hum))
}

func (s *DHT22) Close() error { return nil }
