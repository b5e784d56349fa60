package sensor

import (
	"fmt"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// BME280 reads temperature and humidity from a Bosch BME280 over I²C.
type BME280 struct {
	addr uint16
	log  zerolog.Logger

	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// NewBME280 returns a climate source for a BME280 at the given I²C address
// on the default bus.
func NewBME280(addr int, log zerolog.Logger) *BME280 {
	return &BME280{addr: uint16(addr), log: log}
}

func (s *BME280) Kind() Kind { return KindClimate }

func (s *BME280) Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initializing periph host: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("opening I2C bus: %w", err)
	}

	dev, err := bmxx80.NewI2C(bus, s.addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return fmt.Errorf("probing BME280 at 0x%02x: %w", s.addr, err)
	}

	s.bus = bus
	s.dev = dev
	return nil
}

func (s *BME280) Read() Reading {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		s.log.Debug().Err(err).Msg("BME280 sense failed")
		return Absent(KindClimate)
	}

	// Humidity is fixed point at 0.00001 %rH precision.
	humidity := float64(env.Humidity) / 100000.0
	return ClimateReading(env.Temperature.Celsius(), humidity)
}

func (s *BME280) Close() error {
	var first error
	if s.dev != nil {
		if err := s.dev.Halt(); err != nil {
			first = err
		}
		s.dev = nil
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil && first == nil {
			first = err
		}
		s.bus = nil
	}
	return first
}
