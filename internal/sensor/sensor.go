// Package sensor defines the measurement sources feeding the beacon and
// their hardware backends.
package sensor

import "math"

// Kind identifies what a Source measures.
type Kind string

const (
	KindBattery Kind = "battery"
	KindClimate Kind = "climate"
)

// Reading is the result of one sensor poll. A reading is produced fresh
// each cycle and discarded after the message is composed; absent readings
// carry no values.
type Reading struct {
	Kind    Kind
	Present bool

	Percent int // battery charge, 0..100

	TempC    float64
	Humidity float64 // relative %, NaN when the backend has no humidity channel
}

// HasHumidity reports whether the reading carries a humidity value.
func (r Reading) HasHumidity() bool {
	return r.Present && !math.IsNaN(r.Humidity)
}

// Absent returns the absent reading for a kind.
func Absent(k Kind) Reading {
	return Reading{Kind: k}
}

// BatteryReading returns a present battery reading, clamped to 0..100.
func BatteryReading(percent int) Reading {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return Reading{Kind: KindBattery, Present: true, Percent: percent}
}

// ClimateReading returns a present climate reading.
func ClimateReading(tempC, humidity float64) Reading {
	return Reading{Kind: KindClimate, Present: true, TempC: tempC, Humidity: humidity}
}

// TempOnlyReading returns a present climate reading without humidity.
func TempOnlyReading(tempC float64) Reading {
	return Reading{Kind: KindClimate, Present: true, TempC: tempC, Humidity: math.NaN()}
}

// Source is a single measurement provider.
//
// Init probes the hardware once at startup; an error permanently disables
// the source for the process lifetime but never aborts the beacon. Read
// must not fail: backend glitches collapse to an absent Reading, and the
// next cycle polls again with no memory of the failure.
type Source interface {
	Kind() Kind
	Init() error
	Read() Reading
	Close() error
}
