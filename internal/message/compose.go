// Package message builds the human-readable beacon text from a cycle's
// sensor readings. It is pure: no I/O, no state, same input same output.
package message

import (
	"fmt"
	"strings"

	"meshbeacon/internal/sensor"
)

// Fallback is sent when no sensor contributes a field. The radio link
// should never carry an empty payload.
const Fallback = "Weather Station Online"

const separator = " | "

// Input is the set of readings for one beacon cycle. Enabled flags
// distinguish a sensor that is off (emit nothing) from one that is on but
// failed to read (emit its N/A form).
type Input struct {
	Battery        sensor.Reading
	BatteryEnabled bool
	Climate        sensor.Reading
	ClimateEnabled bool
}

// Compose renders the beacon text. Field order is fixed: battery first,
// then climate. Temperatures convert to Fahrenheit.
func Compose(in Input) string {
	var fields []string

	if in.BatteryEnabled {
		if in.Battery.Present {
			fields = append(fields, fmt.Sprintf("Bat: %d%%", in.Battery.Percent))
		} else {
			fields = append(fields, "Bat: N/A")
		}
	}

	if in.ClimateEnabled {
		switch {
		case in.Climate.Present && in.Climate.HasHumidity():
			f := celsiusToFahrenheit(in.Climate.TempC)
			fields = append(fields,
				fmt.Sprintf("Temp: %.1f°F", f),
				fmt.Sprintf("Hum: %.1f%%", in.Climate.Humidity))
		case in.Climate.Present:
			// temperature-only backends have no humidity channel
			fields = append(fields, fmt.Sprintf("Temp: %.1f°F", celsiusToFahrenheit(in.Climate.TempC)))
		default:
			fields = append(fields, "Temp/Hum: N/A")
		}
	}

	if len(fields) == 0 {
		return Fallback
	}
	return strings.Join(fields, separator)
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
