package message

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"meshbeacon/internal/sensor"
)

func TestCompose_BatteryPresent(t *testing.T) {
	for _, pct := range []int{0, 1, 42, 99, 100} {
		got := Compose(Input{
			Battery:        sensor.BatteryReading(pct),
			BatteryEnabled: true,
		})
		want := fmt.Sprintf("Bat: %d%%", pct)
		if got != want {
			t.Errorf("battery %d: got %q, want %q", pct, got, want)
		}
	}
}

func TestCompose_BatteryAbsent(t *testing.T) {
	got := Compose(Input{
		Battery:        sensor.Absent(sensor.KindBattery),
		BatteryEnabled: true,
	})
	if got != "Bat: N/A" {
		t.Errorf("got %q, want \"Bat: N/A\"", got)
	}
}

func TestCompose_ClimateFormatting(t *testing.T) {
	cases := []struct {
		tempC, hum float64
		want       string
	}{
		{0, 0, "Temp: 32.0°F | Hum: 0.0%"},
		{100, 100, "Temp: 212.0°F | Hum: 100.0%"},
		{21.5, 48.25, "Temp: 70.7°F | Hum: 48.2%"},
		{-40, 12.3, "Temp: -40.0°F | Hum: 12.3%"},
		{23.456, 55.555, "Temp: 74.2°F | Hum: 55.6%"},
	}
	for _, tc := range cases {
		got := Compose(Input{
			Climate:        sensor.ClimateReading(tc.tempC, tc.hum),
			ClimateEnabled: true,
		})
		if got != tc.want {
			t.Errorf("(%v, %v): got %q, want %q", tc.tempC, tc.hum, got, tc.want)
		}
	}
}

// Formatting the Fahrenheit value to one decimal must only round, never
// drift: re-deriving Celsius from the printed value has to land within
// 0.1 °C of the original.
func TestCompose_FahrenheitRoundTrip(t *testing.T) {
	for c := -40.0; c <= 60.0; c += 0.73 {
		got := Compose(Input{
			Climate:        sensor.ClimateReading(c, 50),
			ClimateEnabled: true,
		})

		var f float64
		if _, err := fmt.Sscanf(got, "Temp: %f°F", &f); err != nil {
			t.Fatalf("unparseable output %q: %v", got, err)
		}
		back := (f - 32) * 5 / 9
		if math.Abs(back-c) > 0.1 {
			t.Errorf("%.3f°C printed as %.1f°F, re-derives to %.3f°C (drift > 0.1)", c, f, back)
		}
	}
}

func TestCompose_ClimateEnabledButAbsent(t *testing.T) {
	got := Compose(Input{
		Climate:        sensor.Absent(sensor.KindClimate),
		ClimateEnabled: true,
	})
	if got != "Temp/Hum: N/A" {
		t.Errorf("got %q, want \"Temp/Hum: N/A\"", got)
	}
}

func TestCompose_TemperatureOnlyBackend(t *testing.T) {
	got := Compose(Input{
		Climate:        sensor.TempOnlyReading(25),
		ClimateEnabled: true,
	})
	if got != "Temp: 77.0°F" {
		t.Errorf("got %q, want \"Temp: 77.0°F\"", got)
	}
}

func TestCompose_FieldOrderBatteryFirst(t *testing.T) {
	got := Compose(Input{
		Battery:        sensor.BatteryReading(80),
		BatteryEnabled: true,
		Climate:        sensor.ClimateReading(20, 60),
		ClimateEnabled: true,
	})
	want := "Bat: 80% | Temp: 68.0°F | Hum: 60.0%"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompose_EverythingOffYieldsFallback(t *testing.T) {
	got := Compose(Input{})
	if got != Fallback {
		t.Errorf("got %q, want %q", got, Fallback)
	}
	if got == "" {
		t.Error("composer must never produce an empty payload")
	}
}

func TestCompose_DisabledSensorEmitsNothing(t *testing.T) {
	got := Compose(Input{
		Battery:        sensor.BatteryReading(50),
		BatteryEnabled: true,
		// climate disabled entirely: no Temp/Hum field at all
	})
	if strings.Contains(got, "Temp") || strings.Contains(got, "Hum") {
		t.Errorf("disabled climate leaked into %q", got)
	}
	if got != "Bat: "+strconv.Itoa(50)+"%" {
		t.Errorf("got %q, want \"Bat: 50%%\"", got)
	}
}
