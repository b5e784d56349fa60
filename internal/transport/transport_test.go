package transport

import (
	"testing"
)

func TestParseDestination(t *testing.T) {
	resolver := func(name string) (uint32, bool) {
		if name == "Barn Station" {
			return 0xa1b2c3d4, true
		}
		return 0, false
	}

	cases := []struct {
		in   string
		want Destination
	}{
		{"", Broadcast},
		{"broadcast", Broadcast},
		{"ALL", Broadcast},
		{"!ffffffff", Broadcast},
		{"2658499212", Destination(2658499212)},
		{"!9e6a2d0c", Destination(0x9e6a2d0c)},
		{"Barn Station", Destination(0xa1b2c3d4)},
		{" 42 ", Destination(42)},
	}
	for _, tc := range cases {
		got, err := ParseDestination(tc.in, resolver)
		if err != nil {
			t.Errorf("ParseDestination(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDestination(%q): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDestination_Invalid(t *testing.T) {
	for _, in := range []string{"!xyz", "not-a-node", "99999999999999999999"} {
		if _, err := ParseDestination(in, nil); err == nil {
			t.Errorf("ParseDestination(%q) must fail", in)
		}
	}
}

func TestDestinationHex(t *testing.T) {
	if got := Destination(0x9e6a2d0c).Hex(); got != "!9e6a2d0c" {
		t.Errorf("Hex: got %s, want !9e6a2d0c", got)
	}
	if got := Destination(42).Hex(); got != "!0000002a" {
		t.Errorf("Hex: got %s, want !0000002a", got)
	}
	if got := Broadcast.Hex(); got != "!ffffffff" {
		t.Errorf("broadcast Hex: got %s, want !ffffffff", got)
	}
}

func TestFormatSendText(t *testing.T) {
	got := FormatSendText(Broadcast, "Temp: 71.1°F | Hum: 45.0%")
	want := "AT+SENDTEXT=!ffffffff,Temp: 71.1°F | Hum: 45.0%\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
