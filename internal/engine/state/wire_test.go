package state

import (
	"testing"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

func TestStatusFromWireForms(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want model.TrailerStatus
	}{
		{"string form", "alarm", model.StatusAlarm},
		{"silenced string", "alarm_silenced", model.StatusSilenced},
		{"quiet string", "quiet_alarm", model.StatusQuiet},
		{"numeric code", float64(2), model.StatusAlarm},
		{"int code", 9, model.StatusQuiet},
		{"numeric string", "14", model.StatusShutdownImmediate},
		{"ok", "ok", model.StatusOK},
		{"unmapped string", "does_not_exist", model.StatusUnknown},
		{"unmapped code", float64(99), model.StatusUnknown},
		{"nil", nil, model.StatusUnknown},
		{"bool", true, model.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromWire(tt.in); got != tt.want {
				t.Errorf("StatusFromWire(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatusCodeAndStringAgree(t *testing.T) {
	pairs := map[int]string{
		0: "start_loading", 1: "end_loading", 2: "alarm", 3: "alarm_silenced",
		4: "alarm_off", 5: "armed", 6: "disarmed", 7: "warning",
		8: "emergency_call", 9: "quiet_alarm", 11: "truck_disconnected",
		12: "truck_connected", 13: "shutdown_pending", 14: "shutdown_immediate",
		15: "truck_battery_low", 16: "truck_battery_normal", 17: "engine_off",
		18: "engine_on", 19: "parking_on", 20: "parking_off",
	}
	for code, str := range pairs {
		byCode := StatusFromWire(float64(code))
		byString := StatusFromWire(str)
		if byCode != byString {
			t.Errorf("code %d decodes to %s but %q decodes to %s", code, byCode, str, byString)
		}
	}
}

func TestStatusToWireRoundTrip(t *testing.T) {
	for _, s := range model.AllStatuses {
		encoded := StatusToWire(s)
		decoded := StatusFromWire(encoded)

		switch s {
		case model.StatusUnknown:
			// unknown encodes as ok and stays there
			if encoded != "ok" || decoded != model.StatusOK {
				t.Errorf("unknown: encoded %q, decoded %s", encoded, decoded)
			}
		case model.StatusNetworkOn, model.StatusNetworkOff:
			// derived statuses have no wire form
			if encoded != "ok" {
				t.Errorf("%s: encoded %q, want ok", s, encoded)
			}
		default:
			if decoded != s {
				t.Errorf("%s: round-trip through %q gives %s", s, encoded, decoded)
			}
		}
	}
}

func TestCameraCodec(t *testing.T) {
	cameras := []model.CameraID{
		model.CameraInterior, model.CameraExterior,
		model.CameraLeftTop, model.CameraRightTop,
		model.CameraLeftBottom, model.CameraRightBottom,
	}
	for _, c := range cameras {
		if got := CameraFromWire(CameraToWire(c)); got != c {
			t.Errorf("camera %s does not round-trip, got %s", c, got)
		}
	}
	if got := CameraFromWire("periscope"); got != model.CameraInterior {
		t.Errorf("unmapped camera code decoded to %s, want interior fallback", got)
	}
}
