package state

import (
	"fmt"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

// The backend speaks snake_case status strings and, on some push payloads,
// the numeric codes of the same enumeration. This file is the single
// mapping table between that vocabulary and the domain statuses; no other
// package may duplicate it.

var statusFromWire = map[string]model.TrailerStatus{
	"start_loading":        model.StatusStartLoading,
	"end_loading":          model.StatusEndLoading,
	"alarm":                model.StatusAlarm,
	"alarm_silenced":       model.StatusSilenced,
	"alarm_resolved":       model.StatusResolved,
	"alarm_off":            model.StatusOff,
	"armed":                model.StatusArmed,
	"disarmed":             model.StatusDisarmed,
	"quiet_alarm":          model.StatusQuiet,
	"emergency_call":       model.StatusEmergency,
	"warning":              model.StatusWarning,
	"truck_disconnected":   model.StatusTruckDisconnected,
	"truck_connected":      model.StatusTruckConnected,
	"shutdown_pending":     model.StatusShutdownPending,
	"shutdown_immediate":   model.StatusShutdownImmediate,
	"truck_battery_low":    model.StatusTruckBatteryLow,
	"truck_battery_normal": model.StatusTruckBatteryNormal,
	"engine_off":           model.StatusTruckEngineOff,
	"engine_on":            model.StatusTruckEngineOn,
	"parking_on":           model.StatusTruckParkingOn,
	"parking_off":          model.StatusTruckParkingOff,
	"ok":                   model.StatusOK,
}

var statusFromCode = map[int]model.TrailerStatus{
	0:  model.StatusStartLoading,
	1:  model.StatusEndLoading,
	2:  model.StatusAlarm,
	3:  model.StatusSilenced,
	4:  model.StatusOff,
	5:  model.StatusArmed,
	6:  model.StatusDisarmed,
	7:  model.StatusWarning,
	8:  model.StatusEmergency,
	9:  model.StatusQuiet,
	11: model.StatusTruckDisconnected,
	12: model.StatusTruckConnected,
	13: model.StatusShutdownPending,
	14: model.StatusShutdownImmediate,
	15: model.StatusTruckBatteryLow,
	16: model.StatusTruckBatteryNormal,
	17: model.StatusTruckEngineOff,
	18: model.StatusTruckEngineOn,
	19: model.StatusTruckParkingOn,
	20: model.StatusTruckParkingOff,
}

var statusToWire = map[model.TrailerStatus]string{
	model.StatusStartLoading:       "start_loading",
	model.StatusEndLoading:         "end_loading",
	model.StatusAlarm:              "alarm",
	model.StatusSilenced:           "alarm_silenced",
	model.StatusOff:                "alarm_off",
	model.StatusResolved:           "alarm_resolved",
	model.StatusArmed:              "armed",
	model.StatusDisarmed:           "disarmed",
	model.StatusQuiet:              "quiet_alarm",
	model.StatusEmergency:          "emergency_call",
	model.StatusWarning:            "warning",
	model.StatusTruckEngineOn:      "engine_on",
	model.StatusTruckEngineOff:     "engine_off",
	model.StatusTruckParkingOn:     "parking_on",
	model.StatusTruckParkingOff:    "parking_off",
	model.StatusShutdownImmediate:  "shutdown_immediate",
	model.StatusShutdownPending:    "shutdown_pending",
	model.StatusTruckBatteryLow:    "truck_battery_low",
	model.StatusTruckBatteryNormal: "truck_battery_normal",
	model.StatusTruckDisconnected:  "truck_disconnected",
	model.StatusTruckConnected:     "truck_connected",
}

// StatusFromWire decodes a backend status discriminant. Accepts the
// snake_case string form, the numeric code form (as JSON number or numeric
// string), and anything else decodes to StatusUnknown.
func StatusFromWire(v any) model.TrailerStatus {
	switch t := v.(type) {
	case string:
		if s, ok := statusFromWire[t]; ok {
			return s
		}
		// Numeric status delivered as a string.
		var code int
		if _, err := fmt.Sscanf(t, "%d", &code); err == nil {
			if s, ok := statusFromCode[code]; ok {
				return s
			}
		}
	case float64: // encoding/json decodes numbers to float64
		if s, ok := statusFromCode[int(t)]; ok {
			return s
		}
	case int:
		if s, ok := statusFromCode[t]; ok {
			return s
		}
	}
	return model.StatusUnknown
}

// StatusToWire encodes a status as its API parameter. Unknown and ok both
// encode as "ok", mirroring the backend contract.
func StatusToWire(s model.TrailerStatus) string {
	if w, ok := statusToWire[s]; ok {
		return w
	}
	return "ok"
}

var cameraFromWire = map[string]model.CameraID{
	"interior":     model.CameraInterior,
	"exterior":     model.CameraExterior,
	"left_top":     model.CameraLeftTop,
	"right_top":    model.CameraRightTop,
	"left_bottom":  model.CameraLeftBottom,
	"right_bottom": model.CameraRightBottom,
}

var cameraToWire = map[model.CameraID]string{
	model.CameraInterior:    "interior",
	model.CameraExterior:    "exterior",
	model.CameraLeftTop:     "left_top",
	model.CameraRightTop:    "right_top",
	model.CameraLeftBottom:  "left_bottom",
	model.CameraRightBottom: "right_bottom",
}

// CameraFromWire decodes a backend camera code. Unmapped codes default to
// the interior camera rather than dropping the asset.
func CameraFromWire(code string) model.CameraID {
	if c, ok := cameraFromWire[code]; ok {
		return c
	}
	return model.CameraInterior
}

// CameraToWire encodes a camera id as its API code.
func CameraToWire(c model.CameraID) string {
	if w, ok := cameraToWire[c]; ok {
		return w
	}
	return "interior"
}
