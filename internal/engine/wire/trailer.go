package wire

import (
	"encoding/json"
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
)

// networkWindow is how recent a backend update must be for the trailer to
// count as network-available.
const networkWindow = 90 * time.Second

// RawTrailer is the backend's trailer resource shape.
type RawTrailer struct {
	ID                 string             `json:"id"`
	RegistrationNumber string             `json:"registration_number"`
	Make               string             `json:"make"`
	Model              string             `json:"model"`
	Status             any                `json:"status"`
	SpeditionCompany   string             `json:"spedition_company"`
	EngineRunning      bool               `json:"engine_running"`
	UpdatedAt          flexTime           `json:"updated_at"`
	CurrentPosition    *rawPosition       `json:"current_position"`
	AccessPermission   *rawPermissions    `json:"access_permission"`
	CameraSettings     []rawCameraSetting `json:"camera_settings"`
}

type rawPosition struct {
	Latitude     flexFloat `json:"latitude"`
	Longitude    flexFloat `json:"longitude"`
	Date         flexTime  `json:"date"`
	Speed        flexFloat `json:"speed"`
	Signal       flexFloat `json:"signal"`
	LocationName string    `json:"location_name"`
}

type rawPermissions struct {
	AlarmControl        bool `json:"alarm_control"`
	AlarmResolveControl bool `json:"alarm_resolve_control"`
	CurrentPosition     bool `json:"current_position"`
	EventLogAccess      bool `json:"event_log_access"`
	LoadInModeControl   bool `json:"load_in_mode_control"`
	MonitoringAccess    bool `json:"monitoring_access"`
	PhotoDownload       bool `json:"photo_download"`
	RouteAccess         bool `json:"route_access"`
	SensorAccess        bool `json:"sensor_access"`
	SystemArmControl    bool `json:"system_arm_control"`
	VideoDownload       bool `json:"video_download"`
}

type rawCameraSetting struct {
	CameraType  string   `json:"camera_type"`
	InstalledAt flexTime `json:"installed_at"`
}

// DecodeTrailer unmarshals one trailer payload and normalizes it into a
// store delta.
func DecodeTrailer(raw json.RawMessage, now time.Time) (*model.TrailerDelta, error) {
	var rt RawTrailer
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, err
	}
	return NormalizeTrailer(&rt, now), nil
}

// NormalizeTrailer converts a raw trailer record to a full field delta.
// network_available is derived here: the record must have been updated
// within the last 90 seconds.
func NormalizeTrailer(rt *RawTrailer, now time.Time) *model.TrailerDelta {
	status := state.StatusFromWire(rt.Status)
	plate := rt.RegistrationNumber
	name := rt.Make + " " + rt.Model
	company := rt.SpeditionCompany
	engine := rt.EngineRunning
	network := rt.UpdatedAt.Set && now.Sub(rt.UpdatedAt.Value) < networkWindow

	d := &model.TrailerDelta{
		ID:               model.TrailerID(rt.ID),
		PlateNumber:      &plate,
		Name:             &name,
		Company:          &company,
		Status:           &status,
		EngineRunning:    &engine,
		NetworkAvailable: &network,
	}
	if rt.UpdatedAt.Set {
		login := rt.UpdatedAt.Value
		d.LastLogin = &login
	}
	if rt.CurrentPosition != nil {
		d.Position = decodePosition(rt.CurrentPosition)
	}
	if rt.AccessPermission != nil {
		d.Permissions = decodePermissions(rt.AccessPermission)
	}
	if len(rt.CameraSettings) > 0 {
		cams := make(map[model.CameraID]time.Time, len(rt.CameraSettings))
		for _, cs := range rt.CameraSettings {
			if cs.InstalledAt.Set {
				cams[state.CameraFromWire(cs.CameraType)] = cs.InstalledAt.Value
			}
		}
		d.CameraInstallDates = cams
	}
	return d
}

func decodePosition(rp *rawPosition) *model.Position {
	return &model.Position{
		Latitude:  rp.Latitude.Value,
		Longitude: rp.Longitude.Value,
		HasFix:    rp.Latitude.Set && rp.Longitude.Set,
		Name:      rp.LocationName,
		Speed:     rp.Speed.Value,
		Signal:    rp.Signal.Value,
		Date:      rp.Date.Value,
	}
}

func decodePermissions(rp *rawPermissions) map[model.Permission]bool {
	return map[model.Permission]bool{
		model.PermAlarmControl:        rp.AlarmControl,
		model.PermAlarmResolveControl: rp.AlarmResolveControl,
		model.PermCurrentPosition:     rp.CurrentPosition,
		model.PermEventLogAccess:      rp.EventLogAccess,
		model.PermLoadInModeControl:   rp.LoadInModeControl,
		model.PermMonitoringAccess:    rp.MonitoringAccess,
		model.PermPhotoDownload:       rp.PhotoDownload,
		model.PermRouteAccess:         rp.RouteAccess,
		model.PermSensorAccess:        rp.SensorAccess,
		model.PermSystemArmControl:    rp.SystemArmControl,
		model.PermVideoDownload:       rp.VideoDownload,
	}
}
