package model

import "time"

// TrailerID uniquely identifies a trailer within the fleet.
type TrailerID string

// TrailerEventID uniquely identifies a single trailer event.
type TrailerEventID string

// MediaID uniquely identifies a camera media asset.
type MediaID string

// TrailerStatus is the closed set of operational states a trailer (or one of
// its events) can be in. The zero value is StatusUnknown.
type TrailerStatus string

const (
	StatusUnknown            TrailerStatus = "unknown"
	StatusStartLoading       TrailerStatus = "startLoading"
	StatusEndLoading         TrailerStatus = "endLoading"
	StatusAlarm              TrailerStatus = "alarm"
	StatusSilenced           TrailerStatus = "silenced"
	StatusOff                TrailerStatus = "off"
	StatusResolved           TrailerStatus = "resolved"
	StatusArmed              TrailerStatus = "armed"
	StatusDisarmed           TrailerStatus = "disarmed"
	StatusQuiet              TrailerStatus = "quiet"
	StatusEmergency          TrailerStatus = "emergency"
	StatusWarning            TrailerStatus = "warning"
	StatusOK                 TrailerStatus = "ok"
	StatusTruckEngineOn      TrailerStatus = "truckEngineOn"
	StatusTruckEngineOff     TrailerStatus = "truckEngineOff"
	StatusTruckParkingOn     TrailerStatus = "truckParkingOn"
	StatusTruckParkingOff    TrailerStatus = "truckParkingOff"
	StatusNetworkOn          TrailerStatus = "networkOn"
	StatusNetworkOff         TrailerStatus = "networkOff"
	StatusTruckConnected     TrailerStatus = "truckConnected"
	StatusTruckDisconnected  TrailerStatus = "truckDisconnected"
	StatusShutdownPending    TrailerStatus = "shutdownPending"
	StatusShutdownImmediate  TrailerStatus = "shutdownImmediate"
	StatusTruckBatteryLow    TrailerStatus = "truckBatteryLow"
	StatusTruckBatteryNormal TrailerStatus = "truckBatteryNormal"
)

// AllStatuses lists every TrailerStatus value. Used by classification tests
// and the reference-table CLI command.
var AllStatuses = []TrailerStatus{
	StatusStartLoading, StatusEndLoading,
	StatusAlarm, StatusSilenced, StatusOff, StatusResolved,
	StatusArmed, StatusDisarmed,
	StatusQuiet, StatusEmergency, StatusWarning,
	StatusOK, StatusUnknown,
	StatusTruckEngineOn, StatusTruckEngineOff,
	StatusTruckParkingOn, StatusTruckParkingOff,
	StatusNetworkOn, StatusNetworkOff,
	StatusTruckConnected, StatusTruckDisconnected,
	StatusShutdownPending, StatusShutdownImmediate,
	StatusTruckBatteryLow, StatusTruckBatteryNormal,
}

// Category is the coarse grouping of a TrailerStatus used for filtering and
// display colouring.
type Category string

const (
	CategoryArmed   Category = "armed"
	CategoryLoading Category = "loading"
	CategoryAlarm   Category = "alarm"
	CategoryParking Category = "parking"
	CategoryNormal  Category = "normal"
	CategoryWarning Category = "warning"
	CategoryNetwork Category = "network"
	CategoryUnknown Category = "unknown"
)

// CameraID identifies one of the six cameras installed on a trailer.
type CameraID string

const (
	CameraInterior    CameraID = "interior"
	CameraExterior    CameraID = "exterior"
	CameraLeftTop     CameraID = "leftTop"
	CameraRightTop    CameraID = "rightTop"
	CameraLeftBottom  CameraID = "leftBottom"
	CameraRightBottom CameraID = "rightBottom"
)

// MediaKind distinguishes photo frames from video clips.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Permission is a per-trailer capability flag granted to the session.
type Permission string

const (
	PermAlarmControl        Permission = "alarmControl"
	PermAlarmResolveControl Permission = "alarmResolveControl"
	PermCurrentPosition     Permission = "currentPosition"
	PermEventLogAccess      Permission = "eventLogAccess"
	PermLoadInModeControl   Permission = "loadInModeControl"
	PermMonitoringAccess    Permission = "monitoringAccess"
	PermPhotoDownload       Permission = "photoDownload"
	PermRouteAccess         Permission = "routeAccess"
	PermSensorAccess        Permission = "sensorAccess"
	PermSystemArmControl    Permission = "systemArmControl"
	PermVideoDownload       Permission = "videoDownload"
)

// Position is a GPS fix with the metadata the backend attaches to it.
type Position struct {
	Latitude  float64
	Longitude float64
	HasFix    bool
	Name      string
	Speed     float64
	Signal    float64
	Date      time.Time
}

// Trailer is the core fleet entity. Records are created on first sight
// (REST snapshot or push delta) and never deleted within a session.
type Trailer struct {
	ID          TrailerID
	PlateNumber string
	Name        string
	Company     string
	Status      TrailerStatus
	Position    *Position

	EngineRunning bool
	// NetworkAvailable is derived: the backend record was updated within the
	// last 90 seconds at normalization time.
	NetworkAvailable bool

	LastLogin          time.Time
	Permissions        map[Permission]bool
	CameraInstallDates map[CameraID]time.Time
}

// Logistician is the operator attached to an event or media request.
type Logistician struct {
	ID          string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Interaction is a timestamped alarm-related action (silence, off, resolve)
// attached to a TrailerEvent.
type Interaction struct {
	Type TrailerStatus
	Date time.Time
}

// TrailerEvent is a single entry of a trailer's event log. Events are
// immutable once recorded except for their interaction list.
type TrailerEvent struct {
	ID           TrailerEventID
	TrailerID    TrailerID
	Date         time.Time
	Type         TrailerStatus
	Location     *Position
	Logistician  *Logistician
	Interactions []Interaction
}

// MediaAsset is one photo or video produced by a trailer camera. Assets are
// created by a request call or by a push delta once the backend finishes
// processing.
type MediaAsset struct {
	ID           MediaID
	TrailerID    TrailerID
	Camera       CameraID
	Kind         MediaKind
	IsLoading    bool
	SnapshotURL  string
	DownloadDate time.Time
	EventDate    time.Time
	AlarmFlag    bool
	Logistician  *Logistician
}

// MediaKey addresses the recency-ordered asset bucket an asset belongs to.
type MediaKey struct {
	Trailer TrailerID
	Camera  CameraID
	Kind    MediaKind
}

// Key returns the bucket key for the asset.
func (m *MediaAsset) Key() MediaKey {
	return MediaKey{Trailer: m.TrailerID, Camera: m.Camera, Kind: m.Kind}
}

// SessionIdentity is the token/client/uid triple identifying an
// authenticated push-channel session.
type SessionIdentity struct {
	Token  string
	Client string
	UID    string
}

// Complete reports whether all three credential parts are present.
func (s SessionIdentity) Complete() bool {
	return s.Token != "" && s.Client != "" && s.UID != ""
}
