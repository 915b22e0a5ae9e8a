package wire

import (
	"encoding/json"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
)

// MediaCompleted is the backend status of a fully processed asset.
const MediaCompleted = "completed"

// RawMedia is the backend's trailer_media resource shape.
type RawMedia struct {
	ID            string          `json:"id"`
	Trailer       *rawMediaOwner  `json:"trailer"`
	TrailerID     string          `json:"trailer_id"`
	Camera        string          `json:"camera"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	URL           string          `json:"url"`
	RequestedAt   flexTime        `json:"requested_at"`
	RequestedTime flexTime        `json:"requested_time"`
	TrailerEvent  *rawMediaEvent  `json:"trailer_event"`
	Logistician   *rawLogistician `json:"logistician"`
}

type rawMediaOwner struct {
	ID string `json:"id"`
}

type rawMediaEvent struct {
	Kind any `json:"kind"`
}

// DecodeMedia unmarshals one media payload and normalizes it.
func DecodeMedia(raw json.RawMessage) (model.MediaAsset, error) {
	var rm RawMedia
	if err := json.Unmarshal(raw, &rm); err != nil {
		return model.MediaAsset{}, err
	}
	return NormalizeMedia(&rm), nil
}

// NormalizeMedia converts a raw media record to the domain shape. An asset
// is still loading until the backend reports it completed; the alarm flag
// is set when the owning event is an alarm.
func NormalizeMedia(rm *RawMedia) model.MediaAsset {
	trailerID := rm.TrailerID
	if rm.Trailer != nil {
		trailerID = rm.Trailer.ID
	}
	kind := model.MediaPhoto
	if rm.Kind == "video" {
		kind = model.MediaVideo
	}
	asset := model.MediaAsset{
		ID:           model.MediaID(rm.ID),
		TrailerID:    model.TrailerID(trailerID),
		Camera:       state.CameraFromWire(rm.Camera),
		Kind:         kind,
		IsLoading:    rm.Status != MediaCompleted,
		SnapshotURL:  rm.URL,
		DownloadDate: rm.RequestedAt.Value,
		EventDate:    rm.RequestedTime.Value,
	}
	if rm.TrailerEvent != nil {
		asset.AlarmFlag = state.StatusFromWire(rm.TrailerEvent.Kind) == model.StatusAlarm
	}
	if rm.Logistician != nil {
		asset.Logistician = decodeLogistician(rm.Logistician)
	}
	return asset
}
