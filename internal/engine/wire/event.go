package wire

import (
	"encoding/json"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
)

// RawEvent is the backend's trailer_event resource shape.
type RawEvent struct {
	ID           string           `json:"id"`
	TrailerID    string           `json:"trailer_id"`
	Kind         any              `json:"kind"`
	Date         flexTime         `json:"date"`
	Location     *rawPosition     `json:"location"`
	Logistician  *rawLogistician  `json:"logistician"`
	Interactions []rawInteraction `json:"interactions"`
}

type rawLogistician struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type rawInteraction struct {
	Kind any      `json:"kind"`
	Date flexTime `json:"date"`
}

// DecodeEvent unmarshals one event payload and normalizes it.
func DecodeEvent(raw json.RawMessage) (model.TrailerEvent, error) {
	var re RawEvent
	if err := json.Unmarshal(raw, &re); err != nil {
		return model.TrailerEvent{}, err
	}
	return NormalizeEvent(&re), nil
}

// NormalizeEvent converts a raw event record to the domain shape.
// Interactions are decoded in payload order; sorting and deduplication are
// the store's concern.
func NormalizeEvent(re *RawEvent) model.TrailerEvent {
	ev := model.TrailerEvent{
		ID:        model.TrailerEventID(re.ID),
		TrailerID: model.TrailerID(re.TrailerID),
		Date:      re.Date.Value,
		Type:      state.StatusFromWire(re.Kind),
	}
	if re.Location != nil {
		ev.Location = decodePosition(re.Location)
	}
	if re.Logistician != nil {
		ev.Logistician = decodeLogistician(re.Logistician)
	}
	for _, ri := range re.Interactions {
		ev.Interactions = append(ev.Interactions, model.Interaction{
			Type: state.StatusFromWire(ri.Kind),
			Date: ri.Date.Value,
		})
	}
	return ev
}

func decodeLogistician(rl *rawLogistician) *model.Logistician {
	return &model.Logistician{
		ID:          rl.ID,
		FirstName:   rl.FirstName,
		LastName:    rl.LastName,
		PhoneNumber: rl.PhoneNumber,
	}
}
