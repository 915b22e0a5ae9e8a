package state

import (
	"sort"
	"strings"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

// categories is the fixed classification table. Statuses absent from the
// table classify as unknown; note that ok deliberately does too, matching
// the backend's display rules.
var categories = map[model.TrailerStatus]model.Category{
	model.StatusStartLoading: model.CategoryLoading,
	model.StatusEndLoading:   model.CategoryLoading,

	model.StatusAlarm:             model.CategoryAlarm,
	model.StatusSilenced:          model.CategoryAlarm,
	model.StatusOff:               model.CategoryAlarm,
	model.StatusResolved:          model.CategoryAlarm,
	model.StatusQuiet:             model.CategoryAlarm,
	model.StatusEmergency:         model.CategoryAlarm,
	model.StatusShutdownImmediate: model.CategoryAlarm,

	model.StatusArmed:    model.CategoryArmed,
	model.StatusDisarmed: model.CategoryArmed,

	model.StatusWarning:           model.CategoryWarning,
	model.StatusShutdownPending:   model.CategoryWarning,
	model.StatusTruckBatteryLow:   model.CategoryWarning,
	model.StatusTruckDisconnected: model.CategoryWarning,

	model.StatusNetworkOn:  model.CategoryNetwork,
	model.StatusNetworkOff: model.CategoryNetwork,

	model.StatusTruckParkingOn:  model.CategoryParking,
	model.StatusTruckParkingOff: model.CategoryParking,

	model.StatusTruckEngineOn:      model.CategoryNormal,
	model.StatusTruckEngineOff:     model.CategoryNormal,
	model.StatusTruckConnected:     model.CategoryNormal,
	model.StatusTruckBatteryNormal: model.CategoryNormal,
}

// Categorize maps a status to its display category. Total: unmapped
// statuses (including ok) return CategoryUnknown.
func Categorize(s model.TrailerStatus) model.Category {
	if c, ok := categories[s]; ok {
		return c
	}
	return model.CategoryUnknown
}

// Priority constants; lower means more urgent.
const (
	PriorityAlarm    = 0
	PriorityDegraded = 1
	PriorityPending  = 2
	PriorityNominal  = 4
	PriorityOK       = 8
	PriorityUnknown  = 16
)

var priorities = map[model.TrailerStatus]int{
	model.StatusAlarm:             PriorityAlarm,
	model.StatusQuiet:             PriorityAlarm,
	model.StatusEmergency:         PriorityAlarm,
	model.StatusShutdownImmediate: PriorityAlarm,

	model.StatusSilenced:          PriorityDegraded,
	model.StatusTruckBatteryLow:   PriorityDegraded,
	model.StatusTruckDisconnected: PriorityDegraded,

	model.StatusWarning:         PriorityPending,
	model.StatusShutdownPending: PriorityPending,
	model.StatusTruckParkingOn:  PriorityPending,
	model.StatusTruckParkingOff: PriorityPending,

	model.StatusTruckConnected:     PriorityNominal,
	model.StatusTruckBatteryNormal: PriorityNominal,
	model.StatusTruckEngineOn:      PriorityNominal,
	model.StatusTruckEngineOff:     PriorityNominal,
	model.StatusOff:                PriorityNominal,
	model.StatusResolved:           PriorityNominal,
	model.StatusArmed:              PriorityNominal,
	model.StatusDisarmed:           PriorityNominal,
	model.StatusStartLoading:       PriorityNominal,
	model.StatusEndLoading:         PriorityNominal,

	model.StatusOK: PriorityOK,
}

// Priority returns the display urgency rank of a status. Total: unmapped
// statuses rank as PriorityUnknown, the least urgent.
func Priority(s model.TrailerStatus) int {
	if p, ok := priorities[s]; ok {
		return p
	}
	return PriorityUnknown
}

// Less orders trailers most-urgent-first. Equal priorities (and equal
// statuses) fall back to a case-insensitive plate-number comparison so the
// ordering is a strict weak ordering and stable across re-sorts.
func Less(a, b *model.Trailer) bool {
	pa, pb := Priority(a.Status), Priority(b.Status)
	if pa == pb || a.Status == b.Status {
		return strings.ToLower(a.PlateNumber) < strings.ToLower(b.PlateNumber)
	}
	return pa < pb
}

// DedupeInteractions keeps, for each distinct interaction type, only its
// earliest occurrence. The input is expected sorted ascending by date;
// relative order of the survivors is preserved.
func DedupeInteractions(interactions []model.Interaction) []model.Interaction {
	seen := make(map[model.TrailerStatus]bool, len(interactions))
	out := make([]model.Interaction, 0, len(interactions))
	for _, in := range interactions {
		if seen[in.Type] {
			continue
		}
		seen[in.Type] = true
		out = append(out, in)
	}
	return out
}

// SortInteractions orders interactions ascending by date. The sort is
// stable so interactions of different types with identical timestamps keep
// their original order.
func SortInteractions(interactions []model.Interaction) []model.Interaction {
	out := make([]model.Interaction, len(interactions))
	copy(out, interactions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// alarmFamily are the event types a resolve command applies to.
var alarmFamily = map[model.TrailerStatus]bool{
	model.StatusAlarm:     true,
	model.StatusSilenced:  true,
	model.StatusQuiet:     true,
	model.StatusEmergency: true,
}

// CanResolve reports whether a "mark resolved" command may be offered for
// an event: the event must be in the alarm family, already turned off, and
// not yet resolved.
func CanResolve(eventType model.TrailerStatus, interactions []model.Interaction) bool {
	if !alarmFamily[eventType] {
		return false
	}
	turnedOff := false
	for _, in := range interactions {
		switch in.Type {
		case model.StatusOff:
			turnedOff = true
		case model.StatusResolved:
			return false
		}
	}
	return turnedOff
}
