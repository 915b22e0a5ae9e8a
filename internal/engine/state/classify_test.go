package state

import (
	"testing"
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

func TestCategorizeIsTotal(t *testing.T) {
	valid := map[model.Category]bool{
		model.CategoryArmed: true, model.CategoryLoading: true,
		model.CategoryAlarm: true, model.CategoryParking: true,
		model.CategoryNormal: true, model.CategoryWarning: true,
		model.CategoryNetwork: true, model.CategoryUnknown: true,
	}
	for _, s := range model.AllStatuses {
		if c := Categorize(s); !valid[c] {
			t.Errorf("Categorize(%s) = %q, not a known category", s, c)
		}
	}
}

func TestCategorizeTable(t *testing.T) {
	tests := []struct {
		status model.TrailerStatus
		want   model.Category
	}{
		{model.StatusStartLoading, model.CategoryLoading},
		{model.StatusEndLoading, model.CategoryLoading},
		{model.StatusAlarm, model.CategoryAlarm},
		{model.StatusSilenced, model.CategoryAlarm},
		{model.StatusOff, model.CategoryAlarm},
		{model.StatusResolved, model.CategoryAlarm},
		{model.StatusQuiet, model.CategoryAlarm},
		{model.StatusEmergency, model.CategoryAlarm},
		{model.StatusShutdownImmediate, model.CategoryAlarm},
		{model.StatusArmed, model.CategoryArmed},
		{model.StatusDisarmed, model.CategoryArmed},
		{model.StatusWarning, model.CategoryWarning},
		{model.StatusShutdownPending, model.CategoryWarning},
		{model.StatusTruckBatteryLow, model.CategoryWarning},
		{model.StatusTruckDisconnected, model.CategoryWarning},
		{model.StatusNetworkOn, model.CategoryNetwork},
		{model.StatusNetworkOff, model.CategoryNetwork},
		{model.StatusTruckParkingOn, model.CategoryParking},
		{model.StatusTruckParkingOff, model.CategoryParking},
		{model.StatusTruckEngineOn, model.CategoryNormal},
		{model.StatusTruckEngineOff, model.CategoryNormal},
		{model.StatusTruckConnected, model.CategoryNormal},
		{model.StatusTruckBatteryNormal, model.CategoryNormal},
		// ok deliberately classifies as unknown.
		{model.StatusOK, model.CategoryUnknown},
		{model.StatusUnknown, model.CategoryUnknown},
	}
	for _, tt := range tests {
		if got := Categorize(tt.status); got != tt.want {
			t.Errorf("Categorize(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPriorityTable(t *testing.T) {
	tests := []struct {
		status model.TrailerStatus
		want   int
	}{
		{model.StatusAlarm, PriorityAlarm},
		{model.StatusQuiet, PriorityAlarm},
		{model.StatusEmergency, PriorityAlarm},
		{model.StatusShutdownImmediate, PriorityAlarm},
		{model.StatusSilenced, PriorityDegraded},
		{model.StatusTruckBatteryLow, PriorityDegraded},
		{model.StatusTruckDisconnected, PriorityDegraded},
		{model.StatusWarning, PriorityPending},
		{model.StatusShutdownPending, PriorityPending},
		{model.StatusTruckParkingOn, PriorityPending},
		{model.StatusTruckParkingOff, PriorityPending},
		{model.StatusOff, PriorityNominal},
		{model.StatusResolved, PriorityNominal},
		{model.StatusArmed, PriorityNominal},
		{model.StatusStartLoading, PriorityNominal},
		{model.StatusOK, PriorityOK},
		{model.StatusUnknown, PriorityUnknown},
		{model.StatusNetworkOn, PriorityUnknown},
		{model.StatusNetworkOff, PriorityUnknown},
	}
	for _, tt := range tests {
		if got := Priority(tt.status); got != tt.want {
			t.Errorf("Priority(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func trailer(plate string, status model.TrailerStatus) *model.Trailer {
	return &model.Trailer{ID: model.TrailerID(plate), PlateNumber: plate, Status: status}
}

func TestLessOrdersByUrgencyThenPlate(t *testing.T) {
	alarm := trailer("ZZ-100", model.StatusAlarm)
	silenced := trailer("AA-200", model.StatusSilenced)
	ok := trailer("MM-300", model.StatusOK)

	if !Less(alarm, silenced) {
		t.Error("alarm must rank before silenced despite higher plate")
	}
	if !Less(silenced, ok) {
		t.Error("silenced must rank before ok")
	}
	if !Less(alarm, ok) {
		t.Error("ordering must be transitive: alarm before ok")
	}

	a := trailer("ab-1", model.StatusOK)
	b := trailer("AB-2", model.StatusOK)
	if !Less(a, b) || Less(b, a) {
		t.Error("equal priority must fall back to case-insensitive plate order")
	}

	same := trailer("ab-1", model.StatusOK)
	if Less(a, same) || Less(same, a) {
		t.Error("identical priority and plate must compare as equal")
	}
}

func TestLessEqualPriorityDifferentStatus(t *testing.T) {
	// off and armed share a priority; the plate decides.
	off := trailer("B-1", model.StatusOff)
	armed := trailer("A-1", model.StatusArmed)
	if !Less(armed, off) {
		t.Error("equal-priority trailers must order by plate")
	}
}

func TestDedupeInteractionsKeepsEarliest(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t1.Add(2 * time.Minute)

	in := []model.Interaction{
		{Type: model.StatusOff, Date: t1},
		{Type: model.StatusOff, Date: t2},
		{Type: model.StatusResolved, Date: t3},
	}
	got := DedupeInteractions(in)
	if len(got) != 2 {
		t.Fatalf("got %d interactions, want 2: %+v", len(got), got)
	}
	if got[0].Type != model.StatusOff || !got[0].Date.Equal(t1) {
		t.Errorf("first survivor = %+v, want earliest off", got[0])
	}
	if got[1].Type != model.StatusResolved || !got[1].Date.Equal(t3) {
		t.Errorf("second survivor = %+v, want resolved", got[1])
	}
}

func TestSortInteractionsAscending(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []model.Interaction{
		{Type: model.StatusResolved, Date: base.Add(2 * time.Hour)},
		{Type: model.StatusSilenced, Date: base},
		{Type: model.StatusOff, Date: base.Add(time.Hour)},
	}
	got := SortInteractions(in)
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Fatalf("interactions not sorted ascending: %+v", got)
		}
	}
	if in[0].Type != model.StatusResolved {
		t.Error("input slice must not be mutated")
	}
}

func TestCanResolve(t *testing.T) {
	now := time.Now()
	off := model.Interaction{Type: model.StatusOff, Date: now}
	resolved := model.Interaction{Type: model.StatusResolved, Date: now}

	tests := []struct {
		name         string
		eventType    model.TrailerStatus
		interactions []model.Interaction
		want         bool
	}{
		{"alarm turned off", model.StatusAlarm, []model.Interaction{off}, true},
		{"already resolved", model.StatusAlarm, []model.Interaction{off, resolved}, false},
		{"warning is not resolvable", model.StatusWarning, []model.Interaction{off}, false},
		{"alarm without off", model.StatusAlarm, nil, false},
		{"quiet alarm turned off", model.StatusQuiet, []model.Interaction{off}, true},
		{"emergency turned off", model.StatusEmergency, []model.Interaction{off}, true},
		{"silenced turned off", model.StatusSilenced, []model.Interaction{off}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanResolve(tt.eventType, tt.interactions); got != tt.want {
				t.Errorf("CanResolve(%s, %v) = %v, want %v", tt.eventType, tt.interactions, got, tt.want)
			}
		})
	}
}
