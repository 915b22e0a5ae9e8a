package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/gateway"
	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
	"github.com/trailwatch-io/trailwatch/internal/engine/store"
	"github.com/trailwatch-io/trailwatch/pkg/log"
)

// fakeGateway records which re-fetches the dispatcher triggered.
type fakeGateway struct {
	mu sync.Mutex

	eventFetches   map[model.TrailerID]int
	routeFetches   map[model.TrailerID]int
	sensorFetches  map[model.TrailerID]int
	trailerFetches int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		eventFetches:  make(map[model.TrailerID]int),
		routeFetches:  make(map[model.TrailerID]int),
		sensorFetches: make(map[model.TrailerID]int),
	}
}

func (f *fakeGateway) FetchTrailers(context.Context) ([]*model.TrailerDelta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trailerFetches++
	return nil, nil
}

func (f *fakeGateway) FetchEvents(_ context.Context, id model.TrailerID, _ gateway.EventQuery) ([]model.TrailerEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventFetches[id]++
	return nil, nil
}

func (f *fakeGateway) FetchRoutes(_ context.Context, id model.TrailerID, _ gateway.RangeQuery) ([]model.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeFetches[id]++
	return nil, nil
}

func (f *fakeGateway) FetchSensors(_ context.Context, id model.TrailerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sensorFetches[id]++
	return nil
}

func (f *fakeGateway) FetchMedia(context.Context, model.TrailerID, gateway.RangeQuery) ([]model.MediaAsset, error) {
	return nil, nil
}

func (f *fakeGateway) RequestMedia(context.Context, model.TrailerID, gateway.MediaRequest) (model.MediaAsset, error) {
	return model.MediaAsset{}, nil
}

func (f *fakeGateway) SetTrailerState(context.Context, model.TrailerID, model.TrailerStatus) (*model.TrailerDelta, error) {
	return &model.TrailerDelta{}, nil
}

func (f *fakeGateway) ReadTrailerState(context.Context, model.TrailerID) error { return nil }

func (f *fakeGateway) ResolveAlarm(context.Context, model.TrailerEventID) (model.TrailerEvent, error) {
	return model.TrailerEvent{}, nil
}

func (f *fakeGateway) counts() (events, routes, trailers int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.eventFetches {
		events += n
	}
	for _, n := range f.routeFetches {
		routes += n
	}
	return events, routes, f.trailerFetches
}

// waitFor polls until cond holds or the deadline passes. The dispatcher
// fires re-fetches on their own goroutines.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func newTestDispatcher() (*Dispatcher, *store.Store, *fakeGateway) {
	st := store.New()
	gw := newFakeGateway()
	return New(st, gw, log.NewNopLogger()), st, gw
}

func TestDispatchTrailerStripsVolatileFields(t *testing.T) {
	d, st, gw := newTestDispatcher()

	// Seed a REST-sourced record with a position.
	pos := &model.Position{Latitude: 52, Longitude: 21, HasFix: true}
	st.UpsertTrailers([]*model.TrailerDelta{{ID: "t1", Position: pos}})

	d.Dispatch(context.Background(), []byte(`{"data":{
		"type": "trailer",
		"id": "t1",
		"status": "alarm",
		"current_position": {"latitude": 1.0, "longitude": 1.0},
		"access_permission": {"alarm_control": true}
	}}`))

	got, ok := st.Trailer("t1")
	if !ok {
		t.Fatal("trailer missing")
	}
	if got.Status != model.StatusAlarm {
		t.Errorf("push status not applied, got %s", got.Status)
	}
	if got.Position == nil || got.Position.Latitude != 52 {
		t.Error("push payload must not overwrite the REST position")
	}
	if got.Permissions != nil {
		t.Error("push payload must not install permissions")
	}

	waitFor(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.eventFetches["t1"] == 1
	})
}

func TestDispatchTrailerStatusSequence(t *testing.T) {
	d, st, _ := newTestDispatcher()
	ctx := context.Background()

	d.Dispatch(ctx, []byte(`{"data":{"type": "trailer", "id": "t1", "status": "alarm"}}`))
	d.Dispatch(ctx, []byte(`{"data":{"type": "trailer", "id": "t1", "status": "alarm_resolved"}}`))

	got, ok := st.Trailer("t1")
	if !ok {
		t.Fatal("trailer missing")
	}
	if got.Status != model.StatusResolved {
		t.Fatalf("status after alarm then resolved = %s, want resolved", got.Status)
	}

	category := state.Categorize(got.Status)
	priority := state.Priority(got.Status)

	// A repeated envelope with the same status changes nothing derived.
	d.Dispatch(ctx, []byte(`{"data":{"type": "trailer", "id": "t1", "status": "alarm_resolved"}}`))
	got, _ = st.Trailer("t1")
	if got.Status != model.StatusResolved {
		t.Errorf("repeated status changed the record to %s", got.Status)
	}
	if state.Categorize(got.Status) != category || state.Priority(got.Status) != priority {
		t.Errorf("repeated status changed derived state to %s/%d",
			state.Categorize(got.Status), state.Priority(got.Status))
	}
}

func TestDispatchEventRecordsAndRefreshesActive(t *testing.T) {
	d, st, gw := newTestDispatcher()
	st.SelectTrailer("t1")

	d.Dispatch(context.Background(), []byte(`{"data":{
		"type": "trailer_event",
		"id": "e1",
		"trailer_id": "t1",
		"kind": "alarm",
		"date": "2026-03-01T10:00:00Z"
	}}`))

	if _, ok := st.Event("e1"); !ok {
		t.Fatal("event not recorded")
	}
	waitFor(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.eventFetches["t1"] == 1
	})
}

func TestDispatchMalformedPayloadDoesNotStopEnvelope(t *testing.T) {
	d, st, _ := newTestDispatcher()

	d.Dispatch(context.Background(), []byte(`{"data":[
		{"type": "trailer_event", "id": "e1", "trailer_id": "t1", "kind": "alarm", "date": "not-a-date"},
		{"type": "trailer_event", "id": "e2", "trailer_id": "t1", "kind": "warning", "date": "2026-03-01T10:00:00Z"}
	]}`))

	if _, ok := st.Event("e1"); ok {
		t.Error("malformed event must be dropped")
	}
	if _, ok := st.Event("e2"); !ok {
		t.Error("later payloads must still apply after a malformed one")
	}
}

func TestDispatchSensorTriggersRefetch(t *testing.T) {
	d, _, gw := newTestDispatcher()

	d.Dispatch(context.Background(), []byte(`{"data":{"type": "trailer_sensor", "trailer_id": "t1", "temperature": 4.5}}`))

	waitFor(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.sensorFetches["t1"] == 1
	})
}

func TestDispatchMediaOnlyCompleted(t *testing.T) {
	d, st, _ := newTestDispatcher()

	d.Dispatch(context.Background(), []byte(`{"data":[
		{"type": "trailer_media", "id": "m1", "trailer_id": "t1", "kind": "photo", "status": "completed", "requested_time": "2026-03-01T10:00:00Z"},
		{"type": "trailer_media", "id": "m2", "trailer_id": "t1", "kind": "photo", "status": "processing", "requested_time": "2026-03-01T10:05:00Z"}
	]}`))

	if _, ok := st.Media("m1"); !ok {
		t.Error("completed asset must be stored")
	}
	if _, ok := st.Media("m2"); ok {
		t.Error("in-flight asset must be ignored")
	}
}

func TestDispatchUnknownTagAlarmFallback(t *testing.T) {
	d, _, gw := newTestDispatcher()

	d.Dispatch(context.Background(), []byte(`{"data":[
		{"type": "trailer_incident", "trailer_id": "t1", "kind": "warning"},
		{"type": "trailer_incident", "trailer_id": "t1", "kind": "alarm"},
		{"type": "trailer_incident", "trailer_id": "t1", "kind": "alarm"}
	]}`))

	// One alarm hit triggers exactly one re-fetch of each resource even
	// when several payloads carry alarms.
	waitFor(t, func() bool {
		events, routes, trailers := gw.counts()
		return events == 1 && routes == 1 && trailers == 1
	})
	time.Sleep(50 * time.Millisecond)
	events, routes, trailers := gw.counts()
	if events != 1 || routes != 1 || trailers != 1 {
		t.Fatalf("re-fetches = %d/%d/%d, want exactly one each", events, routes, trailers)
	}
}

func TestDispatchUnknownTagWithoutAlarmIsQuiet(t *testing.T) {
	d, _, gw := newTestDispatcher()

	d.Dispatch(context.Background(), []byte(`{"data":{"type": "trailer_note", "trailer_id": "t1", "kind": "warning"}}`))

	time.Sleep(50 * time.Millisecond)
	events, routes, trailers := gw.counts()
	if events+routes+trailers != 0 {
		t.Fatalf("no alarm in payloads, yet %d/%d/%d re-fetches fired", events, routes, trailers)
	}
}

func TestRunDrainsUntilChannelCloses(t *testing.T) {
	d, st, _ := newTestDispatcher()

	frames := make(chan []byte, 2)
	frames <- []byte(`{"data":{"type": "trailer", "id": "t1", "status": "armed"}}`)
	frames <- []byte(`{"data":{"type": "trailer", "id": "t2", "status": "ok"}}`)
	close(frames)

	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), frames)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}
	if _, ok := st.Trailer("t1"); !ok {
		t.Error("first frame not applied")
	}
	if _, ok := st.Trailer("t2"); !ok {
		t.Error("second frame not applied")
	}
}
