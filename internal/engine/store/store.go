// Package store holds the in-memory entity collections of the sync engine.
// All mutations go through declared update operations that replace entity
// values instead of mutating them in place, so consumers holding a snapshot
// never observe a half-applied change.
package store

import (
	"sync"
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

// Slice names the store partitions an error flag can attach to.
type Slice string

const (
	SliceTrailers Slice = "trailers"
	SliceEvents   Slice = "events"
	SliceMedia    Slice = "media"
)

// EventWindow is the date range applied when listing events.
type EventWindow struct {
	From time.Time
	To   time.Time
}

// Store is the engine's single source of truth for domain entities.
//
// The dispatcher applies envelope payloads from one goroutine, but commands
// and readers arrive from others, so access is guarded by one RWMutex.
// Entity values handed out are copies or freshly built records; callers
// never share memory with the store.
type Store struct {
	mu sync.RWMutex

	trailers     map[model.TrailerID]*model.Trailer
	trailerOrder []model.TrailerID

	events          map[model.TrailerEventID]*model.TrailerEvent
	eventsByTrailer map[model.TrailerID][]model.TrailerEventID

	media       map[model.MediaID]*model.MediaAsset
	mediaOrder  map[model.MediaKey][]model.MediaID
	mediaSeen   map[model.MediaID]model.MediaKey
	eventFilter map[model.TrailerStatus]bool

	active model.TrailerID
	query  string
	window EventWindow

	errs map[Slice]error
}

// New creates an empty store with the default event filter set (every
// status visible except ok and unknown) and a seven-day event window.
func New() *Store {
	filter := make(map[model.TrailerStatus]bool, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		filter[s] = s != model.StatusOK && s != model.StatusUnknown
	}
	now := time.Now()
	return &Store{
		trailers:        make(map[model.TrailerID]*model.Trailer),
		events:          make(map[model.TrailerEventID]*model.TrailerEvent),
		eventsByTrailer: make(map[model.TrailerID][]model.TrailerEventID),
		media:           make(map[model.MediaID]*model.MediaAsset),
		mediaOrder:      make(map[model.MediaKey][]model.MediaID),
		mediaSeen:       make(map[model.MediaID]model.MediaKey),
		eventFilter:     filter,
		window: EventWindow{
			From: startOfDay(now.AddDate(0, 0, -7)),
			To:   endOfDay(now),
		},
		errs: make(map[Slice]error),
	}
}

// SelectTrailer marks the trailer the UI is focused on. An empty id clears
// the selection.
func (s *Store) SelectTrailer(id model.TrailerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
}

// ActiveTrailer returns the currently selected trailer id, if any.
func (s *Store) ActiveTrailer() model.TrailerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetQuery stores the free-text trailer filter.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// SetEventWindow narrows or widens the event listing date range.
func (s *Store) SetEventWindow(w EventWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = w
}

// Window returns the current event listing date range.
func (s *Store) Window() EventWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// Query returns the current free-text trailer filter.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// VisibleKinds lists the event types the filter currently admits, in
// declaration order.
func (s *Store) VisibleKinds() []model.TrailerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]model.TrailerStatus, 0, len(s.eventFilter))
	for _, st := range model.AllStatuses {
		if s.eventFilter[st] {
			kinds = append(kinds, st)
		}
	}
	return kinds
}

// SetEventFilter toggles visibility of one event type.
func (s *Store) SetEventFilter(status model.TrailerStatus, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventFilter[status] = visible
}

// SetError flags a slice as failed. A nil error clears the flag.
func (s *Store) SetError(slice Slice, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, slice)
		return
	}
	s.errs[slice] = err
}

// Err returns the failure flag for a slice, or nil.
func (s *Store) Err(slice Slice) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[slice]
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
