package store

import (
	"sort"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
)

// RecordEvent appends or updates a single event, the push-delta path. When
// the id already exists the incoming interactions are merged with the
// stored ones: sorted ascending by date, first occurrence per type kept.
func (s *Store) RecordEvent(ev model.TrailerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.events[ev.ID]
	if ok {
		merged := append(append([]model.Interaction{}, prev.Interactions...), ev.Interactions...)
		ev.Interactions = state.DedupeInteractions(state.SortInteractions(merged))
	} else {
		ev.Interactions = state.DedupeInteractions(state.SortInteractions(ev.Interactions))
		s.eventsByTrailer[ev.TrailerID] = append(s.eventsByTrailer[ev.TrailerID], ev.ID)
	}
	copied := ev
	s.events[ev.ID] = &copied
}

// ReplaceEventsForTrailer fully replaces the per-trailer index after a
// filtered REST re-fetch. Entities stay merged into the global collection;
// only the index is rebuilt.
func (s *Store) ReplaceEventsForTrailer(id model.TrailerID, events []model.TrailerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := make([]model.TrailerEventID, 0, len(events))
	for _, ev := range events {
		ev.Interactions = state.DedupeInteractions(state.SortInteractions(ev.Interactions))
		copied := ev
		s.events[ev.ID] = &copied
		order = append(order, ev.ID)
	}
	s.eventsByTrailer[id] = order
}

// SetEventInteractions replaces one event's interaction list, the
// resolve-alarm confirmation path. The list must already be deduplicated.
func (s *Store) SetEventInteractions(id model.TrailerEventID, interactions []model.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.events[id]
	if !ok {
		return
	}
	next := *prev
	next.Interactions = append([]model.Interaction{}, interactions...)
	s.events[id] = &next
}

// Event returns a copy of one event.
func (s *Store) Event(id model.TrailerEventID) (model.TrailerEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return model.TrailerEvent{}, false
	}
	return *ev, true
}

// EventsForTrailer returns a trailer's events most-recent-first.
func (s *Store) EventsForTrailer(id model.TrailerID) []model.TrailerEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TrailerEvent, 0, len(s.eventsByTrailer[id]))
	for _, evID := range s.eventsByTrailer[id] {
		if ev, ok := s.events[evID]; ok {
			out = append(out, *ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// EventsByCategory returns a trailer's events of one display category that
// pass the type filter, carry a usable location, and fall inside the event
// window. Used to place category-coloured markers.
func (s *Store) EventsByCategory(id model.TrailerID, category model.Category) []model.TrailerEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TrailerEvent
	for _, evID := range s.eventsByTrailer[id] {
		ev, ok := s.events[evID]
		if !ok {
			continue
		}
		if !s.eventFilter[ev.Type] || state.Categorize(ev.Type) != category {
			continue
		}
		if ev.Location == nil || !ev.Location.HasFix {
			continue
		}
		if ev.Date.Before(s.window.From) || ev.Date.After(s.window.To) {
			continue
		}
		out = append(out, *ev)
	}
	return out
}
