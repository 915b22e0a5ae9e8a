package store

import (
	"sort"
	"strings"
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
)

// UpsertTrailers merges the deltas into the collection by id. Unknown ids
// create fresh records; known ids are merged field by field so a delta
// never erases data it does not carry.
func (s *Store) UpsertTrailers(deltas []*model.TrailerDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deltas {
		if d == nil || d.ID == "" {
			continue
		}
		prev, ok := s.trailers[d.ID]
		if !ok {
			s.trailerOrder = append(s.trailerOrder, d.ID)
			prev = &model.Trailer{ID: d.ID, Status: model.StatusUnknown}
		}
		s.trailers[d.ID] = mergeTrailer(prev, d)
	}
}

// SetTrailerStatus applies an optimistic local status change and returns a
// copy of the record as it was before the change, so a failed command can
// restore it. The second return is false when the trailer is unknown.
func (s *Store) SetTrailerStatus(id model.TrailerID, status model.TrailerStatus) (model.Trailer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.trailers[id]
	if !ok {
		return model.Trailer{}, false
	}
	captured := *prev
	next := *prev
	next.Status = status
	s.trailers[id] = &next
	return captured, true
}

// RestoreTrailer puts a previously captured record back, superseding the
// optimistic update of a command whose REST call failed.
func (s *Store) RestoreTrailer(t model.Trailer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trailers[t.ID]; !ok {
		return
	}
	copied := t
	s.trailers[t.ID] = &copied
}

// Trailer returns a copy of one record.
func (s *Store) Trailer(id model.TrailerID) (model.Trailer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trailers[id]
	if !ok {
		return model.Trailer{}, false
	}
	return *t, true
}

// SortedTrailers returns all trailers most-urgent-first, ties broken by
// plate number. The result is a fresh slice of copies.
func (s *Store) SortedTrailers() []model.Trailer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Trailer, 0, len(s.trailerOrder))
	for _, id := range s.trailerOrder {
		out = append(out, *s.trailers[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return state.Less(&out[i], &out[j]) })
	return out
}

// FilterTrailers returns the sorted trailers whose id, plate number or name
// matches the stored query, case-insensitively.
func (s *Store) FilterTrailers() []model.Trailer {
	sorted := s.SortedTrailers()
	s.mu.RLock()
	query := strings.ToLower(strings.TrimSpace(s.query))
	s.mu.RUnlock()
	if query == "" {
		return sorted
	}
	out := sorted[:0]
	for _, t := range sorted {
		for _, field := range []string{string(t.ID), t.PlateNumber, t.Name} {
			if strings.Contains(strings.ToLower(strings.TrimSpace(field)), query) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func mergeTrailer(prev *model.Trailer, d *model.TrailerDelta) *model.Trailer {
	next := *prev
	if d.PlateNumber != nil {
		next.PlateNumber = *d.PlateNumber
	}
	if d.Name != nil {
		next.Name = *d.Name
	}
	if d.Company != nil {
		next.Company = *d.Company
	}
	if d.Status != nil {
		next.Status = *d.Status
	}
	if d.Position != nil {
		pos := *d.Position
		next.Position = &pos
	}
	if d.EngineRunning != nil {
		next.EngineRunning = *d.EngineRunning
	}
	if d.NetworkAvailable != nil {
		next.NetworkAvailable = *d.NetworkAvailable
	}
	if d.LastLogin != nil {
		next.LastLogin = *d.LastLogin
	}
	if d.Permissions != nil {
		perms := make(map[model.Permission]bool, len(d.Permissions))
		for k, v := range d.Permissions {
			perms[k] = v
		}
		next.Permissions = perms
	}
	if d.CameraInstallDates != nil {
		cams := make(map[model.CameraID]time.Time, len(d.CameraInstallDates))
		for k, v := range d.CameraInstallDates {
			cams[k] = v
		}
		next.CameraInstallDates = cams
	}
	return &next
}
