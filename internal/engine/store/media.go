package store

import (
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

// UpsertMedia inserts or updates an asset by id and places the id at the
// head of its (trailer, camera, kind) bucket, removing any older position
// it held. Buckets are recency-ordered unique id lists.
func (s *Store) UpsertMedia(asset model.MediaAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := asset.Key()
	if prevKey, ok := s.mediaSeen[asset.ID]; ok && prevKey != key {
		s.mediaOrder[prevKey] = removeID(s.mediaOrder[prevKey], asset.ID)
	}
	s.mediaOrder[key] = append([]model.MediaID{asset.ID}, removeID(s.mediaOrder[key], asset.ID)...)
	s.mediaSeen[asset.ID] = key

	copied := asset
	s.media[asset.ID] = &copied
}

// Media returns a copy of one asset.
func (s *Store) Media(id model.MediaID) (model.MediaAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.media[id]
	if !ok {
		return model.MediaAsset{}, false
	}
	return *a, true
}

// MediaForKey returns the bucket's assets most-recent-first.
func (s *Store) MediaForKey(key model.MediaKey) []model.MediaAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MediaAsset, 0, len(s.mediaOrder[key]))
	for _, id := range s.mediaOrder[key] {
		if a, ok := s.media[id]; ok {
			out = append(out, *a)
		}
	}
	return out
}

// FindMedia locates the asset in a bucket whose event date falls in the
// same minute as the given time. The workflow uses it to decide whether a
// photo already exists for a selection and whether its frame is viewable.
func (s *Store) FindMedia(key model.MediaKey, at time.Time) (model.MediaAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	minute := at.Truncate(time.Minute)
	for _, id := range s.mediaOrder[key] {
		a, ok := s.media[id]
		if !ok {
			continue
		}
		if a.EventDate.Truncate(time.Minute).Equal(minute) {
			return *a, true
		}
	}
	return model.MediaAsset{}, false
}

func removeID(ids []model.MediaID, id model.MediaID) []model.MediaID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
