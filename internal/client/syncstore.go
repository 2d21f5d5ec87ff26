package client

import (
	"sort"
	"strings"
	"sync"

	"github.com/reelvault/reelvault-server/internal/dto"
)

// Sort keys accepted by SyncStore.View.
const (
	SortByDate  = "date"
	SortByTag   = "tag"
	SortByTitle = "title"
)

// SyncStore is the in-memory flattened clip list the UI renders from.
// It absorbs three write paths that race in practice: optimistic local
// inserts, remote confirmations, and the SSE change feed.
type SyncStore struct {
	mu    sync.RWMutex
	clips []dto.ClipView
}

// NewSyncStore creates an empty store.
func NewSyncStore() *SyncStore {
	return &SyncStore{}
}

// Len returns the number of clips currently held.
func (s *SyncStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clips)
}

// InsertOptimistic prepends a clip before the server confirms it and returns
// the compensating action. Callers MUST invoke undo when the remote save
// fails, otherwise the phantom entry stays until the next full reconcile.
func (s *SyncStore) InsertOptimistic(view dto.ClipView) (undo func()) {
	s.mu.Lock()
	s.clips = append([]dto.ClipView{view}, s.clips...)
	s.mu.Unlock()

	insertedID := view.ID
	return func() {
		s.RemoveByID(insertedID)
	}
}

// RemoveByID drops the clip with the given ID. Removing an absent ID is a
// no-op, so undo and remote deletion events can race safely.
func (s *SyncStore) RemoveByID(clipID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.clips[:0]
	for _, clip := range s.clips {
		if clip.ID != clipID {
			filtered = append(filtered, clip)
		}
	}
	s.clips = filtered
}

// Replace swaps the optimistic placeholder with the server-assigned record,
// keeping its position. Falls back to a prepend when the placeholder is
// already gone.
func (s *SyncStore) Replace(placeholderID string, confirmed dto.ClipView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, clip := range s.clips {
		if clip.ID == placeholderID {
			s.clips[i] = confirmed
			return
		}
	}
	s.clips = append([]dto.ClipView{confirmed}, s.clips...)
}

// ReplaceAll reconciles the store wholesale, typically after a snapshot
// refetch or on logout with nil.
func (s *SyncStore) ReplaceAll(views []dto.ClipView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = append(s.clips[:0:0], views...)
}

// ApplyRemoteInsert merges a change-feed clip into the store. Events that
// echo this client's own writes are skipped, as are clips already present,
// so the feed can be applied blindly.
func (s *SyncStore) ApplyRemoteInsert(view dto.ClipView, originClient, selfClientID string) {
	if originClient != "" && originClient == selfClientID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clip := range s.clips {
		if clip.ID == view.ID {
			return
		}
	}
	s.clips = append([]dto.ClipView{view}, s.clips...)
}

// View returns a filtered, sorted copy of the list. The query matches
// case-insensitively against titles and tag names; empty matches everything.
// sortKey is one of SortByDate (created desc, the default), SortByTag
// (first tag name, untagged clips first under their empty key), or
// SortByTitle. Sorts are stable so equal keys keep their relative order.
func (s *SyncStore) View(query, sortKey string) []dto.ClipView {
	s.mu.RLock()
	matched := make([]dto.ClipView, 0, len(s.clips))
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, clip := range s.clips {
		if needle == "" || matchesQuery(&clip, needle) {
			matched = append(matched, clip)
		}
	}
	s.mu.RUnlock()

	switch sortKey {
	case SortByTag:
		sort.SliceStable(matched, func(i, j int) bool {
			return firstTag(&matched[i]) < firstTag(&matched[j])
		})
	case SortByTitle:
		sort.SliceStable(matched, func(i, j int) bool {
			return strings.ToLower(matched[i].Title) < strings.ToLower(matched[j].Title)
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}

	return matched
}

func matchesQuery(clip *dto.ClipView, needle string) bool {
	if strings.Contains(strings.ToLower(clip.Title), needle) {
		return true
	}
	for _, tag := range clip.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// firstTag returns the sort key for tag ordering, empty for untagged clips.
func firstTag(clip *dto.ClipView) string {
	if len(clip.Tags) == 0 {
		return ""
	}
	return clip.Tags[0]
}
