// Package store is the persistence collaborator spec.md scopes out as "a
// key-value store with two collections: apps and reviews" (spec §1, §3).
// It is specified here only as a contract (the Store interface); memStore
// and fileStore are the reference implementations that make the rest of
// the repository runnable end-to-end.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"reviewgateway/internal/reviews"
)

// Store is the contract every other component depends on.
type Store interface {
	GetApp(ctx context.Context, id reviews.AppID) (reviews.App, bool, error)
	GetAppList(ctx context.Context) ([]reviews.App, error)
	CreateApp(ctx context.Context, app reviews.App) error
	CreateReviews(ctx context.Context, rs []reviews.Review) error
	// GetReviewList returns reviews for appID sorted by Updated descending.
	// If updatedMin is non-nil, only reviews with Updated >= *updatedMin
	// are returned.
	GetReviewList(ctx context.Context, appID reviews.AppID, updatedMin *time.Time) ([]reviews.Review, error)
}

// memStore is an in-process, mutex-guarded map store — the direct
// analogue of original_source/app/services/storage.py's StorageService.
type memStore struct {
	mu      sync.RWMutex
	apps    map[reviews.AppID]reviews.App
	reviews map[reviews.ReviewID]reviews.Review
}

// NewMemStore creates an empty in-memory Store. Used when no
// STORAGE_PATH is configured.
func NewMemStore() Store {
	return &memStore{
		apps:    make(map[reviews.AppID]reviews.App),
		reviews: make(map[reviews.ReviewID]reviews.Review),
	}
}

func (s *memStore) GetApp(_ context.Context, id reviews.AppID) (reviews.App, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	return app, ok, nil
}

func (s *memStore) GetAppList(_ context.Context) ([]reviews.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reviews.App, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateApp(_ context.Context, app reviews.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = app
	return nil
}

func (s *memStore) CreateReviews(_ context.Context, rs []reviews.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		s.reviews[r.ID] = r
	}
	return nil
}

func (s *memStore) GetReviewList(_ context.Context, appID reviews.AppID, updatedMin *time.Time) ([]reviews.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterSort(s.reviews, appID, updatedMin), nil
}

func filterSort(all map[reviews.ReviewID]reviews.Review, appID reviews.AppID, updatedMin *time.Time) []reviews.Review {
	out := make([]reviews.Review, 0)
	for _, r := range all {
		if r.AppID != appID {
			continue
		}
		if updatedMin != nil && r.Updated.Before(*updatedMin) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Updated.After(out[j].Updated) })
	return out
}
