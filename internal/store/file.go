package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reviewgateway/internal/reviews"
)

// document is the single JSON document spec §6 describes:
// {"apps": {id: App}, "reviews": {id: Review}}.
type document struct {
	Apps    map[reviews.AppID]reviews.App       `json:"apps"`
	Reviews map[reviews.ReviewID]reviews.Review `json:"reviews"`
}

// fileStore wraps a memStore and atomically rewrites a JSON document on
// every mutation. It is loaded once at construction time. Per spec's
// Non-goals, this is not safe for multiple concurrent writer processes —
// only the in-process mutex guards it.
type fileStore struct {
	path string
	mem  *memStore
	wmu  sync.Mutex // serializes persist() so rewrites themselves don't race
}

// NewFileStore loads path if it exists (an empty/missing file starts
// empty) and returns a Store that persists every mutation back to it.
func NewFileStore(path string) (Store, error) {
	mem := &memStore{
		apps:    make(map[reviews.AppID]reviews.App),
		reviews: make(map[reviews.ReviewID]reviews.Review),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil && len(data) == 0:
		// Empty file; nothing to load.
	case err == nil:
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		for id, app := range doc.Apps {
			mem.apps[id] = app
		}
		for id, r := range doc.Reviews {
			mem.reviews[id] = r
		}
	case os.IsNotExist(err):
		// Fresh store; nothing to load.
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &fileStore{path: path, mem: mem}, nil
}

func (s *fileStore) GetApp(ctx context.Context, id reviews.AppID) (reviews.App, bool, error) {
	return s.mem.GetApp(ctx, id)
}

func (s *fileStore) GetAppList(ctx context.Context) ([]reviews.App, error) {
	return s.mem.GetAppList(ctx)
}

func (s *fileStore) CreateApp(ctx context.Context, app reviews.App) error {
	if err := s.mem.CreateApp(ctx, app); err != nil {
		return err
	}
	return s.persist()
}

func (s *fileStore) CreateReviews(ctx context.Context, rs []reviews.Review) error {
	if err := s.mem.CreateReviews(ctx, rs); err != nil {
		return err
	}
	return s.persist()
}

func (s *fileStore) GetReviewList(ctx context.Context, appID reviews.AppID, updatedMin *time.Time) ([]reviews.Review, error) {
	return s.mem.GetReviewList(ctx, appID, updatedMin)
}

// persist rewrites the JSON document atomically: write to a temp file in
// the same directory, then rename over the target, so a crash mid-write
// never leaves a truncated store file.
func (s *fileStore) persist() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mem.mu.RLock()
	doc := document{
		Apps:    make(map[reviews.AppID]reviews.App, len(s.mem.apps)),
		Reviews: make(map[reviews.ReviewID]reviews.Review, len(s.mem.reviews)),
	}
	for id, app := range s.mem.apps {
		doc.Apps[id] = app
	}
	for id, r := range s.mem.reviews {
		doc.Reviews[id] = r
	}
	s.mem.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s to %s: %w", tmpPath, s.path, err)
	}
	return nil
}
