package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// label is the third party's ubiquitous {"label": "..."} envelope,
// wrapping nearly every leaf field in the feed.
type label struct {
	Label string `json:"label"`
}

// feedAuthor mirrors the upstream entry.author object.
type feedAuthor struct {
	Name label `json:"name"`
	URI  label `json:"uri"`
}

// feedEntry mirrors one entry of the upstream feed, keeping only the
// fields spec §4.3 maps into a Review.
type feedEntry struct {
	ID      label      `json:"id"`
	Author  feedAuthor `json:"author"`
	Title   label      `json:"title"`
	Content label      `json:"content"`
	Rating  label      `json:"im:rating"`
	Updated label      `json:"updated"`
}

type feedResponse struct {
	Feed struct {
		Entry []feedEntry `json:"entry"`
	} `json:"feed"`
}

// httpAdapter is the real Adapter, calling the third party RSS server
// directly. URL pattern per spec §6:
// <host>/us/rss/customerreviews/id=<app_id>/sortBy=mostRecent/page=<n>/json
type httpAdapter struct {
	host       string
	httpClient *http.Client
}

// NewHTTPAdapter builds an Adapter against host (e.g.
// "https://itunes.apple.com"), bounding every request to timeout.
func NewHTTPAdapter(host string, timeout time.Duration) Adapter {
	return &httpAdapter{
		host:       host,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *httpAdapter) GetReviews(ctx context.Context, appID string, page int) (Page, error) {
	checkPage(page)

	url := fmt.Sprintf("%s/us/rss/customerreviews/id=%s/sortBy=mostRecent/page=%d/json", a.host, appID, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Page{}, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("itunes: request app %s page %d: %w", appID, page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("itunes: app %s page %d returned status %d", appID, page, resp.StatusCode)
	}

	var fr feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return Page{}, fmt.Errorf("itunes: decode app %s page %d: %w", appID, page, err)
	}

	entries := make([]Entry, len(fr.Feed.Entry))
	for i, e := range fr.Feed.Entry {
		entries[i] = Entry{
			ID:      e.ID.Label,
			Author:  e.Author.Name.Label,
			Title:   e.Title.Label,
			Content: e.Content.Label,
			Rating:  e.Rating.Label,
			Updated: e.Updated.Label,
		}
	}
	return Page{Entries: entries}, nil
}

// Close releases the adapter's idle keep-alive connections back to the
// transport. Safe to call once during shutdown.
func (a *httpAdapter) Close() {
	a.httpClient.CloseIdleConnections()
}
