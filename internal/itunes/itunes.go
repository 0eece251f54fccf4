// Package itunes is the upstream collaborator: it turns an app id and
// page number into a page of reviews from the third party RSS feed
// (spec §1, §4.3, §6). Adapter is the only polymorphism in the core —
// httpAdapter talks to the real service, FixtureAdapter stands in for
// it in tests.
package itunes

import (
	"context"
	"fmt"
)

// MaxPages is the upstream's hard page limit. Requesting a page beyond
// it is a programmer error, not a runtime condition the caller can
// recover from.
const MaxPages = 10

// Entry is one review as the upstream represents it, already unwrapped
// from the feed's {label: ...} envelopes but not yet parsed into a
// domain reviews.Review — score and updated are still upstream strings.
type Entry struct {
	ID      string
	Author  string
	Title   string
	Content string
	Rating  string
	Updated string
}

// Page is one page of the upstream feed.
type Page struct {
	Entries []Entry
}

// Adapter fetches one page of reviews for one app from the upstream.
type Adapter interface {
	GetReviews(ctx context.Context, appID string, page int) (Page, error)
	// Close releases any connection resources the adapter holds open,
	// per spec §4.6's shutdown step guaranteeing upstream connections
	// are released.
	Close()
}

// ErrTooManyPages panics from GetReviews implementations when page
// exceeds MaxPages; callers of Adapter must never construct such a
// request, so this is surfaced as a panic rather than an error value.
type ErrTooManyPages struct {
	Page int
}

func (e ErrTooManyPages) Error() string {
	return fmt.Sprintf("itunes: page %d exceeds upstream limit of %d", e.Page, MaxPages)
}

func checkPage(page int) {
	if page > MaxPages {
		panic(ErrTooManyPages{Page: page})
	}
}
