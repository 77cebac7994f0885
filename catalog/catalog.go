// Package catalog resolves free-text track queries against the YouTube
// Music catalog and returns the best-matching playable video ID.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyQuery is returned before any upstream call when the query
	// is empty after trimming.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrNotFound means the catalog returned no song or video result.
	ErrNotFound = errors.New("no matching track found")
)

// Match is the rank-1 catalog pick for a query. Song results carry
// artist and duration metadata; generic video fallbacks may leave those
// zero.
type Match struct {
	VideoID   string
	Title     string
	Artist    string
	Duration  time.Duration
	Thumbnail string
}

// WatchURL returns the canonical watch-page reference for the match.
func (m *Match) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + m.VideoID
}

// Resolver locates a playable catalog item for a free-text query.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Match, error)
}
