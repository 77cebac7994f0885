// Package lyrics fetches lyrics from the public lrclib.net API.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrNoLyrics means the catalog has no entry for the track.
var ErrNoLyrics = errors.New("no lyrics found")

type SearchResult struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

type Lyrics struct {
	Plain  string `json:"plain"`
	Synced string `json:"synced,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://lrclib.net",
	}
}

// Search returns lyrics for the given track and artist. The first
// result carrying plain lyrics wins; instrumental-only entries are
// skipped.
func (c *Client) Search(ctx context.Context, track, artist string) (*Lyrics, error) {
	track = strings.TrimSpace(track)
	artist = strings.TrimSpace(artist)
	if track == "" {
		return nil, errors.New("track name is required")
	}

	params := url.Values{}
	params.Set("track_name", track)
	if artist != "" {
		params.Set("artist_name", artist)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lyrics search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lyrics search returned HTTP %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding lyrics response: %w", err)
	}

	for _, result := range results {
		if result.PlainLyrics == "" {
			continue
		}
		log.WithFields(log.Fields{"module": "lyrics"}).
			Tracef("matched lyrics: %s - %s", result.ArtistName, result.TrackName)
		return &Lyrics{Plain: result.PlainLyrics, Synced: result.SyncedLyrics}, nil
	}

	return nil, ErrNoLyrics
}
