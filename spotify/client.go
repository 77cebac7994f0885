// Package spotify is a thin authenticated proxy over the Spotify Web
// API. The browser client holds the user's OAuth token; every call here
// acts with that caller-supplied token rather than app credentials, so
// nothing is stored server-side.
package spotify

import (
	"context"
	"errors"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// ErrMissingToken is returned when the caller supplied no bearer token.
var ErrMissingToken = errors.New("missing spotify access token")

const maxLimit = 10

type TrackInfo struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album"`
}

// clientFor builds a per-request client acting with the caller's token.
func clientFor(ctx context.Context, token string) (*spotifyclient.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return spotifyclient.New(httpClient), nil
}

// ClampLimit bounds a caller-supplied result limit the way the API
// proxy always has: default 10, never more than 10.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

func Search(ctx context.Context, token, query string, limit int) ([]TrackInfo, error) {
	client, err := clientFor(ctx, token)
	if err != nil {
		return nil, err
	}

	span := sentry.StartSpan(ctx, "spotify.search")
	span.Description = "Search Spotify API"
	span.SetTag("query", query)
	defer span.Finish()

	results, err := client.Search(ctx, query, spotifyclient.SearchTypeTrack, spotifyclient.Limit(ClampLimit(limit)))
	if err != nil {
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	span.Status = sentry.SpanStatusOK

	tracks := []TrackInfo{}
	if results.Tracks != nil {
		for _, track := range results.Tracks.Tracks {
			tracks = append(tracks, trackInfo(&track))
		}
	}
	return tracks, nil
}

func GetTrack(ctx context.Context, token, trackID string) (*TrackInfo, error) {
	log.Tracef("Fetching track from Spotify API: %s", trackID)
	client, err := clientFor(ctx, token)
	if err != nil {
		return nil, err
	}

	span := sentry.StartSpan(ctx, "spotify.get_track")
	span.Description = "Get track from Spotify API"
	span.SetTag("track_id", trackID)
	defer span.Finish()

	track, err := client.GetTrack(ctx, spotifyclient.ID(trackID))
	if err != nil {
		log.Errorf("Failed to fetch Spotify track %s: %v", trackID, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	span.Status = sentry.SpanStatusOK

	info := trackInfo(track)
	return &info, nil
}

func Recommendations(ctx context.Context, token string, seedTracks []string, limit int) ([]TrackInfo, error) {
	client, err := clientFor(ctx, token)
	if err != nil {
		return nil, err
	}

	span := sentry.StartSpan(ctx, "spotify.recommendations")
	span.Description = "Get recommendations from Spotify API"
	defer span.Finish()

	seeds := spotifyclient.Seeds{}
	for _, id := range seedTracks {
		if id = strings.TrimSpace(id); id != "" {
			seeds.Tracks = append(seeds.Tracks, spotifyclient.ID(id))
		}
	}

	recommendations, err := client.GetRecommendations(ctx, seeds, nil, spotifyclient.Limit(ClampLimit(limit)))
	if err != nil {
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	span.Status = sentry.SpanStatusOK

	tracks := []TrackInfo{}
	for _, track := range recommendations.Tracks {
		tracks = append(tracks, TrackInfo{
			ID:      string(track.ID),
			Title:   track.Name,
			Artists: artistNames(track.Artists),
		})
	}
	return tracks, nil
}

func trackInfo(track *spotifyclient.FullTrack) TrackInfo {
	return TrackInfo{
		ID:      string(track.ID),
		Title:   track.Name,
		Artists: artistNames(track.Artists),
		Album:   track.Album.Name,
	}
}

func artistNames(artists []spotifyclient.SimpleArtist) []string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return names
}
