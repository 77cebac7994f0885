// Package applemusic resolves pasted Apple Music share links into
// title/artist metadata by scraping the public track page. The result
// feeds the catalog resolver, so a user can paste a link instead of
// typing a search.
package applemusic

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// TrackLink is a parsed Apple Music track URL.
type TrackLink struct {
	TrackID string
	AlbumID string
	Country string
}

type TrackInfo struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

var albumRegex = regexp.MustCompile(`/album/[^/]+/(\d+)`)

// ParseTrackURL extracts the track, album and country identifiers from
// an Apple Music share URL. Only track links (album URLs with an ?i=
// query) are supported; anything else is an error.
func ParseTrackURL(rawURL string) (TrackLink, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return TrackLink{}, err
	}
	if !strings.HasSuffix(parsedURL.Host, "apple.com") {
		return TrackLink{}, errors.New("not an Apple Music URL")
	}

	link := TrackLink{Country: "us"}
	pathParts := strings.Split(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	if len(pathParts) > 0 && len(pathParts[0]) == 2 {
		link.Country = pathParts[0]
	}

	link.TrackID = parsedURL.Query().Get("i")
	if link.TrackID == "" {
		return TrackLink{}, errors.New("not a track link (missing ?i= track id)")
	}
	if matches := albumRegex.FindStringSubmatch(parsedURL.Path); len(matches) > 1 {
		link.AlbumID = matches[1]
	}
	if link.AlbumID == "" {
		return TrackLink{}, errors.New("could not extract album id from URL")
	}

	log.Tracef("parsed Apple Music track link: country=%s album=%s track=%s", link.Country, link.AlbumID, link.TrackID)
	return link, nil
}

// GetTrack scrapes the track page for the given link and returns its
// metadata.
func GetTrack(ctx context.Context, link TrackLink) (*TrackInfo, error) {
	span := sentry.StartSpan(ctx, "applemusic.get_track")
	span.Description = "Get track metadata from Apple Music page"
	span.SetTag("track_id", link.TrackID)
	defer span.Finish()

	trackInfo, err := scrapeTrackInfo(ctx, link)
	if err != nil {
		log.Errorf("Failed to fetch Apple Music track: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	log.Debugf("resolved Apple Music link to '%s' by %v", trackInfo.Title, trackInfo.Artists)
	span.Status = sentry.SpanStatusOK
	return trackInfo, nil
}
