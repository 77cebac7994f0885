package models

import (
	"tunely/catalog"
	"tunely/extractor"
)

// TrackResponse is the search-result shape returned to the web client.
type TrackResponse struct {
	VideoID   string `json:"videoId"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url"`
}

func TrackResponseFrom(m *catalog.Match) TrackResponse {
	return TrackResponse{
		VideoID:   m.VideoID,
		Name:      m.Title,
		Artist:    m.Artist,
		Duration:  int(m.Duration.Seconds()),
		Thumbnail: m.Thumbnail,
		URL:       m.WatchURL(),
	}
}

// AudioResponse wraps a resolved audio descriptor for the client. The
// descriptor's own json tags carry audioUrl, mimeType, title and thumbnail.
type AudioResponse struct {
	*extractor.AudioDescriptor
	VideoID  string `json:"videoId"`
	Duration int    `json:"duration"`
}

func AudioResponseFrom(videoID string, d *extractor.AudioDescriptor) AudioResponse {
	return AudioResponse{
		AudioDescriptor: d,
		VideoID:         videoID,
		Duration:        int(d.Duration.Seconds()),
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
