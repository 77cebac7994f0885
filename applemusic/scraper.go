package applemusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var httpClient = &http.Client{
	Timeout: 10 * time.Second,
}

func scrapeTrackInfo(ctx context.Context, link TrackLink) (*TrackInfo, error) {
	pageURL := fmt.Sprintf("https://music.apple.com/%s/album/%s?i=%s", link.Country, link.AlbumID, link.TrackID)

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	// A browser-looking User-Agent avoids bot blocks.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// JSON-LD is the reliable source; Open Graph tags are the fallback.
	trackInfo, err := extractFromJSONLD(doc)
	if err == nil {
		return trackInfo, nil
	}
	log.Debugf("JSON-LD extraction failed (%v), trying Open Graph fallback", err)

	return extractFromOpenGraph(doc)
}

func extractFromJSONLD(doc *goquery.Document) (*TrackInfo, error) {
	var trackInfo *TrackInfo

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if typeVal, _ := data["@type"].(string); typeVal != "MusicRecording" {
			return true
		}

		title := getString(data, "name")
		if title == "" {
			return true
		}
		trackInfo = &TrackInfo{Title: title}

		switch artistData := data["byArtist"].(type) {
		case map[string]interface{}:
			if name := getString(artistData, "name"); name != "" {
				trackInfo.Artists = []string{name}
			}
		case []interface{}:
			for _, a := range artistData {
				if artistMap, ok := a.(map[string]interface{}); ok {
					if name := getString(artistMap, "name"); name != "" {
						trackInfo.Artists = append(trackInfo.Artists, name)
					}
				}
			}
		}

		if albumData, ok := data["inAlbum"].(map[string]interface{}); ok {
			trackInfo.Album = getString(albumData, "name")
		}
		return false
	})

	if trackInfo == nil || trackInfo.Title == "" {
		return nil, errors.New("no JSON-LD MusicRecording data found")
	}
	if len(trackInfo.Artists) == 0 {
		return nil, errors.New("no artist data found in JSON-LD")
	}
	return trackInfo, nil
}

func extractFromOpenGraph(doc *goquery.Document) (*TrackInfo, error) {
	title, _ := doc.Find("meta[property='og:title']").Attr("content")
	if title == "" {
		title, _ = doc.Find("meta[name='twitter:title']").Attr("content")
	}
	if title == "" {
		return nil, errors.New("no title found in Open Graph tags")
	}

	artist, _ := doc.Find("meta[property='music:musician']").Attr("content")
	if artist == "" {
		// Page titles are formatted "Track Name - Artist Name on Apple Music".
		pageTitle := doc.Find("title").First().Text()
		if idx := strings.Index(pageTitle, " - "); idx != -1 {
			artist = strings.TrimSpace(pageTitle[idx+3:])
			artist = strings.TrimSuffix(artist, " on Apple Music")
		}
	}
	if artist == "" {
		return nil, errors.New("no artist found in Open Graph tags or page title")
	}

	return &TrackInfo{Title: title, Artists: []string{artist}}, nil
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return ""
}
