package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	log "github.com/sirupsen/logrus"
)

const memoSize = 256

// Client resolves queries through the unauthenticated InnerTube
// endpoints, the same backend the web player itself talks to. The song
// index is tried first because its results carry clean artist and
// duration metadata; the sparser general video index is the fallback.
type Client struct {
	memo *lru.Cache[string, Match]

	initOnce sync.Once
	video    *ytsearch.Client
}

func NewClient() *Client {
	memo, _ := lru.New[string, Match](memoSize)
	return &Client{memo: memo}
}

// videoClient builds the fallback search client exactly once, no matter
// how many first requests race here.
func (c *Client) videoClient() *ytsearch.Client {
	c.initOnce.Do(func() {
		c.video = ytsearch.NewClient(nil)
		log.WithFields(log.Fields{"module": "catalog"}).Debug("video search client initialized")
	})
	return c.video
}

func (c *Client) Resolve(ctx context.Context, query string) (*Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if match, ok := c.memo.Get(query); ok {
		return &match, nil
	}

	logger := log.WithFields(log.Fields{"module": "catalog", "query": query})

	span := sentry.StartSpan(ctx, "catalog.search")
	span.Description = "Search YouTube Music catalog"
	span.SetTag("query", query)
	defer span.Finish()

	match, err := c.searchSongs(ctx, query)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return nil, err
	}
	if match == nil {
		logger.Debug("no song result, falling back to video search")
		match, err = c.searchVideos(ctx, query)
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
			sentry.CaptureException(err)
			return nil, err
		}
	}
	if match == nil {
		span.Status = sentry.SpanStatusNotFound
		return nil, ErrNotFound
	}

	logger.Tracef("resolved to %s (%s)", match.VideoID, match.Title)
	span.Status = sentry.SpanStatusOK
	c.memo.Add(query, *match)
	return match, nil
}

// searchSongs queries the song index. The underlying client has no
// context support, so the call runs in a goroutine and the caller stops
// waiting when ctx expires; a late result is simply dropped.
func (c *Client) searchSongs(ctx context.Context, query string) (*Match, error) {
	type result struct {
		match *Match
		err   error
	}
	done := make(chan result, 1)

	go func() {
		search := ytmusic.TrackSearch(query)
		page, err := search.Next()
		if err != nil {
			done <- result{nil, fmt.Errorf("song search: %w", err)}
			return
		}
		for _, track := range page.Tracks {
			if track.VideoID == "" {
				continue
			}
			match := &Match{
				VideoID:  track.VideoID,
				Title:    track.Title,
				Duration: time.Duration(track.Duration) * time.Second,
			}
			if len(track.Artists) > 0 {
				match.Artist = track.Artists[0].Name
			}
			for _, t := range track.Thumbnails {
				match.Thumbnail = t.URL
			}
			done <- result{match, nil}
			return
		}
		done <- result{nil, nil}
	}()

	select {
	case r := <-done:
		return r.match, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("song search: %w", ctx.Err())
	}
}

func (c *Client) searchVideos(ctx context.Context, query string) (*Match, error) {
	response, err := c.videoClient().Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}
	for _, video := range response.Results {
		if video.VideoID == "" {
			continue
		}
		return &Match{VideoID: video.VideoID, Title: video.Title}, nil
	}
	return nil, nil
}
