package catalog

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// DataAPIClient resolves queries through the official YouTube Data API.
// It needs an API key and burns quota, but survives InnerTube breakage;
// deployments opt in by setting YOUTUBE_API_KEY.
type DataAPIClient struct {
	apiKey string

	initOnce sync.Once
	service  *ytapi.Service
	initErr  error
}

func NewDataAPIClient(apiKey string) *DataAPIClient {
	return &DataAPIClient{apiKey: apiKey}
}

// getService builds the API client once per process; the handshake is
// not worth repeating per request.
func (c *DataAPIClient) getService(ctx context.Context) (*ytapi.Service, error) {
	c.initOnce.Do(func() {
		c.service, c.initErr = ytapi.NewService(context.Background(), option.WithAPIKey(c.apiKey))
		if c.initErr == nil {
			log.WithFields(log.Fields{"module": "catalog"}).Info("YouTube Data API client initialized")
		}
	})
	return c.service, c.initErr
}

func (c *DataAPIClient) Resolve(ctx context.Context, query string) (*Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	logger := log.WithFields(log.Fields{"module": "catalog", "function": "dataapi", "query": query})

	span := sentry.StartSpan(ctx, "catalog.search")
	span.Description = "Search YouTube Data API"
	span.SetTag("query", query)
	defer span.Finish()

	service, err := c.getService(ctx)
	if err != nil {
		logger.Errorf("error creating YouTube client: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("creating YouTube client: %w", err)
	}

	// The query suffix biases results toward audio uploads over live
	// performances and fan videos.
	call := service.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(query + " (official audio|lyrics|audio)").
		MaxResults(5).
		Type("video").
		VideoCategoryId("10")

	response, err := call.Do()
	if err != nil {
		logger.Errorf("error querying YouTube: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	for _, item := range response.Items {
		if item.Id.Kind != "youtube#video" || item.Id.VideoId == "" {
			continue
		}
		match := &Match{
			VideoID: item.Id.VideoId,
			Title:   html.UnescapeString(item.Snippet.Title),
			Artist:  item.Snippet.ChannelTitle,
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			match.Thumbnail = item.Snippet.Thumbnails.High.Url
		}

		// Duration needs a second lookup; a failure here degrades the
		// match rather than failing the resolve.
		videoCall := service.Videos.List([]string{"contentDetails"}).Context(ctx).Id(item.Id.VideoId)
		videoResponse, err := videoCall.Do()
		if err == nil && len(videoResponse.Items) > 0 {
			match.Duration = parseISODuration(videoResponse.Items[0].ContentDetails.Duration)
		}

		span.Status = sentry.SpanStatusOK
		return match, nil
	}

	span.Status = sentry.SpanStatusNotFound
	return nil, ErrNotFound
}

// parseISODuration converts the API's ISO 8601 durations ("PT3M58S")
// into a time.Duration. Malformed input parses to zero.
func parseISODuration(iso string) time.Duration {
	if !strings.HasPrefix(iso, "PT") {
		return 0
	}
	rest := strings.TrimPrefix(iso, "PT")

	var total time.Duration
	if idx := strings.Index(rest, "H"); idx != -1 {
		h, _ := strconv.Atoi(rest[:idx])
		total += time.Duration(h) * time.Hour
		rest = rest[idx+1:]
	}
	if idx := strings.Index(rest, "M"); idx != -1 {
		m, _ := strconv.Atoi(rest[:idx])
		total += time.Duration(m) * time.Minute
		rest = rest[idx+1:]
	}
	if idx := strings.Index(rest, "S"); idx != -1 {
		s, _ := strconv.Atoi(rest[:idx])
		total += time.Duration(s) * time.Second
	}
	return total
}
