// Package controller orchestrates the resolve-then-extract pipeline:
// catalog lookup, cache consultation, and deduplicated extraction. It
// never touches playback transport state; the browser player consumes
// the descriptors it returns.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tunely/cache"
	"tunely/catalog"
	"tunely/config"
	"tunely/extractor"
	"tunely/metrics"
	"tunely/sentryhelper"
)

var (
	// ErrMissingMetadata is returned when the caller supplies neither a
	// track name nor an artist to search by.
	ErrMissingMetadata = errors.New("track name and artist are required")

	// ErrInvalidVideoID rejects blank or whitespace video IDs before any
	// upstream call.
	ErrInvalidVideoID = errors.New("invalid video id")
)

// AudioExtractor is the slow path that turns a video ID into a signed
// audio URL.
type AudioExtractor interface {
	Extract(ctx context.Context, videoID string) (*extractor.AudioDescriptor, error)
}

type Controller struct {
	resolver  catalog.Resolver
	extractor AudioExtractor
	cache     *cache.AudioCache

	// inflight collapses concurrent extractions for the same video ID
	// into a single upstream call; latecomers share the result.
	inflight singleflight.Group

	searchTimeout  time.Duration
	extractTimeout time.Duration
}

func New(resolver catalog.Resolver, audioExtractor AudioExtractor, audioCache *cache.AudioCache, cfg config.CacheConfig) *Controller {
	return &Controller{
		resolver:       resolver,
		extractor:      audioExtractor,
		cache:          audioCache,
		searchTimeout:  cfg.SearchTimeout,
		extractTimeout: cfg.ExtractTimeout,
	}
}

// ResolveTrack finds the best catalog match for a free-text query.
func (c *Controller) ResolveTrack(ctx context.Context, query string) (*catalog.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	match, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrEmptyQuery):
			metrics.ResolvesTotal.WithLabelValues("invalid").Inc()
		case errors.Is(err, catalog.ErrNotFound):
			metrics.ResolvesTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.ResolvesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	metrics.ResolvesTotal.WithLabelValues("ok").Inc()
	return match, nil
}

// GetAudioByID returns a playable descriptor for videoID, from cache
// when the previous extraction is still inside its validity window.
// Concurrent misses for the same ID share one extraction; failures are
// never written to the cache, so the next request retries upstream.
func (c *Controller) GetAudioByID(ctx context.Context, videoID string) (*extractor.AudioDescriptor, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, ErrInvalidVideoID
	}

	logger := log.WithFields(log.Fields{"module": "controller", "video_id": videoID})

	if descriptor, ok := c.cache.Get(videoID); ok {
		logger.Trace("audio cache hit")
		metrics.CacheHitsTotal.Inc()
		return descriptor, nil
	}
	metrics.CacheMissesTotal.Inc()

	value, err, shared := c.inflight.Do(videoID, func() (interface{}, error) {
		// Re-check under the flight: a sibling may have populated the
		// cache between our miss and acquiring the flight.
		if descriptor, ok := c.cache.Get(videoID); ok {
			return descriptor, nil
		}

		extractCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.extractTimeout)
		defer cancel()

		extractCtx, transaction := sentryhelper.StartDetachedTransaction(extractCtx, "audio.extract", "audio.extract")
		transaction.SetTag("video_id", videoID)
		defer transaction.Finish()

		start := time.Now()
		descriptor, err := c.extractor.Extract(extractCtx, videoID)
		metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			transaction.Status = sentry.SpanStatusInternalError
			sentryhelper.CaptureException(extractCtx, err)
			metrics.ExtractionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.ExtractionsTotal.WithLabelValues("ok").Inc()

		c.cache.Put(videoID, descriptor)
		metrics.CacheEntries.Set(float64(c.cache.Len()))
		return descriptor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("extracting audio for %s: %w", videoID, err)
	}
	if shared {
		logger.Trace("joined in-flight extraction")
	}
	return value.(*extractor.AudioDescriptor), nil
}

// GetPlayableAudio is the full resolve-then-play seam: validate input,
// resolve the catalog match, then return a cached or freshly extracted
// descriptor for it.
func (c *Controller) GetPlayableAudio(ctx context.Context, trackName, artistName string) (*extractor.AudioDescriptor, error) {
	trackName = strings.TrimSpace(trackName)
	artistName = strings.TrimSpace(artistName)
	if trackName == "" && artistName == "" {
		return nil, ErrMissingMetadata
	}

	query := strings.TrimSpace(trackName + " " + artistName)
	match, err := c.ResolveTrack(ctx, query)
	if err != nil {
		return nil, err
	}

	return c.GetAudioByID(ctx, match.VideoID)
}
