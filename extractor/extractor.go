package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
	ytdl "github.com/kkdai/youtube/v2"
	log "github.com/sirupsen/logrus"
)

// ErrNoAudioStream means the watch page was reachable but exposed no
// audio-only format. A later attempt may still succeed, so callers must
// not cache this as a permanent failure.
var ErrNoAudioStream = errors.New("no audio stream available")

// AudioDescriptor is a directly playable audio stream. AudioURL is
// signed by the upstream host and expires on its schedule, so the
// descriptor is only handed out while its age stays under the cache TTL.
type AudioDescriptor struct {
	AudioURL   string        `json:"audioUrl"`
	MimeType   string        `json:"mimeType"`
	Duration   time.Duration `json:"-"`
	Title      string        `json:"title"`
	Thumbnail  string        `json:"thumbnail,omitempty"`
	ResolvedAt time.Time     `json:"-"`
}

// Extractor resolves a video ID into a time-limited direct audio URL.
// The primary path asks the innertube player API for the format list and
// signs the best audio format; when that breaks (cipher changes, player
// updates) it falls back to a yt-dlp subprocess the way older deployments
// always did.
type Extractor struct {
	client   *ytdl.Client
	fallback *ytdlpFallback
}

func New() *Extractor {
	return &Extractor{
		client: &ytdl.Client{
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		},
		fallback: newYtdlpFallback(),
	}
}

// Extract fetches stream-format metadata for videoID and builds an
// AudioDescriptor from the highest-bitrate audio-only format. It is
// all-or-nothing: on any failure the descriptor is nil.
//
// This call is expensive; the upstream signs a fresh URL and empirically
// takes 10-15 seconds. Callers own the timeout on ctx.
func (e *Extractor) Extract(ctx context.Context, videoID string) (*AudioDescriptor, error) {
	logger := log.WithFields(log.Fields{"module": "extractor", "video_id": videoID})

	span := sentry.StartSpan(ctx, "extractor.get_stream")
	span.Description = "Extract direct audio URL"
	span.SetTag("video_id", videoID)
	defer span.Finish()

	descriptor, err := e.extractNative(ctx, videoID)
	if err == nil {
		span.Status = sentry.SpanStatusOK
		return descriptor, nil
	}
	if errors.Is(err, ErrNoAudioStream) || ctx.Err() != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	logger.Warnf("native extraction failed, falling back to yt-dlp: %v", err)
	descriptor, fbErr := e.fallback.extract(ctx, videoID)
	if fbErr != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(fmt.Errorf("extraction failed for %s: %v (fallback: %v)", videoID, err, fbErr))
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	span.Status = sentry.SpanStatusOK
	return descriptor, nil
}

func (e *Extractor) extractNative(ctx context.Context, videoID string) (*AudioDescriptor, error) {
	video, err := e.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetching stream metadata: %w", err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return nil, ErrNoAudioStream
	}

	streamURL, err := e.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("signing stream URL: %w", err)
	}

	log.WithFields(log.Fields{"module": "extractor", "video_id": videoID}).
		Tracef("selected audio format itag=%d bitrate=%d", format.ItagNo, format.Bitrate)

	return &AudioDescriptor{
		AudioURL:   streamURL,
		MimeType:   format.MimeType,
		Duration:   video.Duration,
		Title:      video.Title,
		Thumbnail:  bestThumbnail(video.Thumbnails),
		ResolvedAt: time.Now(),
	}, nil
}

// bestAudioFormat filters the format list to audio-only entries and picks
// the highest declared bitrate. Ties keep the first-seen format so the
// choice is deterministic across calls.
func bestAudioFormat(formats ytdl.FormatList) *ytdl.Format {
	var best *ytdl.Format
	for i := range formats {
		format := &formats[i]
		if format.AudioChannels == 0 {
			continue
		}
		if format.Width != 0 || format.Height != 0 {
			continue
		}
		if best == nil || format.Bitrate > best.Bitrate {
			best = format
		}
	}
	return best
}

func bestThumbnail(thumbnails ytdl.Thumbnails) string {
	var best string
	var bestArea uint
	for _, t := range thumbnails {
		area := t.Width * t.Height
		if best == "" || area > bestArea {
			best = t.URL
			bestArea = area
		}
	}
	return best
}
