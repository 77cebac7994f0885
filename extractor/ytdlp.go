package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	log "github.com/sirupsen/logrus"
)

// ytdlpFallback shells out to yt-dlp when native extraction breaks.
// yt-dlp tracks upstream player changes far faster than any Go client,
// at the cost of a slow subprocess per call.
type ytdlpFallback struct{}

func newYtdlpFallback() *ytdlpFallback {
	return &ytdlpFallback{}
}

func (f *ytdlpFallback) extract(ctx context.Context, videoID string) (*AudioDescriptor, error) {
	logger := log.WithFields(log.Fields{"module": "extractor", "function": "ytdlp", "video_id": videoID})

	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		Print("%(urls)s\t%(title)s\t%(duration)s\t%(ext)s\t%(thumbnail)s")
	if proxy := os.Getenv("YOUTUBE_PROXY"); proxy != "" {
		cmd = cmd.Proxy(proxy)
	}

	watchURL := "https://www.youtube.com/watch?v=" + videoID
	result, err := cmd.Run(ctx,
		"-f", "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio",
		"--no-playlist",
		"--skip-download",
		"--socket-timeout", "10",
		watchURL)
	if err != nil {
		logger.Errorf("yt-dlp failed: %v", err)
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 || parts[0] == "" || parts[0] == "NA" {
			continue
		}
		duration, _ := time.ParseDuration(parts[2] + "s")
		descriptor := &AudioDescriptor{
			AudioURL:   parts[0],
			MimeType:   extToMime(parts[3]),
			Duration:   duration,
			Title:      parts[1],
			ResolvedAt: time.Now(),
		}
		if len(parts) >= 5 && parts[4] != "NA" {
			descriptor.Thumbnail = parts[4]
		}
		return descriptor, nil
	}

	return nil, errors.New("yt-dlp produced no usable output")
}

func extToMime(ext string) string {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case "webm":
		return "audio/webm"
	case "m4a", "mp4":
		return "audio/mp4"
	case "opus", "ogg":
		return "audio/ogg"
	case "mp3":
		return "audio/mpeg"
	default:
		return "audio/webm"
	}
}
