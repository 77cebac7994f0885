package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Options Options
	Cache   CacheConfig
	Youtube YoutubeConfig
	Spotify SpotifyConfig
	Gemini  GeminiConfig
	Sentry  SentryConfig
}

type Options struct {
	Port      string
	ClientURL string
	DBPath    string
}

type CacheConfig struct {
	TTL            time.Duration
	SearchTimeout  time.Duration
	ExtractTimeout time.Duration
}

type YoutubeConfig struct {
	// APIKey switches the catalog resolver to the official Data API.
	// Empty means the unauthenticated InnerTube search is used.
	APIKey string
}

// SpotifyConfig only gates the proxy routes. The server never holds
// Spotify credentials of its own; callers forward their bearer tokens.
type SpotifyConfig struct {
	Enabled bool
}

type GeminiConfig struct {
	Enabled bool
	APIKey  string
}

type SentryConfig struct {
	DSN string
}

func New() *Config {
	return &Config{
		Options: Options{
			Port:      os.Getenv("PORT"),
			ClientURL: os.Getenv("CLIENT_URL"),
			DBPath:    os.Getenv("DB_PATH"),
		},
		Cache: CacheConfig{
			TTL:            getCacheTTL(),
			SearchTimeout:  getSearchTimeout(),
			ExtractTimeout: getExtractTimeout(),
		},
		Youtube: YoutubeConfig{
			APIKey: os.Getenv("YOUTUBE_API_KEY"),
		},
		Spotify: SpotifyConfig{
			Enabled: os.Getenv("SPOTIFY_ENABLED") == "true",
		},
		Gemini: GeminiConfig{
			Enabled: os.Getenv("GEMINI_ENABLED") == "true",
			APIKey:  os.Getenv("GEMINI_API_KEY"),
		},
		Sentry: SentryConfig{
			DSN: os.Getenv("SENTRY_DSN"),
		},
	}
}

// getCacheTTL returns the audio-URL cache TTL. The default of 5 hours
// stays safely under the ~6 hour lifetime of signed stream URLs; the cap
// exists so a misconfigured value can't outlive the upstream signature
// and serve dead links.
func getCacheTTL() time.Duration {
	hoursStr := os.Getenv("AUDIO_CACHE_TTL_HOURS")
	if hoursStr == "" {
		return 5 * time.Hour
	}
	hours, err := strconv.Atoi(hoursStr)
	if err != nil || hours <= 0 {
		return 5 * time.Hour
	}
	if hours > 5 {
		return 5 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

func getSearchTimeout() time.Duration {
	secondsStr := os.Getenv("SEARCH_TIMEOUT_SECONDS")
	if secondsStr == "" {
		return 10 * time.Second
	}
	seconds, err := strconv.Atoi(secondsStr)
	if err != nil || seconds <= 0 {
		return 10 * time.Second
	}
	if seconds > 60 {
		return 60 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// getExtractTimeout returns the stream-extraction timeout. Extraction
// routinely takes 10-15 seconds upstream, so values below 30s are raised
// to the floor.
func getExtractTimeout() time.Duration {
	secondsStr := os.Getenv("EXTRACT_TIMEOUT_SECONDS")
	if secondsStr == "" {
		return 30 * time.Second
	}
	seconds, err := strconv.Atoi(secondsStr)
	if err != nil || seconds < 30 {
		return 30 * time.Second
	}
	if seconds > 120 {
		return 120 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
