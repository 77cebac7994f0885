package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolveEmptyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs_newlines", "\t\n"},
	}
	client := NewClient()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Resolve(context.Background(), tt.query)
			if !errors.Is(err, ErrEmptyQuery) {
				t.Errorf("Resolve(%q) error = %v; want ErrEmptyQuery", tt.query, err)
			}
		})
	}
}

func TestDataAPIResolveEmptyQuery(t *testing.T) {
	client := NewDataAPIClient("unused")
	_, err := client.Resolve(context.Background(), "  ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Resolve error = %v; want ErrEmptyQuery", err)
	}
}

func TestWatchURL(t *testing.T) {
	m := &Match{VideoID: "dQw4w9WgXcQ"}
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got := m.WatchURL(); got != want {
		t.Errorf("WatchURL() = %q; want %q", got, want)
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		name string
		iso  string
		want time.Duration
	}{
		{"minutes_seconds", "PT3M58S", 3*time.Minute + 58*time.Second},
		{"1min 30s", "PT1M30S", 90 * time.Second},
		{"1 hour", "PT1H", 1 * time.Hour},
		{"30 seconds", "PT30S", 30 * time.Second},
		{"1h30m45s", "PT1H30M45S", 1*time.Hour + 30*time.Minute + 45*time.Second},
		{"1h2m", "PT1H2M", 1*time.Hour + 2*time.Minute},
		{"invalid", "invalid", 0},
		{"empty", "", 0},
		{"zero seconds", "PT0S", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseISODuration(tt.iso); got != tt.want {
				t.Errorf("parseISODuration(%q) = %v; want %v", tt.iso, got, tt.want)
			}
		})
	}
}

func TestMemoReturnsStableMatch(t *testing.T) {
	client := NewClient()
	want := Match{VideoID: "abc123", Title: "Ocean Breeze", Artist: "Coastal Vibes"}
	client.memo.Add("ocean breeze coastal vibes", want)

	got, err := client.Resolve(context.Background(), "ocean breeze coastal vibes")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if *got != want {
		t.Errorf("Resolve() = %+v; want %+v", *got, want)
	}

	// Second call must return the identical pick without another search.
	again, err := client.Resolve(context.Background(), "ocean breeze coastal vibes")
	if err != nil {
		t.Fatalf("Resolve() second call error = %v", err)
	}
	if again.VideoID != got.VideoID {
		t.Errorf("repeated Resolve() changed VideoID: %q vs %q", again.VideoID, got.VideoID)
	}
}
