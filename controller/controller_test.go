package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tunely/cache"
	"tunely/catalog"
	"tunely/config"
	"tunely/extractor"
)

type fakeResolver struct {
	match *catalog.Match
	err   error
	calls atomic.Int32
}

func (f *fakeResolver) Resolve(ctx context.Context, query string) (*catalog.Match, error) {
	f.calls.Add(1)
	if query == "" {
		return nil, catalog.ErrEmptyQuery
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.match, nil
}

type fakeExtractor struct {
	descriptor *extractor.AudioDescriptor
	err        error
	delay      time.Duration
	calls      atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, videoID string) (*extractor.AudioDescriptor, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	d := *f.descriptor
	return &d, nil
}

func testConfig() config.CacheConfig {
	return config.CacheConfig{
		TTL:            5 * time.Hour,
		SearchTimeout:  10 * time.Second,
		ExtractTimeout: 30 * time.Second,
	}
}

func oceanBreeze() (*fakeResolver, *fakeExtractor) {
	resolver := &fakeResolver{
		match: &catalog.Match{VideoID: "abc123", Title: "Ocean Breeze", Artist: "Coastal Vibes", Duration: 238 * time.Second},
	}
	ext := &fakeExtractor{
		descriptor: &extractor.AudioDescriptor{
			AudioURL: "https://audio.example/signed",
			MimeType: "audio/webm",
			Duration: 238 * time.Second,
			Title:    "Ocean Breeze",
		},
	}
	return resolver, ext
}

func TestGetPlayableAudioMissingMetadata(t *testing.T) {
	resolver, ext := oceanBreeze()
	c := New(resolver, ext, cache.New(5*time.Hour), testConfig())

	_, err := c.GetPlayableAudio(context.Background(), "  ", "")
	if !errors.Is(err, ErrMissingMetadata) {
		t.Errorf("error = %v; want ErrMissingMetadata", err)
	}
	if resolver.calls.Load() != 0 {
		t.Errorf("resolver called %d times for invalid input; want 0", resolver.calls.Load())
	}
	if ext.calls.Load() != 0 {
		t.Errorf("extractor called %d times for invalid input; want 0", ext.calls.Load())
	}
}

func TestGetPlayableAudioEndToEnd(t *testing.T) {
	resolver, ext := oceanBreeze()
	c := New(resolver, ext, cache.New(5*time.Hour), testConfig())

	first, err := c.GetPlayableAudio(context.Background(), "Ocean Breeze", "Coastal Vibes")
	if err != nil {
		t.Fatalf("GetPlayableAudio() error = %v", err)
	}
	if first.AudioURL != "https://audio.example/signed" {
		t.Errorf("AudioURL = %q", first.AudioURL)
	}
	if first.MimeType != "audio/webm" {
		t.Errorf("MimeType = %q; want audio/webm", first.MimeType)
	}
	if ext.calls.Load() != 1 {
		t.Fatalf("extractor calls = %d; want 1", ext.calls.Load())
	}

	// Second request must be served from cache without a new extraction.
	second, err := c.GetPlayableAudio(context.Background(), "Ocean Breeze", "Coastal Vibes")
	if err != nil {
		t.Fatalf("second GetPlayableAudio() error = %v", err)
	}
	if second.AudioURL != first.AudioURL {
		t.Errorf("cached AudioURL = %q; want %q", second.AudioURL, first.AudioURL)
	}
	if ext.calls.Load() != 1 {
		t.Errorf("extractor calls after cache hit = %d; want 1", ext.calls.Load())
	}
}

func TestTrackNotFoundPropagates(t *testing.T) {
	resolver := &fakeResolver{err: catalog.ErrNotFound}
	_, ext := oceanBreeze()
	c := New(resolver, ext, cache.New(5*time.Hour), testConfig())

	_, err := c.GetPlayableAudio(context.Background(), "Nonexistent", "Nobody")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("error = %v; want catalog.ErrNotFound", err)
	}
	if ext.calls.Load() != 0 {
		t.Errorf("extractor called %d times after resolve failure; want 0", ext.calls.Load())
	}
}

func TestGetAudioByIDInvalid(t *testing.T) {
	resolver, ext := oceanBreeze()
	c := New(resolver, ext, cache.New(5*time.Hour), testConfig())

	for _, id := range []string{"", "   "} {
		if _, err := c.GetAudioByID(context.Background(), id); !errors.Is(err, ErrInvalidVideoID) {
			t.Errorf("GetAudioByID(%q) error = %v; want ErrInvalidVideoID", id, err)
		}
	}
	if ext.calls.Load() != 0 {
		t.Errorf("extractor called for invalid IDs")
	}
}

func TestNoNegativeCaching(t *testing.T) {
	resolver, ext := oceanBreeze()
	ext.err = extractor.ErrNoAudioStream
	audioCache := cache.New(5 * time.Hour)
	c := New(resolver, ext, audioCache, testConfig())

	_, err := c.GetAudioByID(context.Background(), "abc123")
	if !errors.Is(err, extractor.ErrNoAudioStream) {
		t.Fatalf("error = %v; want ErrNoAudioStream", err)
	}
	if audioCache.Len() != 0 {
		t.Error("failed extraction was written to the cache")
	}

	// The upstream recovers; the next request must retry extraction.
	ext.err = nil
	descriptor, err := c.GetAudioByID(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if descriptor == nil || descriptor.AudioURL == "" {
		t.Fatal("retry returned empty descriptor")
	}
	if ext.calls.Load() != 2 {
		t.Errorf("extractor calls = %d; want 2 (one failure, one retry)", ext.calls.Load())
	}
}

func TestConcurrentRequestsShareOneExtraction(t *testing.T) {
	resolver, ext := oceanBreeze()
	ext.delay = 100 * time.Millisecond
	c := New(resolver, ext, cache.New(5*time.Hour), testConfig())

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetAudioByID(context.Background(), "abc123")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d error = %v", i, err)
		}
	}
	if got := ext.calls.Load(); got != 1 {
		t.Errorf("extractor calls = %d for %d concurrent requests; want 1", got, n)
	}
}
