package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tunely/cache"
	"tunely/catalog"
	"tunely/config"
	"tunely/controller"
	"tunely/database"
	"tunely/extractor"
	"tunely/gemini"
	"tunely/rooms"
)

type fakeResolver struct {
	match *catalog.Match
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, query string) (*catalog.Match, error) {
	if strings.TrimSpace(query) == "" {
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
	calls      int
}

func (f *fakeExtractor) Extract(ctx context.Context, videoID string) (*extractor.AudioDescriptor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.descriptor, nil
}

func newTestRouter(t *testing.T, resolver *fakeResolver, ext *fakeExtractor) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.CacheConfig{
		TTL:            5 * time.Hour,
		SearchTimeout:  10 * time.Second,
		ExtractTimeout: 30 * time.Second,
	}
	ctrl := controller.New(resolver, ext, cache.New(cfg.TTL), cfg)
	m := NewManager(ctrl, db, rooms.NewHub(), gemini.NewClient(config.GeminiConfig{}), false)

	router := gin.New()
	m.Register(router)
	return router, m
}

func doRequest(router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func defaultMatch() *catalog.Match {
	return &catalog.Match{
		VideoID:   "abc123def45",
		Title:     "Ocean Breeze",
		Artist:    "Coastal Vibes",
		Duration:  3*time.Minute + 45*time.Second,
		Thumbnail: "https://i.ytimg.com/vi/abc123def45/hq720.jpg",
	}
}

func defaultDescriptor() *extractor.AudioDescriptor {
	return &extractor.AudioDescriptor{
		AudioURL: "https://stream.example.com/audio.webm?expire=9999",
		MimeType: "audio/webm",
		Duration: 3*time.Minute + 45*time.Second,
		Title:    "Ocean Breeze",
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})
	w := doRequest(router, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestSearchReturnsMatch(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})

	w := doRequest(router, http.MethodGet, "/api/ytmusic/search?q=ocean+breeze", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		VideoID  string `json:"videoId"`
		Name     string `json:"name"`
		Artist   string `json:"artist"`
		Duration int    `json:"duration"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.VideoID != "abc123def45" || resp.Name != "Ocean Breeze" || resp.Duration != 225 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.URL != "https://www.youtube.com/watch?v=abc123def45" {
		t.Errorf("url = %s", resp.URL)
	}
}

func TestSearchStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		resolver *fakeResolver
		want     int
	}{
		{"empty query", "/api/ytmusic/search?q=", &fakeResolver{match: defaultMatch()}, http.StatusBadRequest},
		{"whitespace query", "/api/ytmusic/search?q=%20%20", &fakeResolver{match: defaultMatch()}, http.StatusBadRequest},
		{"no results", "/api/ytmusic/search?q=xyz", &fakeResolver{err: catalog.ErrNotFound}, http.StatusNotFound},
		{"upstream failure", "/api/ytmusic/search?q=xyz", &fakeResolver{err: fmt.Errorf("innertube: connection reset")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.resolver, &fakeExtractor{descriptor: defaultDescriptor()})
			w := doRequest(router, http.MethodGet, tt.path, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAudioURLCachesDescriptor(t *testing.T) {
	ext := &fakeExtractor{descriptor: defaultDescriptor()}
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, ext)

	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodGet, "/api/ytmusic/audio-url/abc123def45", "")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, body = %s", i, w.Code, w.Body.String())
		}
	}
	if ext.calls != 1 {
		t.Errorf("extractor called %d times, want 1 (second hit served from cache)", ext.calls)
	}
}

func TestAudioURLErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  *fakeExtractor
		path string
		want int
	}{
		{"no audio stream", &fakeExtractor{err: extractor.ErrNoAudioStream}, "/api/ytmusic/audio-url/abc123def45", http.StatusNotFound},
		{"extraction failure", &fakeExtractor{err: fmt.Errorf("status 403")}, "/api/ytmusic/audio-url/abc123def45", http.StatusInternalServerError},
		{"invalid id", &fakeExtractor{descriptor: defaultDescriptor()}, "/api/ytmusic/audio-url/%20", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, tt.ext)
			w := doRequest(router, http.MethodGet, tt.path, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestPlayRecordsHistory(t *testing.T) {
	router, m := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})

	w := doRequest(router, http.MethodGet, "/api/ytmusic/play?track=Ocean+Breeze&artist=Coastal+Vibes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	history, err := m.DB.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].VideoID != "abc123def45" {
		t.Errorf("history = %+v, want one abc123def45 record", history)
	}
}

func TestPlayMissingMetadata(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})
	w := doRequest(router, http.MethodGet, "/api/ytmusic/play", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPlaylistEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})

	w := doRequest(router, http.MethodPost, "/api/playlists", `{"name":"Chill","owner":"sam"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}
	var created database.Playlist
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	w = doRequest(router, http.MethodPost, fmt.Sprintf("/api/playlists/%d/tracks", created.ID),
		`{"videoId":"abc123def45","title":"Ocean Breeze","artist":"Coastal Vibes","duration":225}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add track: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodGet, fmt.Sprintf("/api/playlists/%d", created.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	var got database.Playlist
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].VideoID != "abc123def45" {
		t.Errorf("playlist tracks = %+v", got.Tracks)
	}

	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/playlists/%d", created.ID), "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", w.Code)
	}
	w = doRequest(router, http.MethodGet, fmt.Sprintf("/api/playlists/%d", created.ID), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
}

func TestPlaylistValidation(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})

	w := doRequest(router, http.MethodPost, "/api/playlists", `{"name":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name: status = %d, want 400", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/api/playlists/not-a-number", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/api/playlists/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing playlist: status = %d, want 404", w.Code)
	}
}

func TestSpotifyDisabled(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})
	w := doRequest(router, http.MethodGet, "/api/spotify/search?q=test", "")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestSpotifyMissingToken(t *testing.T) {
	resolver := &fakeResolver{match: defaultMatch()}
	ext := &fakeExtractor{descriptor: defaultDescriptor()}
	router, m := newTestRouter(t, resolver, ext)
	m.SpotifyEnabled = true

	w := doRequest(router, http.MethodGet, "/api/spotify/search?q=test", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMoodDisabled(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})
	w := doRequest(router, http.MethodGet, "/api/mood?mood=rainy+evening", "")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestResolveLinkRejectsBadURL(t *testing.T) {
	router, _ := newTestRouter(t, &fakeResolver{match: defaultMatch()}, &fakeExtractor{descriptor: defaultDescriptor()})
	w := doRequest(router, http.MethodGet, "/api/resolve-link?url=https://example.com/song", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
