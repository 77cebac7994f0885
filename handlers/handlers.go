package handlers

// handlers wire the HTTP surface to the controller and the supporting
// services. Error values from the lower layers are translated to status
// codes here and nowhere else.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"tunely/applemusic"
	"tunely/catalog"
	"tunely/controller"
	"tunely/database"
	"tunely/extractor"
	"tunely/gemini"
	"tunely/lyrics"
	"tunely/models"
	"tunely/pages"
	"tunely/rooms"
	"tunely/spotify"
)

type Manager struct {
	Controller     *controller.Controller
	DB             *database.Database
	Lyrics         *lyrics.Client
	Gemini         *gemini.Client
	Hub            *rooms.Hub
	SpotifyEnabled bool
}

func NewManager(ctrl *controller.Controller, db *database.Database, hub *rooms.Hub, geminiClient *gemini.Client, spotifyEnabled bool) *Manager {
	return &Manager{
		Controller:     ctrl,
		DB:             db,
		Lyrics:         lyrics.New(),
		Gemini:         geminiClient,
		Hub:            hub,
		SpotifyEnabled: spotifyEnabled,
	}
}

// Register mounts every route on the router.
func (m *Manager) Register(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/html")
		c.String(http.StatusOK, pages.Landing)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", m.Health)

	api.GET("/ytmusic/search", m.Search)
	api.GET("/ytmusic/audio-url/:videoId", m.AudioURL)
	api.GET("/ytmusic/play", m.Play)

	api.GET("/spotify/search", m.SpotifySearch)
	api.GET("/spotify/track/:id", m.SpotifyTrack)
	api.GET("/spotify/recommendations", m.SpotifyRecommendations)

	api.POST("/playlists", m.CreatePlaylist)
	api.GET("/playlists", m.ListPlaylists)
	api.GET("/playlists/:id", m.GetPlaylist)
	api.DELETE("/playlists/:id", m.DeletePlaylist)
	api.POST("/playlists/:id/tracks", m.AddPlaylistTrack)
	api.DELETE("/playlists/:id/tracks/:trackId", m.RemovePlaylistTrack)

	api.GET("/history", m.History)
	api.GET("/history/top", m.MostPlayed)

	api.GET("/lyrics", m.GetLyrics)
	api.GET("/resolve-link", m.ResolveLink)
	api.GET("/mood", m.MoodSuggestions)

	router.GET("/ws/rooms/:roomId", m.JoinRoom)
}

func (m *Manager) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Search resolves a free-text query to the best catalog match.
func (m *Manager) Search(c *gin.Context) {
	match, err := m.Controller.ResolveTrack(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TrackResponseFrom(match))
}

// AudioURL returns a playable audio descriptor for a known video id.
func (m *Manager) AudioURL(c *gin.Context) {
	videoID := c.Param("videoId")
	descriptor, err := m.Controller.GetAudioByID(c.Request.Context(), videoID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AudioResponseFrom(videoID, descriptor))
}

// Play combines resolution and extraction: track + artist in, audio out.
// Successful plays are recorded to history.
func (m *Manager) Play(c *gin.Context) {
	track := c.Query("track")
	artist := c.Query("artist")

	match, err := m.Controller.ResolveTrack(c.Request.Context(), strings.TrimSpace(track+" "+artist))
	if err != nil {
		abortWithError(c, err)
		return
	}
	descriptor, err := m.Controller.GetAudioByID(c.Request.Context(), match.VideoID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if m.DB != nil {
		if err := m.DB.RecordPlay(match.VideoID, match.Title, match.Artist, int(match.Duration.Seconds())); err != nil {
			log.Warnf("failed to record play for %s: %v", match.VideoID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"track": models.TrackResponseFrom(match),
		"audio": models.AudioResponseFrom(match.VideoID, descriptor),
	})
}

func (m *Manager) GetLyrics(c *gin.Context) {
	track := c.Query("track")
	artist := c.Query("artist")
	if track == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "track query parameter is required"})
		return
	}
	result, err := m.Lyrics.Search(c.Request.Context(), track, artist)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResolveLink turns an Apple Music track URL into a catalog match.
func (m *Manager) ResolveLink(c *gin.Context) {
	link, err := applemusic.ParseTrackURL(c.Query("url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	info, err := applemusic.GetTrack(c.Request.Context(), link)
	if err != nil {
		abortWithError(c, err)
		return
	}
	match, err := m.Controller.ResolveTrack(c.Request.Context(), strings.TrimSpace(info.Title+" "+strings.Join(info.Artists, " ")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source": info,
		"track":  models.TrackResponseFrom(match),
	})
}

func (m *Manager) MoodSuggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	suggestions, err := m.Gemini.SuggestTracks(c.Request.Context(), c.Query("mood"), limit)
	if err != nil {
		if errors.Is(err, gemini.ErrDisabled) {
			c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: "mood suggestions are not enabled"})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (m *Manager) JoinRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	username := c.DefaultQuery("username", "anonymous")
	m.Hub.ServeWS(c.Writer, c.Request, roomID, username)
}

// abortWithError maps lower-layer errors onto HTTP status codes. Callers
// never see internal error strings for 5xx responses.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "search query is required"})
	case errors.Is(err, controller.ErrMissingMetadata):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "track or artist name is required"})
	case errors.Is(err, controller.ErrInvalidVideoID):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid video id"})
	case errors.Is(err, spotify.ErrMissingToken):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "spotify access token is required"})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no matching track found"})
	case errors.Is(err, extractor.ErrNoAudioStream):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no audio stream available for this track"})
	case errors.Is(err, lyrics.ErrNoLyrics):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no lyrics found"})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Errorf("request timed out: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "upstream request timed out"})
	default:
		log.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}
