package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tunely/models"
	"tunely/spotify"
)

// bearerToken extracts the client-supplied Spotify token. The server never
// holds Spotify credentials of its own; the browser's token is forwarded.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return ""
}

func (m *Manager) spotifyGuard(c *gin.Context) (string, bool) {
	if !m.SpotifyEnabled {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: "spotify integration is not enabled"})
		return "", false
	}
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "spotify access token is required"})
		return "", false
	}
	return token, true
}

func (m *Manager) SpotifySearch(c *gin.Context) {
	token, ok := m.spotifyGuard(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "search query is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	tracks, err := spotify.Search(c.Request.Context(), token, query, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (m *Manager) SpotifyTrack(c *gin.Context) {
	token, ok := m.spotifyGuard(c)
	if !ok {
		return
	}
	track, err := spotify.GetTrack(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, track)
}

func (m *Manager) SpotifyRecommendations(c *gin.Context) {
	token, ok := m.spotifyGuard(c)
	if !ok {
		return
	}
	seeds := c.QueryArray("seed")
	if len(seeds) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "at least one seed track is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	tracks, err := spotify.Recommendations(c.Request.Context(), token, seeds, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}
