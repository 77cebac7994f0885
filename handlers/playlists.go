package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tunely/database"
	"tunely/models"
)

type createPlaylistRequest struct {
	Name  string `json:"name" binding:"required"`
	Owner string `json:"owner"`
}

type addTrackRequest struct {
	VideoID  string `json:"videoId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"`
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func (m *Manager) CreatePlaylist(c *gin.Context) {
	var req createPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "playlist name is required"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "playlist name is required"})
		return
	}
	playlist, err := m.DB.CreatePlaylist(strings.TrimSpace(req.Name), req.Owner)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

func (m *Manager) ListPlaylists(c *gin.Context) {
	playlists, err := m.DB.GetPlaylists()
	if err != nil {
		abortWithError(c, err)
		return
	}
	if playlists == nil {
		playlists = []database.Playlist{}
	}
	c.JSON(http.StatusOK, gin.H{"playlists": playlists})
}

func (m *Manager) GetPlaylist(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	playlist, err := m.DB.GetPlaylist(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (m *Manager) DeletePlaylist(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := m.DB.DeletePlaylist(id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Manager) AddPlaylistTrack(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "videoId and title are required"})
		return
	}
	track, err := m.DB.AddTrack(id, req.VideoID, req.Title, req.Artist, req.Duration)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, track)
}

func (m *Manager) RemovePlaylistTrack(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	trackID, ok := pathID(c, "trackId")
	if !ok {
		return
	}
	if err := m.DB.RemoveTrack(id, trackID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Manager) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := m.DB.GetHistory(limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (m *Manager) MostPlayed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	records, err := m.DB.GetMostPlayed(limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": records})
}
