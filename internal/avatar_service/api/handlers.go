// Package api exposes the avatar's ask/poll surface over HTTP. The frontend
// submits a question, then polls for the finished answer without blocking.
package api

import (
	"net/http"
	"strconv"

	"AIAvatar/internal/cache"
	"AIAvatar/internal/history"
	"AIAvatar/internal/models"
	"AIAvatar/internal/worker"
	"AIAvatar/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// API provides handlers for the avatar service.
type API struct {
	hub     *worker.Hub
	cache   *cache.Service
	audio   worker.AudioStore
	history history.History
	logger  *logger.Logger
}

// NewAPI creates the handler set.
func NewAPI(hub *worker.Hub, cacheSvc *cache.Service, audio worker.AudioStore, hist history.History, log *logger.Logger) *API {
	return &API{
		hub:     hub,
		cache:   cacheSvc,
		audio:   audio,
		history: hist,
		logger:  log,
	}
}

// AskHandler accepts a question for a session. The answer arrives later via
// the result poll; a new session id is issued when the client has none yet.
func (a *API) AskHandler(c *gin.Context) {
	var payload struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
		Author    string `json:"author"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid ask payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if payload.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	a.hub.Submit(payload.SessionID, models.ChatItem{
		MessageText: payload.Question,
		AuthorName:  payload.Author,
		Source:      "direct",
	})

	c.JSON(http.StatusAccepted, gin.H{"session_id": payload.SessionID})
}

// ResultHandler is the non-blocking poll. It answers immediately either with
// the finished result or with ready=false.
func (a *API) ResultHandler(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	res, ok := a.hub.Poll(sessionID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "result": res})
}

// AudioHandler streams the synthesized MP3 for a reference returned in a
// result.
func (a *API) AudioHandler(c *gin.Context) {
	ref := c.Param("ref")
	data, err := a.audio.Get(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audio not found"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", data)
}

// HistoryHandler returns the most recent answered questions, newest first.
func (a *API) HistoryHandler(c *gin.Context) {
	n := history.MaxEntries
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	entries, err := a.history.Recent(c.Request.Context(), n)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to read history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// EndSessionHandler drops a session. An in-flight answer cycle still
// completes and is cached.
func (a *API) EndSessionHandler(c *gin.Context) {
	a.hub.EndSession(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// HealthHandler reports liveness and the cache size.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"cache_size": a.cache.Size(),
		"sessions":   a.hub.Sessions(),
	})
}
