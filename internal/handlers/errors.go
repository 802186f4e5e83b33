package handlers

import (
	"errors"
	"net/http"

	"todo-calendar/internal/middleware"
	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func handleTaskError(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "task not found",
		})
		return
	}
	log.Error("task request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user", c.GetString(middleware.ContextUsernameKey),
		"err", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "failed to process task request",
	})
}

func handlePageError(c *gin.Context, err error) {
	log.Error("page request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user", c.GetString(middleware.ContextUsernameKey),
		"err", err,
	)
	c.String(http.StatusInternalServerError, "internal server error")
}

// requireUser is a safety net behind the authentication middleware.
func requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return nil, false
	}
	return user, true
}
