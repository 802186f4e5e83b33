package handlers

import (
	"net/http"

	"todo-calendar/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token exchanges basic credentials for a bearer token.
func (h *AuthHandler) Token(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		log.Error("token generation failed", "user", user.Username, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, token)
}
