package handlers

import (
	"net/http"

	"todo-calendar/internal/middleware"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Logout revokes the bearer token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "logout requires a bearer token",
		})
		return
	}

	if err := h.authService.RevokeToken(claims); err != nil {
		log.Error("token revocation failed", "user", claims.Subject, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to revoke token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
