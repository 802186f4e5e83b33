package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"
	"todo-calendar/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ContextUserKey     = "user"
	ContextUsernameKey = "username"
	ContextClaimsKey   = "token_claims"
)

// Scheme selects which Authorization header schemes a route accepts.
type Scheme int

const (
	SchemeBasic Scheme = 1 << iota
	SchemeBearer
	SchemeAny = SchemeBasic | SchemeBearer
)

type Authenticator struct {
	db          *gorm.DB
	authService services.AuthService
	users       repositories.UserRepository
	realm       string
}

func NewAuthenticator(db *gorm.DB, authService services.AuthService, users repositories.UserRepository, realm string) *Authenticator {
	if realm == "" {
		realm = "todo"
	}
	return &Authenticator{db: db, authService: authService, users: users, realm: realm}
}

// Require resolves the caller to a stored user or aborts with 401. The user
// is available to handlers through CurrentUser.
func (a *Authenticator) Require(schemes Scheme) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := a.db.WithContext(c.Request.Context())
		header := c.GetHeader("Authorization")

		var (
			user *models.User
			err  error
		)
		switch {
		case schemes&SchemeBearer != 0 && hasScheme(header, "Bearer"):
			user, err = a.bearer(c, db, strings.TrimSpace(header[len("Bearer"):]))
		case schemes&SchemeBasic != 0 && hasScheme(header, "Basic"):
			username, password, ok := c.Request.BasicAuth()
			if !ok {
				err = services.ErrInvalidCredentials
				break
			}
			user, err = a.authService.Authenticate(db, username, password)
		default:
			a.unauthorized(c, "Not authenticated")
			return
		}

		if err != nil {
			a.fail(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUsernameKey, user.Username)
		c.Next()
	}
}

func (a *Authenticator) bearer(c *gin.Context, db *gorm.DB, raw string) (*models.User, error) {
	claims, err := a.authService.ParseToken(raw)
	if err != nil {
		return nil, err
	}

	// The subject may have been deleted since the token was issued.
	user, err := a.users.FindByUsername(db, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", services.ErrInvalidToken)
		}
		return nil, err
	}

	c.Set(ContextClaimsKey, claims)
	return user, nil
}

func (a *Authenticator) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		a.unauthorized(c, "Incorrect username or password")
	case errors.Is(err, services.ErrTooManyAttempts):
		a.unauthorized(c, "Too many failed login attempts, try again later")
	case errors.Is(err, services.ErrTokenRevoked):
		a.unauthorized(c, "Token has been revoked")
	case errors.Is(err, services.ErrInvalidToken):
		a.unauthorized(c, "Invalid or expired token")
	default:
		log.Error("authentication failed", "path", c.Request.URL.Path, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (a *Authenticator) unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", a.realm))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

func hasScheme(header, scheme string) bool {
	return len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) && header[len(scheme)] == ' '
}

// CurrentUser returns the user stored by Authenticator.Require.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentClaims returns the token claims when the request used bearer auth.
func CurrentClaims(c *gin.Context) (*services.TokenClaims, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.TokenClaims)
	return claims, ok
}
