package services

import (
	"errors"
	"fmt"
	"time"

	"todo-calendar/internal/cache"
	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"

	"github.com/charmbracelet/log"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

const (
	loginFailuresKey = "login_failures:"
	revokedTokenKey  = "revoked_token:"
)

// TokenClaims is the payload of API tokens. Subject carries the username.
type TokenClaims struct {
	jwt.RegisteredClaims
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type AuthOptions struct {
	Secret        []byte
	TokenTTL      time.Duration
	MaxFailures   int
	LockoutWindow time.Duration
}

type AuthService interface {
	Authenticate(db *gorm.DB, username, password string) (*models.User, error)
	IssueToken(user *models.User) (*Token, error)
	ParseToken(tokenString string) (*TokenClaims, error)
	RevokeToken(claims *TokenClaims) error
}

type AuthServiceImpl struct {
	users repositories.UserRepository
	cache cache.Cache
	opts  AuthOptions
	now   func() time.Time
}

// NewAuthService builds the credential checker. store keeps login failure
// counters and revoked token ids; a nil store disables both.
func NewAuthService(users repositories.UserRepository, store cache.Cache, opts AuthOptions) *AuthServiceImpl {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	return &AuthServiceImpl{users: users, cache: store, opts: opts, now: time.Now}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthServiceImpl) Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	if s.lockedOut(username) {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.FindByUsername(db, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.recordFailure(username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}

	if !VerifyPassword(user.Password, password) {
		s.recordFailure(username)
		return nil, ErrInvalidCredentials
	}

	if s.cache != nil && s.opts.MaxFailures > 0 {
		if err := s.cache.Delete(loginFailuresKey + username); err != nil {
			log.Warn("failed to reset login failures", "user", username, "err", err)
		}
	}
	return user, nil
}

func (s *AuthServiceImpl) lockedOut(username string) bool {
	if s.cache == nil || s.opts.MaxFailures <= 0 {
		return false
	}
	var failures int64
	if err := s.cache.Get(loginFailuresKey+username, &failures); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("failed to read login failures", "user", username, "err", err)
		}
		return false
	}
	return failures >= int64(s.opts.MaxFailures)
}

func (s *AuthServiceImpl) recordFailure(username string) {
	if s.cache == nil || s.opts.MaxFailures <= 0 {
		return
	}
	n, err := s.cache.Incr(loginFailuresKey+username, s.opts.LockoutWindow)
	if err != nil {
		log.Warn("failed to record login failure", "user", username, "err", err)
		return
	}
	if n == int64(s.opts.MaxFailures) {
		log.Warn("login locked", "user", username, "window", s.opts.LockoutWindow)
	}
}

func (s *AuthServiceImpl) IssueToken(user *models.User) (*Token, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	now := s.now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.opts.TokenTTL.Seconds()),
	}, nil
}

func (s *AuthServiceImpl) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.opts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if s.cache != nil {
		revoked, err := s.cache.Exists(revokedTokenKey + claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// RevokeToken blacklists the token id until the token would expire anyway.
func (s *AuthServiceImpl) RevokeToken(claims *TokenClaims) error {
	if s.cache == nil {
		return errors.New("token revocation requires a cache")
	}
	if claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(revokedTokenKey+claims.ID, true, ttl)
}
