package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medicine_chatbot/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

var (
	ErrNoToken      = errors.New("no token, authorization denied")
	ErrTokenFormat  = errors.New("invalid token format")
	ErrTokenExpired = errors.New("session expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type Claims struct {
	Kind models.Role `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the HS256 bearer tokens handed out on
// login.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) Issue(subject string, role models.Role) (string, error) {
	now := m.now()
	claims := Claims{
		Kind: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies token and returns the actor it was issued to.
func (m *TokenManager) Parse(token string) (models.Actor, error) {
	if strings.Count(token, ".") != 2 {
		return models.Actor{}, ErrTokenFormat
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.Actor{}, ErrTokenExpired
	case err != nil:
		return models.Actor{}, ErrTokenInvalid
	case claims.Subject == "" || (claims.Kind != models.RoleUser && claims.Kind != models.RoleAdmin):
		return models.Actor{}, ErrTokenInvalid
	}
	return models.Actor{ID: claims.Subject, Role: claims.Kind}, nil
}

// tokenFrom accepts "Bearer <t>", a raw token, or the x-access-token header.
// Surrounding quotes are stripped.
func tokenFrom(c *gin.Context) string {
	raw := c.GetHeader("Authorization")
	if raw == "" {
		raw = c.GetHeader("x-access-token")
	}
	token := strings.Trim(strings.TrimSpace(raw), `"`)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.Trim(strings.TrimSpace(token[7:]), `"`)
	}
	return token
}

func (m *TokenManager) authenticate(c *gin.Context) (models.Actor, error) {
	token := tokenFrom(c)
	if token == "" {
		return models.Actor{}, ErrNoToken
	}
	return m.Parse(token)
}

func unauthorized(c *gin.Context, err error) {
	msg := "Invalid token"
	switch {
	case errors.Is(err, ErrNoToken):
		msg = "No token, authorization denied"
	case errors.Is(err, ErrTokenFormat):
		msg = "Invalid token format"
	case errors.Is(err, ErrTokenExpired):
		msg = "Session expired"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// RequireUser admits only end-user tokens.
func (m *TokenManager) RequireUser() gin.HandlerFunc {
	return m.require(models.RoleUser)
}

// RequireAdmin admits only admin tokens.
func (m *TokenManager) RequireAdmin() gin.HandlerFunc {
	return m.require(models.RoleAdmin)
}

// RequireAny admits a user or an admin token.
func (m *TokenManager) RequireAny() gin.HandlerFunc {
	return m.require("")
}

func (m *TokenManager) require(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := m.authenticate(c)
		if err != nil {
			unauthorized(c, err)
			return
		}
		if role != "" && actor.Role != role {
			if role == models.RoleAdmin {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User token required"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalUser attaches the actor when a valid token is present and lets the
// request through untouched otherwise. A present but bad token is still
// rejected.
func (m *TokenManager) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenFrom(c) == "" {
			c.Next()
			return
		}
		actor, err := m.authenticate(c)
		if err != nil {
			unauthorized(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the authenticated caller, if any.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
