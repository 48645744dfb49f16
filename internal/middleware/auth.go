// Package middleware provides authentication, logging, tracing and rate limiting middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"askaway/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "askaway-api"
	TokenAudience = "askaway-client"

	blacklistPrefix = "blacklist:"
)

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuedToken is a freshly signed token and its registered claims.
type IssuedToken struct {
	Value     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenClaims are the verified claims of an access token.
type TokenClaims struct {
	UserID    string
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// NewTokenManager returns a TokenManager signing with secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the given user.
func (m *TokenManager) Issue(userID, username string) (*IssuedToken, error) {
	if len(m.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	now := m.now().Truncate(time.Second)
	exp := now.Add(m.ttl)
	jti := generateJTI(now)
	claims := jwt.MapClaims{
		"userId":   userID,
		"username": username,
		"sub":      userID,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      jti,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Value: signed, JTI: jti, IssuedAt: now, ExpiresAt: exp}, nil
}

// Parse verifies signature, issuer, audience and expiry.
func (m *TokenManager) Parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" || !models.ValidID(sub) {
		return nil, errors.New("invalid subject claim")
	}
	username, _ := claims["username"].(string)
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("invalid expiration claim")
	}

	return &TokenClaims{UserID: sub, Username: username, JTI: jti, ExpiresAt: exp.Time}, nil
}

// generateJTI creates a unique JWT ID so single tokens can be revoked
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

// RevokeToken blacklists jti until the token would have expired anyway.
func RevokeToken(ctx context.Context, rdb *redis.Client, jti string, expiresAt time.Time) error {
	if rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

func isRevoked(ctx context.Context, rdb *redis.Client, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		RedisErrors.WithLabelValues("blacklist_check").Inc()
		return false
	}
	return n > 0
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// AuthRequired enforces a valid, unrevoked bearer token. WebSocket upgrades
// may pass the token as ?token= because browsers cannot set headers there.
func AuthRequired(tokens *TokenManager, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if isRevoked(c.UserContext(), rdb, claims.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		setIdentity(c, claims)
		return c.Next()
	}
}

// OptionalAuth records the caller's identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth(tokens *TokenManager, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := tokens.Parse(tokenString); err == nil && !isRevoked(c.UserContext(), rdb, claims.JTI) {
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, claims *TokenClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("username", claims.Username)
	c.Locals("tokenClaims", claims)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// CurrentUserID returns the authenticated user ID, if any.
func CurrentUserID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals("userID").(string)
	return id, ok && id != ""
}

// CurrentClaims returns the verified token claims, if any.
func CurrentClaims(c *fiber.Ctx) (*TokenClaims, bool) {
	claims, ok := c.Locals("tokenClaims").(*TokenClaims)
	return claims, ok
}
