// Package middleware provides authentication, logging, tracing and rate
// limiting middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "inkwell-api"
	TokenAudience = "inkwell-client"
	TokenTTL      = 7 * 24 * time.Hour

	blacklistPrefix = "blacklist:"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	UserID    uint
	Username  string
	ID        string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 access tokens. Revocation is kept
// in Redis; with no Redis client, tokens cannot be revoked.
type TokenService struct {
	secret []byte
	redis  *redis.Client
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret.
func NewTokenService(secret string, rdb *redis.Client) *TokenService {
	return &TokenService{secret: []byte(secret), redis: rdb, now: time.Now}
}

// Issue signs a token for the given user.
func (ts *TokenService) Issue(userID uint, username string) (string, error) {
	now := ts.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(TokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

// Parse validates signature, issuer, audience and expiry, then checks the
// revocation list.
func (ts *TokenService) Parse(ctx context.Context, raw string) (*TokenClaims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ts.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{UserID: uint(userID), ExpiresAt: exp.Time}
	out.Username, _ = claims["username"].(string)
	out.ID, _ = claims["jti"].(string)

	if out.ID != "" && ts.redis != nil {
		n, err := ts.redis.Exists(ctx, blacklistPrefix+out.ID).Result()
		if err == nil && n > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return out, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (ts *TokenService) Revoke(ctx context.Context, claims *TokenClaims) error {
	if ts.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(ts.now())
	if ttl <= 0 {
		return nil
	}
	return ts.redis.Set(ctx, blacklistPrefix+claims.ID, "1", ttl).Err()
}

// BearerToken extracts the token from the Authorization header, falling back
// to the token query parameter used by websocket clients.
func BearerToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

func setUser(c *fiber.Ctx, claims *TokenClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("claims", claims)
	ctx := context.WithValue(c.UserContext(), UserIDKey, claims.UserID)
	c.SetUserContext(ctx)
}

// AuthRequired rejects requests without a valid token and stores the
// caller's id in c.Locals("userID").
func AuthRequired(ts *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		claims, err := ts.Parse(c.UserContext(), raw)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, ErrTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}
		setUser(c, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(ts *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := BearerToken(c); raw != "" {
			if claims, err := ts.Parse(c.UserContext(), raw); err == nil {
				setUser(c, claims)
			}
		}
		return c.Next()
	}
}

// CurrentClaims returns the claims stored by AuthRequired.
func CurrentClaims(c *fiber.Ctx) (*TokenClaims, bool) {
	claims, ok := c.Locals("claims").(*TokenClaims)
	return claims, ok
}
