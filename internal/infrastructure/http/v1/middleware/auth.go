package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"uniworld/internal/core/apperror"
	appctx "uniworld/internal/core/context"
)

// ActorClaims are the token claims carried into the actor context.
// The actor is recorded as provenance on ledger entries and documents;
// no permission model hangs off it.
type ActorClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// JWTValidator validates bearer tokens and yields the acting user.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.Actor, error)
}

// HMACValidator validates HS256-signed tokens.
type HMACValidator struct {
	secret []byte
}

// NewHMACValidator creates a validator for HS256 tokens.
func NewHMACValidator(secret string) *HMACValidator {
	return &HMACValidator{secret: []byte(secret)}
}

// ValidateToken parses and verifies the token signature and expiry.
func (v *HMACValidator) ValidateToken(tokenString string) (*appctx.Actor, error) {
	var claims ActorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return &appctx.Actor{
		UserID: claims.Subject,
		Name:   claims.Name,
	}, nil
}

// Auth middleware validates JWT tokens and populates the actor context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", actor.UserID)

		c.Next()
	}
}

// OptionalAuth validates token if present, but doesn't require it.
func OptionalAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err == nil && actor != nil {
			ctx := appctx.WithActor(c.Request.Context(), actor)
			c.Request = c.Request.WithContext(ctx)
			c.Set("user_id", actor.UserID)
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
