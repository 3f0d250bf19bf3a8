package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskmind/internal/model"
	"taskmind/internal/repository"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

var (
	ErrMissingToken = errors.New("authorization is missing")
	ErrInvalidToken = errors.New("invalid token")
	ErrNotAdmin     = errors.New("access denied: admin role required")
)

// Claims is what the auth provider puts in its access tokens.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

// roleCacheEntry stores a cached role for a user with TTL
type roleCacheEntry struct {
	role      string
	expiresAt time.Time
}

// Authenticator verifies HS256 access tokens issued by the auth provider and
// resolves the caller's role from the profiles table.
type Authenticator struct {
	secret   []byte
	profiles repository.ProfileRepository
	ttl      time.Duration
	cache    sync.Map // userID -> roleCacheEntry
}

func NewAuthenticator(secret []byte, profiles repository.ProfileRepository, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: secret, profiles: profiles, ttl: ttl}
}

// ParseToken validates the signature and returns the subject and email claims.
func (a *Authenticator) ParseToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	return Claims{UserID: userID, Email: email}, nil
}

// RoleOf returns the cached role of the user, creating the profile row the
// first time the user is seen.
func (a *Authenticator) RoleOf(ctx context.Context, claims Claims) (string, error) {
	key := claims.UserID.String()
	if entry, ok := a.cache.Load(key); ok {
		cached := entry.(roleCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.role, nil
		}
	}

	profile, err := a.profiles.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = &model.Profile{ID: claims.UserID, Email: claims.Email}
		if err := a.profiles.Ensure(ctx, profile); err != nil {
			return "", err
		}
		profile, err = a.profiles.FindByID(ctx, claims.UserID)
	}
	if err != nil {
		return "", err
	}

	a.cache.Store(key, roleCacheEntry{role: profile.Role, expiresAt: time.Now().Add(a.ttl)})
	return profile.Role, nil
}

// ClearRoleCache drops the cached role of one user, or of everyone when userID is empty.
func (a *Authenticator) ClearRoleCache(userID string) {
	if userID == "" {
		a.cache.Range(func(key, _ interface{}) bool {
			a.cache.Delete(key)
			return true
		})
		return
	}
	a.cache.Delete(userID)
}

// AdminFromToken authenticates a raw token and requires the admin role.
func (a *Authenticator) AdminFromToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, ErrMissingToken
	}
	claims, err := a.ParseToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	role, err := a.RoleOf(ctx, claims)
	if err != nil {
		return uuid.Nil, err
	}
	if role != model.RoleAdmin {
		return uuid.Nil, ErrNotAdmin
	}
	return claims.UserID, nil
}

// RequireAuth validates the access token (cookie first, then Bearer header)
// and stores the caller in the gin context.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				response.Abort(c, http.StatusUnauthorized, "Authorization is missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Abort(c, http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'")
				return
			}
			tokenString = parts[1]
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		role, err := a.RoleOf(c.Request.Context(), claims)
		if err != nil {
			zap.L().Error("failed to resolve user role", zap.String("user_id", claims.UserID.String()), zap.Error(err))
			response.Abort(c, http.StatusInternalServerError, "Failed to verify permissions")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != model.RoleAdmin {
			response.Abort(c, http.StatusForbidden, "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller set by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func UserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}
